package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const experimentsFileName = "experiments.yml"

// Store reads, validates, caches, and atomically rewrites the experiment
// definitions kept under one content root, one YAML file per content entity.
type Store struct {
	root     string
	logger   *slog.Logger
	validate *validator.Validate

	mu    sync.RWMutex
	cache map[string]*ExperimentsFile

	fileMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewStore(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		root:     root,
		logger:   logger.With("component", "config"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cache:    make(map[string]*ExperimentsFile),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Store) Root() string { return s.root }

func entityKey(contentType, contentSlug string) string {
	return contentType + "/" + contentSlug
}

func (s *Store) entityDir(contentType, contentSlug string) string {
	return filepath.Join(s.root, contentType, contentSlug)
}

func (s *Store) filePath(contentType, contentSlug string) string {
	return filepath.Join(s.entityDir(contentType, contentSlug), experimentsFileName)
}

// entityLock returns the mutex serializing writes to one entity's file.
func (s *Store) entityLock(key string) *sync.Mutex {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Load returns the validated experiments for one content entity, from cache
// when possible. A missing file is ErrNotFound; a malformed or unvalidatable
// file is ErrConfigInvalid.
func (s *Store) Load(contentType, contentSlug string) (*ExperimentsFile, error) {
	key := entityKey(contentType, contentSlug)

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	ef, err := s.readFile(contentType, contentSlug)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = ef
	s.mu.Unlock()

	return ef, nil
}

// readFile reads and validates the entity's file, bypassing the cache.
func (s *Store) readFile(contentType, contentSlug string) (*ExperimentsFile, error) {
	data, err := os.ReadFile(s.filePath(contentType, contentSlug))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	var ef ExperimentsFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	ef.ContentType = contentType
	ef.ContentSlug = contentSlug

	if err := s.validateFile(&ef); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	return &ef, nil
}

// validateFile checks the whole file: struct tags plus the invariants the
// tags cannot express (unique slugs, allocations summing to 100).
func (s *Store) validateFile(ef *ExperimentsFile) error {
	seen := make(map[string]bool, len(ef.Experiments))
	for i := range ef.Experiments {
		exp := &ef.Experiments[i]
		if err := s.validateExperiment(exp); err != nil {
			return err
		}
		if seen[exp.Slug] {
			return fmt.Errorf("duplicate experiment slug %q", exp.Slug)
		}
		seen[exp.Slug] = true
	}
	return nil
}

func (s *Store) validateExperiment(exp *Experiment) error {
	if err := s.validate.Struct(exp); err != nil {
		return err
	}
	if sum := allocationSum(exp.Variants); sum != 100 {
		return fmt.Errorf("experiment %q allocations sum to %d, want 100", exp.Slug, sum)
	}
	seen := make(map[string]bool, len(exp.Variants))
	for _, v := range exp.Variants {
		if seen[v.Slug] {
			return fmt.Errorf("experiment %q has duplicate variant slug %q", exp.Slug, v.Slug)
		}
		seen[v.Slug] = true
	}
	return nil
}

// Update applies a partial patch to one experiment and rewrites the entity's
// file atomically. The sequence read-merge-validate-write is serialized per
// entity. Validation failure aborts before any write.
func (s *Store) Update(contentType, contentSlug, experimentSlug string, patch Patch) (*Experiment, error) {
	key := entityKey(contentType, contentSlug)
	lock := s.entityLock(key)
	lock.Lock()
	defer lock.Unlock()

	// Always merge against the on-disk file, not the cache.
	ef, err := s.readFile(contentType, contentSlug)
	if err != nil {
		return nil, err
	}

	var target *Experiment
	for i := range ef.Experiments {
		if ef.Experiments[i].Slug == experimentSlug {
			target = &ef.Experiments[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %q in %s", ErrExperimentNotFound, experimentSlug, key)
	}

	if patch.Variants != nil {
		if sum := allocationSum(patch.Variants); sum != 100 {
			return nil, fmt.Errorf("%w: got %d", ErrAllocationInvalid, sum)
		}
		target.Variants = patch.Variants
	}
	if patch.Description != nil {
		target.Description = *patch.Description
	}
	if patch.Status != nil {
		target.Status = *patch.Status
	}
	if patch.MaxVisitors != nil {
		target.MaxVisitors = *patch.MaxVisitors
	}
	if patch.AutoStopped != nil {
		target.AutoStopped = *patch.AutoStopped
	}
	if patch.Targeting != nil {
		target.Targeting = mergeTargeting(target.Targeting, patch.Targeting)
	}

	if err := s.validateExperiment(target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	if err := s.writeFile(contentType, contentSlug, ef); err != nil {
		return nil, err
	}

	s.Invalidate(contentType, contentSlug)
	s.logger.Info("experiment updated",
		"entity", key,
		"experiment", experimentSlug,
		"status", target.Status)

	merged := *target
	return &merged, nil
}

// mergeTargeting deep-merges a targeting patch: dimensions absent from the
// patch keep their prior lists.
func mergeTargeting(prev, patch *Targeting) *Targeting {
	merged := Targeting{}
	if prev != nil {
		merged = *prev
	}
	if patch.Regions != nil {
		merged.Regions = patch.Regions
	}
	if patch.Countries != nil {
		merged.Countries = patch.Countries
	}
	if patch.Languages != nil {
		merged.Languages = patch.Languages
	}
	if patch.UTMSources != nil {
		merged.UTMSources = patch.UTMSources
	}
	if patch.UTMCampaigns != nil {
		merged.UTMCampaigns = patch.UTMCampaigns
	}
	if patch.UTMMediums != nil {
		merged.UTMMediums = patch.UTMMediums
	}
	if patch.Devices != nil {
		merged.Devices = patch.Devices
	}
	if patch.Hours != nil {
		merged.Hours = patch.Hours
	}
	if patch.DaysOfWeek != nil {
		merged.DaysOfWeek = patch.DaysOfWeek
	}
	return &merged
}

// writeFile serializes the file and replaces the on-disk copy via a temp
// file and rename, so a crash mid-write never leaves a truncated file.
func (s *Store) writeFile(contentType, contentSlug string, ef *ExperimentsFile) error {
	data, err := yaml.Marshal(ef)
	if err != nil {
		return fmt.Errorf("failed to marshal experiments: %w", err)
	}

	path := s.filePath(contentType, contentSlug)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".experiments-*.yml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace experiments file: %w", err)
	}
	return nil
}

// Invalidate drops one cache entry, or every entry when both arguments are
// empty. Used after any external edit.
func (s *Store) Invalidate(contentType, contentSlug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if contentType == "" && contentSlug == "" {
		s.cache = make(map[string]*ExperimentsFile)
		return
	}
	delete(s.cache, entityKey(contentType, contentSlug))
}

// Entity identifies one content entity carrying an experiments file.
type Entity struct {
	ContentType string `json:"content_type"`
	ContentSlug string `json:"content_slug"`
}

// Entities walks the content root and returns every entity that has an
// experiments file, sorted for stable CLI output.
func (s *Store) Entities() ([]Entity, error) {
	types, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read content root: %w", err)
	}

	var entities []Entity
	for _, t := range types {
		if !t.IsDir() {
			continue
		}
		slugs, err := os.ReadDir(filepath.Join(s.root, t.Name()))
		if err != nil {
			continue
		}
		for _, sl := range slugs {
			if !sl.IsDir() {
				continue
			}
			if _, err := os.Stat(s.filePath(t.Name(), sl.Name())); err == nil {
				entities = append(entities, Entity{ContentType: t.Name(), ContentSlug: sl.Name()})
			}
		}
	}

	sort.Slice(entities, func(i, j int) bool {
		if entities[i].ContentType != entities[j].ContentType {
			return entities[i].ContentType < entities[j].ContentType
		}
		return entities[i].ContentSlug < entities[j].ContentSlug
	})
	return entities, nil
}
