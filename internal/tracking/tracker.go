// Package tracking owns exposure counting: per-experiment visitor dedup
// sets, per-variant counters, the auto-stop trigger, and the persisted
// state snapshot.
package tracking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pagecraft/pagecraft/internal/config"
)

// entityRef remembers which content entity an experiment belongs to, so an
// auto-stop can locate and rewrite the right experiments file.
type entityRef struct {
	contentType string
	contentSlug string
}

// Tracker enforces at-most-once counting per visitor per experiment. The
// persisted visitor arrays in State are the source of truth; the seen sets
// are a derived O(1) membership cache rebuilt from them at startup.
//
// One mutex guards membership-check-then-insert, the counter increment, and
// the visitors append as a single atomic unit.
type Tracker struct {
	store  *config.Store
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	state    *State
	seen     map[string]map[string]struct{}
	entities map[string]entityRef
}

func New(statePath string, store *config.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		store:    store,
		path:     statePath,
		logger:   logger.With("component", "tracking"),
		seen:     make(map[string]map[string]struct{}),
		entities: make(map[string]entityRef),
	}
	t.state = loadState(statePath, t.logger)
	for slug, digests := range t.state.Visitors {
		set := make(map[string]struct{}, len(digests))
		for _, d := range digests {
			set[d] = struct{}{}
		}
		t.seen[slug] = set
	}
	return t
}

// digest is the one-way transform applied to raw visitor ids before any
// storage or comparison. Raw ids never leave this function.
func digest(visitorID string) string {
	sum := sha256.Sum256([]byte(visitorID))
	return hex.EncodeToString(sum[:8])
}

// RecordExposure counts one visitor against an experiment variant, at most
// once per visitor. It reports whether this visitor was newly counted.
// maxVisitors <= 0 means no cap. Reaching the cap triggers auto-stop
// synchronously before returning.
func (t *Tracker) RecordExposure(experimentSlug, variantSlug, visitorID, contentType, contentSlug string, maxVisitors int) bool {
	d := digest(visitorID)

	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.seen[experimentSlug]
	if !ok {
		set = make(map[string]struct{})
		t.seen[experimentSlug] = set
	}
	if _, counted := set[d]; counted {
		return false
	}

	set[d] = struct{}{}
	t.state.Visitors[experimentSlug] = append(t.state.Visitors[experimentSlug], d)
	counts, ok := t.state.Counts[experimentSlug]
	if !ok {
		counts = make(map[string]int)
		t.state.Counts[experimentSlug] = counts
	}
	counts[variantSlug]++
	t.entities[experimentSlug] = entityRef{contentType: contentType, contentSlug: contentSlug}

	if maxVisitors > 0 && len(set) >= maxVisitors {
		t.autoStop(experimentSlug, maxVisitors)
	}
	return true
}

// autoStop archives an experiment whose visitor cap was reached. Called with
// the tracker lock held. Flush first so the triggering visitor survives a
// crash between the flip and the next periodic flush.
func (t *Tracker) autoStop(experimentSlug string, maxVisitors int) {
	if err := t.flushLocked(); err != nil {
		t.logger.Error("auto-stop flush failed", "experiment", experimentSlug, "error", err)
	}

	ref, ok := t.entities[experimentSlug]
	if !ok {
		t.logger.Error("auto-stop has no entity for experiment", "experiment", experimentSlug)
		return
	}

	status := config.StatusArchived
	stopped := true
	note := fmt.Sprintf("Auto-stopped on %s after reaching %d visitors",
		time.Now().Format("2006-01-02"), maxVisitors)

	_, err := t.store.Update(ref.contentType, ref.contentSlug, experimentSlug, config.Patch{
		Status:      &status,
		AutoStopped: &stopped,
		Description: &note,
	})
	if err != nil {
		t.logger.Error("auto-stop update failed", "experiment", experimentSlug, "error", err)
		return
	}
	t.store.Invalidate(ref.contentType, ref.contentSlug)

	t.logger.Info("experiment auto-stopped",
		"experiment", experimentSlug,
		"entity", ref.contentType+"/"+ref.contentSlug,
		"max_visitors", maxVisitors)
}

// UniqueVisitors returns the number of distinct visitors counted against an
// experiment. Prefers the live set; falls back to the persisted array when
// no set was built for that slug.
func (t *Tracker) UniqueVisitors(experimentSlug string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if set, ok := t.seen[experimentSlug]; ok {
		return len(set)
	}
	return len(t.state.Visitors[experimentSlug])
}

// VariantCounts returns a copy of the per-variant exposure counts.
func (t *Tracker) VariantCounts(experimentSlug string) map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[string]int, len(t.state.Counts[experimentSlug]))
	for variant, n := range t.state.Counts[experimentSlug] {
		counts[variant] = n
	}
	return counts
}

// ExperimentStats is the aggregate view of one experiment's counters.
type ExperimentStats struct {
	ExperimentSlug string         `json:"experiment_slug"`
	ContentType    string         `json:"content_type,omitempty"`
	ContentSlug    string         `json:"content_slug,omitempty"`
	UniqueVisitors int            `json:"unique_visitors"`
	VariantCounts  map[string]int `json:"variant_counts"`
}

// Stats returns the aggregate view across every experiment the tracker has
// seen, combining live sets and persisted state.
func (t *Tracker) Stats() []ExperimentStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	slugs := make(map[string]bool)
	for slug := range t.seen {
		slugs[slug] = true
	}
	for slug := range t.state.Visitors {
		slugs[slug] = true
	}
	for slug := range t.state.Counts {
		slugs[slug] = true
	}

	var out []ExperimentStats
	for slug := range slugs {
		st := ExperimentStats{
			ExperimentSlug: slug,
			VariantCounts:  make(map[string]int, len(t.state.Counts[slug])),
		}
		if set, ok := t.seen[slug]; ok {
			st.UniqueVisitors = len(set)
		} else {
			st.UniqueVisitors = len(t.state.Visitors[slug])
		}
		for variant, n := range t.state.Counts[slug] {
			st.VariantCounts[variant] = n
		}
		if ref, ok := t.entities[slug]; ok {
			st.ContentType = ref.contentType
			st.ContentSlug = ref.contentSlug
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExperimentSlug < out[j].ExperimentSlug })
	return out
}
