package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Content file naming convention inside an entity folder:
//
//	{locale}.yml                          promoted baseline
//	{variant-slug}.v{version}.{locale}.yml  named variant revision
var variantFileRe = regexp.MustCompile(`^([a-z0-9-]+)\.v(\d+)\.([a-z]{2}(?:-[a-z]{2})?)\.yml$`)

var baselineFileRe = regexp.MustCompile(`^([a-z]{2}(?:-[a-z]{2})?)\.yml$`)

// VariantFiles enumerates the content files of one entity folder and parses
// the naming convention into metadata. This is informational for editor
// tooling only; bucketing never reads content files.
func (s *Store) VariantFiles(contentType, contentSlug string) ([]VariantFile, error) {
	dir := s.entityDir(contentType, contentSlug)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read entity folder: %w", err)
	}

	var files []VariantFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}
		if entry.Name() == experimentsFileName {
			continue
		}

		vf, ok := parseVariantFileName(entry.Name())
		if !ok {
			continue
		}
		if info, err := entry.Info(); err == nil {
			vf.ModifiedAt = info.ModTime()
		}
		files = append(files, vf)
	}
	return files, nil
}

func parseVariantFileName(name string) (VariantFile, bool) {
	if m := baselineFileRe.FindStringSubmatch(name); m != nil {
		return VariantFile{Name: name, Locale: m[1], Baseline: true}, true
	}
	if m := variantFileRe.FindStringSubmatch(name); m != nil {
		version, err := strconv.Atoi(m[2])
		if err != nil || version < 1 {
			return VariantFile{}, false
		}
		return VariantFile{
			Name:        name,
			VariantSlug: m[1],
			Version:     version,
			Locale:      m[3],
		}, true
	}
	return VariantFile{}, false
}
