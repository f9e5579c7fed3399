package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestVariantFiles(t *testing.T) {
	s := newTestStore(t)
	dir := filepath.Join(s.Root(), "pages", "pricing")

	for _, name := range []string{
		"es.yml",            // baseline
		"en-us.yml",         // baseline, regional locale
		"exp.v2.es.yml",     // named variant
		"ctrl.v1.en-us.yml", // named variant, regional locale
		"notes.txt",         // ignored
		"Exp.v2.es.yml",     // ignored, bad casing
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("title: x\n"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	files, err := s.VariantFiles("pages", "pricing")
	if err != nil {
		t.Fatalf("variant files failed: %v", err)
	}

	byName := make(map[string]VariantFile, len(files))
	for _, f := range files {
		byName[f.Name] = f
	}

	if len(files) != 4 {
		t.Fatalf("expected 4 files, got %d: %v", len(files), byName)
	}
	if f := byName["es.yml"]; !f.Baseline || f.Locale != "es" {
		t.Errorf("es.yml parsed wrong: %+v", f)
	}
	if f := byName["exp.v2.es.yml"]; f.Baseline || f.VariantSlug != "exp" || f.Version != 2 || f.Locale != "es" {
		t.Errorf("exp.v2.es.yml parsed wrong: %+v", f)
	}
	if f := byName["ctrl.v1.en-us.yml"]; f.VariantSlug != "ctrl" || f.Locale != "en-us" {
		t.Errorf("ctrl.v1.en-us.yml parsed wrong: %+v", f)
	}
	if _, ok := byName["experiments.yml"]; ok {
		t.Error("experiments.yml must not be listed as a variant file")
	}
}

func TestVariantFiles_MissingEntity(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.VariantFiles("pages", "nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
