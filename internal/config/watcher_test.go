package config

import (
	"testing"
	"time"
)

func TestWatcher_InvalidatesOnExternalEdit(t *testing.T) {
	s := newTestStore(t)

	w, err := s.Watch()
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	defer w.Close()

	if _, err := s.Load("pages", "pricing"); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// External edit: empty the experiment list behind the cache.
	writeExperiments(t, s.Root(), "pages", "pricing", `experiments: []`)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		ef, err := s.Load("pages", "pricing")
		if err == nil && len(ef.Experiments) == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("cache was not invalidated after external edit")
}
