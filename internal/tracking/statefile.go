package tracking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// State is the persisted counter snapshot. Counters are best-effort
// telemetry: losing the tail since the last flush is an accepted tradeoff,
// so load failures fall back to empty state instead of failing startup.
type State struct {
	Counts      map[string]map[string]int `json:"counts"`
	Visitors    map[string][]string       `json:"visitors"`
	LastFlushed time.Time                 `json:"last_flushed"`
}

func newState() *State {
	return &State{
		Counts:   make(map[string]map[string]int),
		Visitors: make(map[string][]string),
	}
}

func loadState(path string, logger *slog.Logger) *State {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("state file unreadable, starting empty", "path", path, "error", err)
		}
		return newState()
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		logger.Warn("state file corrupt, starting empty", "path", path, "error", err)
		return newState()
	}
	if st.Counts == nil {
		st.Counts = make(map[string]map[string]int)
	}
	if st.Visitors == nil {
		st.Visitors = make(map[string][]string)
	}
	return &st
}

// Flush serializes the full state and replaces the state file. Safe to call
// concurrently with RecordExposure.
func (t *Tracker) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushLocked()
}

// flushLocked writes the state file via temp+rename so the on-disk snapshot
// is always a complete document, even if the process dies mid-write. Caller
// holds t.mu.
func (t *Tracker) flushLocked() error {
	t.state.LastFlushed = time.Now().UTC()

	data, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// StartFlusher flushes the state on a fixed interval until the returned stop
// function is called. The stop function performs a final flush. Write
// failures are logged and retried on the next tick.
func (t *Tracker) StartFlusher(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := t.Flush(); err != nil {
					t.logger.Error("periodic flush failed", "error", err)
				}
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
		if err := t.Flush(); err != nil {
			t.logger.Error("shutdown flush failed", "error", err)
		}
	}
}
