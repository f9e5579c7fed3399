package tracking

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pagecraft/pagecraft/internal/config"
)

func newTestTracker(t *testing.T) (*Tracker, string) {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "pages", "pricing")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create entity dir: %v", err)
	}
	body := `experiments:
  - slug: hero-copy
    status: active
    max_visitors: 3
    variants:
      - slug: ctrl
        allocation: 50
        version: 1
      - slug: exp
        allocation: 50
        version: 2
`
	if err := os.WriteFile(filepath.Join(dir, "experiments.yml"), []byte(body), 0644); err != nil {
		t.Fatalf("failed to write experiments file: %v", err)
	}

	statePath := filepath.Join(t.TempDir(), "state.json")
	store := config.NewStore(root, nil)
	return New(statePath, store, nil), statePath
}

func TestRecordExposure_IdempotentPerVisitor(t *testing.T) {
	tr, _ := newTestTracker(t)

	if !tr.RecordExposure("hero-copy", "ctrl", "visitor-1", "pages", "pricing", 0) {
		t.Fatal("first exposure should be new")
	}
	if tr.RecordExposure("hero-copy", "ctrl", "visitor-1", "pages", "pricing", 0) {
		t.Error("second exposure of the same visitor should not be new")
	}

	if n := tr.UniqueVisitors("hero-copy"); n != 1 {
		t.Errorf("unique visitors = %d, want 1", n)
	}
	if counts := tr.VariantCounts("hero-copy"); counts["ctrl"] != 1 {
		t.Errorf("ctrl count = %d, want 1", counts["ctrl"])
	}
}

func TestRecordExposure_DistinctVisitors(t *testing.T) {
	tr, _ := newTestTracker(t)

	tr.RecordExposure("hero-copy", "ctrl", "visitor-1", "pages", "pricing", 0)
	tr.RecordExposure("hero-copy", "exp", "visitor-2", "pages", "pricing", 0)
	tr.RecordExposure("hero-copy", "ctrl", "visitor-3", "pages", "pricing", 0)

	if n := tr.UniqueVisitors("hero-copy"); n != 3 {
		t.Errorf("unique visitors = %d, want 3", n)
	}
	counts := tr.VariantCounts("hero-copy")
	if counts["ctrl"] != 2 || counts["exp"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRecordExposure_AutoStopArchivesExperiment(t *testing.T) {
	tr, _ := newTestTracker(t)

	tr.RecordExposure("hero-copy", "ctrl", "v1", "pages", "pricing", 3)
	tr.RecordExposure("hero-copy", "ctrl", "v2", "pages", "pricing", 3)
	tr.RecordExposure("hero-copy", "exp", "v3", "pages", "pricing", 3)

	ef, err := tr.store.Load("pages", "pricing")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	exp := ef.Experiments[0]
	if exp.Status != config.StatusArchived {
		t.Errorf("status = %s, want archived", exp.Status)
	}
	if !exp.AutoStopped {
		t.Error("auto_stopped flag not set")
	}
	if !strings.Contains(exp.Description, "Auto-stopped") {
		t.Errorf("description lacks the auto-stop note: %q", exp.Description)
	}
}

func TestRecordExposure_RawIDsNeverPersisted(t *testing.T) {
	tr, statePath := newTestTracker(t)

	const rawID = "very-identifiable-session-id"
	tr.RecordExposure("hero-copy", "ctrl", rawID, "pages", "pricing", 0)
	if err := tr.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("failed to read state file: %v", err)
	}
	if strings.Contains(string(data), rawID) {
		t.Error("raw visitor id leaked into the state file")
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if len(st.Visitors["hero-copy"]) != 1 {
		t.Errorf("persisted visitors = %v", st.Visitors)
	}
	if st.LastFlushed.IsZero() {
		t.Error("last_flushed not set")
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	tr, statePath := newTestTracker(t)

	tr.RecordExposure("hero-copy", "ctrl", "v1", "pages", "pricing", 0)
	tr.RecordExposure("hero-copy", "exp", "v2", "pages", "pricing", 0)
	if err := tr.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	// A fresh tracker over the same state file rebuilds the dedup sets from
	// the persisted arrays.
	reborn := New(statePath, tr.store, nil)
	if n := reborn.UniqueVisitors("hero-copy"); n != 2 {
		t.Errorf("unique visitors after restart = %d, want 2", n)
	}
	if reborn.RecordExposure("hero-copy", "ctrl", "v1", "pages", "pricing", 0) {
		t.Error("visitor counted before restart was counted again")
	}
	counts := reborn.VariantCounts("hero-copy")
	if counts["ctrl"] != 1 || counts["exp"] != 1 {
		t.Errorf("counts after restart = %v", counts)
	}
}

func TestCorruptStateFallsBackToEmpty(t *testing.T) {
	tr, statePath := newTestTracker(t)
	_ = tr

	if err := os.WriteFile(statePath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to corrupt state file: %v", err)
	}

	fresh := New(statePath, tr.store, nil)
	if n := fresh.UniqueVisitors("hero-copy"); n != 0 {
		t.Errorf("corrupt state should start empty, got %d visitors", n)
	}
	// And it keeps working.
	if !fresh.RecordExposure("hero-copy", "ctrl", "v1", "pages", "pricing", 0) {
		t.Error("tracker unusable after corrupt state load")
	}
}

func TestStats_Aggregate(t *testing.T) {
	tr, _ := newTestTracker(t)

	tr.RecordExposure("hero-copy", "ctrl", "v1", "pages", "pricing", 0)
	tr.RecordExposure("cta-color", "blue", "v1", "pages", "pricing", 0)
	tr.RecordExposure("cta-color", "blue", "v2", "pages", "pricing", 0)

	stats := tr.Stats()
	if len(stats) != 2 {
		t.Fatalf("expected 2 experiments in stats, got %d", len(stats))
	}
	// Sorted by slug: cta-color first.
	if stats[0].ExperimentSlug != "cta-color" || stats[0].UniqueVisitors != 2 {
		t.Errorf("cta-color stats wrong: %+v", stats[0])
	}
	if stats[0].VariantCounts["blue"] != 2 {
		t.Errorf("blue count = %d, want 2", stats[0].VariantCounts["blue"])
	}
	if stats[1].ExperimentSlug != "hero-copy" || stats[1].ContentType != "pages" {
		t.Errorf("hero-copy stats wrong: %+v", stats[1])
	}
}

func TestStartFlusher_FinalFlushOnStop(t *testing.T) {
	tr, statePath := newTestTracker(t)

	stop := tr.StartFlusher(time.Hour)
	tr.RecordExposure("hero-copy", "ctrl", "v1", "pages", "pricing", 0)
	stop()

	data, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("state file missing after stop: %v", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("state file invalid: %v", err)
	}
	if st.Counts["hero-copy"]["ctrl"] != 1 {
		t.Errorf("counts not flushed: %v", st.Counts)
	}
}

func TestDigest_StableAndOneWay(t *testing.T) {
	a := digest("session-1")
	b := digest("session-1")
	c := digest("session-2")

	if a != b {
		t.Error("digest must be stable for the same id")
	}
	if a == c {
		t.Error("distinct ids should not collide in a sane test fixture")
	}
	if len(a) != 16 {
		t.Errorf("digest length = %d, want 16 hex chars", len(a))
	}
	if strings.Contains(a, "session") {
		t.Error("digest leaks the raw id")
	}
}
