// Package engine selects at most one experiment and variant for a visitor
// on a content entity. Selection is deterministic for a fixed visitor and
// experiment definition; counters never influence it.
package engine

import (
	"errors"
	"log/slog"
	"time"

	"github.com/pagecraft/pagecraft/internal/config"
	"github.com/pagecraft/pagecraft/internal/tracking"
)

// VisitorContext is the per-request view of a visitor, derived upstream
// from headers, cookies, and geo lookup. Optional fields are empty strings
// when unknown.
type VisitorContext struct {
	SessionID   string `json:"session_id"`
	Region      string `json:"region,omitempty"`
	Country     string `json:"country,omitempty"`
	Language    string `json:"language,omitempty"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	Device      string `json:"device,omitempty"`
	Hour        int    `json:"hour"`
	DayOfWeek   int    `json:"day_of_week"`
}

// Assignment is the immutable decision for one visitor/experiment pair. The
// caller round-trips it (in a signed identity token it owns) so repeat
// visits reuse it without re-bucketing.
type Assignment struct {
	ExperimentSlug string    `json:"experiment_slug"`
	VariantSlug    string    `json:"variant_slug"`
	VariantVersion int       `json:"variant_version"`
	AssignedAt     time.Time `json:"assigned_at"`
}

type Engine struct {
	store   *config.Store
	tracker *tracking.Tracker
	logger  *slog.Logger
}

func New(store *config.Store, tracker *tracking.Tracker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   store,
		tracker: tracker,
		logger:  logger.With("component", "engine"),
	}
}

// Assign picks at most one experiment for the visitor on the given content
// entity and returns the variant decision, or nil when no experiment
// applies. Configuration problems degrade to nil: a broken experiments file
// must never block content from rendering.
func (e *Engine) Assign(contentType, contentSlug string, ctx VisitorContext, existing []Assignment) *Assignment {
	ef, err := e.store.Load(contentType, contentSlug)
	if err != nil {
		if !errors.Is(err, config.ErrNotFound) {
			e.logger.Warn("experiments unavailable, running none",
				"entity", contentType+"/"+contentSlug, "error", err)
		}
		return nil
	}

	for i := range ef.Experiments {
		exp := &ef.Experiments[i]
		if exp.Status != config.StatusActive {
			continue
		}
		if exp.MaxVisitors > 0 && e.tracker.UniqueVisitors(exp.Slug) >= exp.MaxVisitors {
			continue
		}
		if !matches(exp.Targeting, ctx) {
			continue
		}

		// First eligible experiment wins; the rest are never evaluated.
		assignment := previousAssignment(existing, exp.Slug)
		if assignment == nil {
			variant := bucket(ctx.SessionID, exp.Slug, exp.Variants)
			assignment = &Assignment{
				ExperimentSlug: exp.Slug,
				VariantSlug:    variant.Slug,
				VariantVersion: variant.Version,
				AssignedAt:     time.Now().UTC(),
			}
		}

		e.tracker.RecordExposure(exp.Slug, assignment.VariantSlug, ctx.SessionID,
			contentType, contentSlug, exp.MaxVisitors)
		return assignment
	}
	return nil
}

func previousAssignment(existing []Assignment, experimentSlug string) *Assignment {
	for i := range existing {
		if existing[i].ExperimentSlug == experimentSlug {
			prev := existing[i]
			return &prev
		}
	}
	return nil
}
