package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pagecraft/pagecraft/internal/config"
	"github.com/pagecraft/pagecraft/internal/tracking"
)

// handleStats returns the counter view across all experiments.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.tracker.Stats()
	if stats == nil {
		stats = []tracking.ExperimentStats{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// ExtendedStats joins counters with the current experiment definition so
// editor tooling sees status, cap, and allocations next to the numbers.
type ExtendedStats struct {
	tracking.ExperimentStats
	Status      config.Status    `json:"status,omitempty"`
	MaxVisitors int              `json:"max_visitors,omitempty"`
	AutoStopped bool             `json:"auto_stopped,omitempty"`
	Variants    []config.Variant `json:"variants,omitempty"`
}

func (s *Server) handleExtendedStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	extended := []ExtendedStats{}
	for _, st := range s.tracker.Stats() {
		ext := ExtendedStats{ExperimentStats: st}
		if st.ContentType != "" {
			if ef, err := s.store.Load(st.ContentType, st.ContentSlug); err == nil {
				for i := range ef.Experiments {
					if ef.Experiments[i].Slug == st.ExperimentSlug {
						exp := ef.Experiments[i]
						ext.Status = exp.Status
						ext.MaxVisitors = exp.MaxVisitors
						ext.AutoStopped = exp.AutoStopped
						ext.Variants = exp.Variants
						break
					}
				}
			}
		}
		extended = append(extended, ext)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(extended)
}

// handleExperiments returns the validated experiments file for one entity.
func (s *Server) handleExperiments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contentType := r.URL.Query().Get("content_type")
	contentSlug := r.URL.Query().Get("content_slug")
	if contentType == "" || contentSlug == "" {
		http.Error(w, "content_type and content_slug parameters required", http.StatusBadRequest)
		return
	}

	ef, err := s.store.Load(contentType, contentSlug)
	if err != nil {
		writeConfigError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ef)
}

// UpdateRequest is the editor-tooling patch envelope for one experiment.
type UpdateRequest struct {
	ContentType    string       `json:"content_type"`
	ContentSlug    string       `json:"content_slug"`
	ExperimentSlug string       `json:"experiment_slug"`
	Patch          config.Patch `json:"patch"`
}

func (s *Server) handleExperimentUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ContentType == "" || req.ContentSlug == "" || req.ExperimentSlug == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	merged, err := s.store.Update(req.ContentType, req.ContentSlug, req.ExperimentSlug, req.Patch)
	if err != nil {
		writeConfigError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(merged)
}

// handleVariants enumerates the content files of one entity folder.
func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contentType := r.URL.Query().Get("content_type")
	contentSlug := r.URL.Query().Get("content_slug")
	if contentType == "" || contentSlug == "" {
		http.Error(w, "content_type and content_slug parameters required", http.StatusBadRequest)
		return
	}

	files, err := s.store.VariantFiles(contentType, contentSlug)
	if err != nil {
		writeConfigError(w, err)
		return
	}
	if files == nil {
		files = []config.VariantFile{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

// writeConfigError maps the config error taxonomy onto admin HTTP statuses.
// These surface synchronously to editor tooling; the visitor path never
// sees them.
func writeConfigError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, config.ErrNotFound), errors.Is(err, config.ErrExperimentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, config.ErrAllocationInvalid), errors.Is(err, config.ErrValidationFailed),
		errors.Is(err, config.ErrConfigInvalid):
		status = http.StatusUnprocessableEntity
	}
	http.Error(w, err.Error(), status)
}
