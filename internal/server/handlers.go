package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pagecraft/pagecraft/internal/engine"
)

type HealthResponse struct {
	Status        string `json:"status"`
	EntitiesCount int    `json:"entities_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entities, err := s.store.Entities()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := HealthResponse{
		Status:        "ok",
		EntitiesCount: len(entities),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// AssignRequest carries the content entity, the visitor context derived by
// the caller, and any previously stored assignments round-tripped from the
// caller's identity token.
type AssignRequest struct {
	ContentType string                `json:"content_type"`
	ContentSlug string                `json:"content_slug"`
	Context     engine.VisitorContext `json:"context"`
	Assignments []engine.Assignment   `json:"assignments"`
}

type AssignResponse struct {
	SessionID  string             `json:"session_id"`
	Assignment *engine.Assignment `json:"assignment"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ContentType == "" || req.ContentSlug == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	// The identity provider normally supplies the session id; mint one for
	// callers that arrive without it so bucketing stays stable from the
	// first response onward.
	if req.Context.SessionID == "" {
		if sid := r.Header.Get("X-Session-ID"); sid != "" {
			req.Context.SessionID = sid
		} else {
			req.Context.SessionID = uuid.NewString()
		}
	}

	// Assign never fails visitor-facing: config problems mean no experiment.
	assignment := s.engine.Assign(req.ContentType, req.ContentSlug, req.Context, req.Assignments)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AssignResponse{
		SessionID:  req.Context.SessionID,
		Assignment: assignment,
	})
}
