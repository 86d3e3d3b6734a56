package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/harborline/motorsync/pkg/types"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
	defaultRunLimit = 50
)

// handlePreview runs a preview reconciliation and returns the resulting diff.
// GET /api/preview
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	result, err := s.reconciler.Run(r.Context(), types.ModePreview)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// reviewListResponse is the paginated review queue payload.
type reviewListResponse struct {
	Entries []types.ReviewEntry `json:"entries"`
	Total   int                 `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
}

// handleReviewList lists review entries, pending by default.
// GET /api/review?status=pending&page=1&per_page=25
func (s *Server) handleReviewList(w http.ResponseWriter, r *http.Request) {
	status := types.ReviewStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = types.ReviewPending
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt(r, "per_page", defaultPageSize)
	if perPage < 1 || perPage > maxPageSize {
		perPage = defaultPageSize
	}

	entries, err := s.store.ListReviewEntries(r.Context(), status, perPage, (page-1)*perPage)
	if err != nil {
		s.respondError(w, err)
		return
	}
	total, err := s.store.CountReviewEntries(r.Context(), status)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, reviewListResponse{
		Entries: entries,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// approveRequest optionally picks a candidate other than the top-scored one.
type approveRequest struct {
	MotorID int64 `json:"motor_id,omitempty"`
}

// handleReviewApprove adjudicates an entry as a confirmed match.
// POST /api/review/{id}/approve
func (s *Server) handleReviewApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req approveRequest
	if body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16)); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	entry, err := s.reconciler.Approve(r.Context(), id, req.MotorID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

// handleReviewReject adjudicates an entry as not-a-match.
// POST /api/review/{id}/reject
func (s *Server) handleReviewReject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.reconciler.Reject(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

// handleRuns returns the sync run log, newest first.
// GET /api/runs?limit=50
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultRunLimit)
	if limit < 1 || limit > 500 {
		limit = defaultRunLimit
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleMotors returns the canonical catalog.
// GET /api/motors
func (s *Server) handleMotors(w http.ResponseWriter, r *http.Request) {
	motors, err := s.store.ListMotors(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"motors": motors})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
