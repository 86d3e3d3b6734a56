// Package server exposes the review workflow over HTTP: preview runs, the
// pending review queue with approve/reject adjudication, and the sync run
// log. Responses are JSON. There is no authentication layer.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	pkgerrors "github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/reconcile"
	"github.com/harborline/motorsync/pkg/types"
)

// ReviewStore is the persistence surface the HTTP handlers read from.
// *store.Store satisfies it.
type ReviewStore interface {
	ListReviewEntries(ctx context.Context, status types.ReviewStatus, limit, offset int) ([]types.ReviewEntry, error)
	CountReviewEntries(ctx context.Context, status types.ReviewStatus) (int, error)
	ListRuns(ctx context.Context, limit int) ([]types.SyncRun, error)
	ListMotors(ctx context.Context) ([]types.Motor, error)
}

// Server serves the review API.
type Server struct {
	store      ReviewStore
	reconciler *reconcile.Reconciler
	logger     zerolog.Logger
	http       *http.Server
}

// New creates a Server listening on addr.
func New(addr string, store ReviewStore, reconciler *reconcile.Reconciler, logger zerolog.Logger) *Server {
	s := &Server{
		store:      store,
		reconciler: reconciler,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/preview", s.handlePreview)
		r.Get("/review", s.handleReviewList)
		r.Post("/review/{id}/approve", s.handleReviewApprove)
		r.Post("/review/{id}/reject", s.handleReviewReject)
		r.Get("/runs", s.handleRuns)
		r.Get("/motors", s.handleMotors)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving requests until the context is canceled, then
// drains in-flight requests before returning.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("Review API listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError maps domain errors onto HTTP status codes.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var validationErr *pkgerrors.ValidationError
	switch {
	case pkgerrors.IsNotFound(err):
		status = http.StatusNotFound
	case stderrors.As(err, &validationErr):
		status = http.StatusBadRequest
	case pkgerrors.IsSourceUnavailable(err), pkgerrors.IsTimeout(err):
		status = http.StatusBadGateway
	}
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}
