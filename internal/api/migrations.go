package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/beesaferoot/rentledger/models"
)

type migrationStateResponse struct {
	Key         string                 `json:"key"`
	Status      models.MigrationStatus `json:"status"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	LastError   string                 `json:"last_error,omitempty"`
}

func (s *Server) handleGetMigration(w http.ResponseWriter, r *http.Request) {
	state, err := s.runner.State(r.Context(), userFrom(r.Context()), chi.URLParam(r, "key"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, migrationStateResponse{
		Key:         state.MigrationKey,
		Status:      state.Status,
		StartedAt:   state.StartedAt,
		CompletedAt: state.CompletedAt,
		LastError:   state.LastError,
	})
}

// handleCheckMigrations is the post-login hook: it advances every registered
// migration through the automatic state machine.
func (s *Server) handleCheckMigrations(w http.ResponseWriter, r *http.Request) {
	results, err := s.runner.Up(r.Context(), userFrom(r.Context()), s.currentMonth())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleRunMigration applies a migration regardless of its stored state.
func (s *Server) handleRunMigration(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.RunManual(r.Context(), userFrom(r.Context()), chi.URLParam(r, "key"), s.currentMonth())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
