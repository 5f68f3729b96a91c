package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/migration"
	"github.com/beesaferoot/rentledger/period"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	const maxBytes = 1 << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeServiceError maps package sentinels to HTTP responses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, migration.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "NOT_AUTHENTICATED", err.Error())
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, migration.ErrUnknownMigration):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, period.ErrInvalidMonth):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ledger.ErrAlreadyAllocated), errors.Is(err, ledger.ErrDuplicateCharge):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	default:
		s.log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

type userKey struct{}

// requireUser rejects requests without a numeric X-User-ID header.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil || id == 0 {
			writeError(w, http.StatusUnauthorized, "NOT_AUTHENTICATED", "X-User-ID header is required")
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, uint(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(ctx context.Context) uint {
	id, _ := ctx.Value(userKey{}).(uint)
	return id
}

// monthParam reads ?month=YYYY-MM, defaulting to the current month.
func (s *Server) monthParam(w http.ResponseWriter, r *http.Request) (period.Month, bool) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return s.currentMonth(), true
	}
	m, err := period.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MONTH", err.Error())
		return period.Month{}, false
	}
	return m, true
}

func parseID(w http.ResponseWriter, raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid id: "+raw)
		return 0, false
	}
	return uint(id), true
}
