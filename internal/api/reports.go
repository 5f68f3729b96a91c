package api

import "net/http"

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}
	rep, err := s.reports.Monthly(r.Context(), userFrom(r.Context()), month)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
