package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

type chargeResponse struct {
	ID     uint              `json:"id"`
	Month  period.Month      `json:"month"`
	Type   models.ChargeType `json:"type"`
	Amount decimal.Decimal   `json:"amount"`
	Note   string            `json:"note,omitempty"`
}

// ownedTenant loads the tenant named in the path if the caller owns it.
// Tenants of other users are reported as not found.
func (s *Server) ownedTenant(w http.ResponseWriter, r *http.Request) (*models.Tenant, bool) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return nil, false
	}
	owned, err := s.store.TenantOwnedBy(r.Context(), id, userFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, err)
		return nil, false
	}
	if !owned {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "tenant not found")
		return nil, false
	}
	tenant, err := s.store.GetTenant(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return nil, false
	}
	return tenant, true
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}
	tenant, ok := s.ownedTenant(w, r)
	if !ok {
		return
	}

	res, err := s.balances.Balance(r.Context(), *tenant, month)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListCharges(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.ownedTenant(w, r)
	if !ok {
		return
	}

	charges, err := s.store.ListCharges(r.Context(), tenant.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]chargeResponse, 0, len(charges))
	for _, c := range charges {
		out = append(out, chargeResponse{ID: c.ID, Month: c.ChargeMonth, Type: c.Type, Amount: c.Amount, Note: c.Note})
	}
	writeJSON(w, http.StatusOK, out)
}

var _ Store = (*ledger.Store)(nil)
