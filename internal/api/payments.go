package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/period"
)

type paymentRequest struct {
	TenantID     uint   `json:"tenant_id" validate:"required"`
	Amount       string `json:"amount" validate:"required,numeric"`
	PaymentDate  string `json:"payment_date" validate:"required,datetime=2006-01-02"`
	PaymentMonth string `json:"payment_month" validate:"omitempty,month"`
	MpesaCode    string `json:"mpesa_code" validate:"omitempty,alphanum,max=32"`
	Note         string `json:"note" validate:"max=500"`
}

type allocationResponse struct {
	Month  period.Month    `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

type paymentResponse struct {
	PaymentID    uint                 `json:"payment_id"`
	Amount       decimal.Decimal      `json:"amount"`
	PaymentMonth period.Month         `json:"payment_month"`
	Allocations  []allocationResponse `json:"allocations"`
	Credit       decimal.Decimal      `json:"credit"`
}

// handleRecordPayment stores a payment and allocates it to the oldest
// outstanding months.
func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err))
		return
	}

	owned, err := s.store.TenantOwnedBy(r.Context(), req.TenantID, userFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !owned {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "tenant not found")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "amount is not a number")
		return
	}
	date, err := time.Parse("2006-01-02", req.PaymentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	in := ledger.PaymentInput{
		TenantID:    req.TenantID,
		Amount:      amount,
		PaymentDate: date,
		MpesaCode:   req.MpesaCode,
		Note:        req.Note,
	}
	if req.PaymentMonth != "" {
		in.PaymentMonth = period.MustParse(req.PaymentMonth)
	}

	res, err := s.store.RecordPayment(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	out := paymentResponse{
		PaymentID:    res.Payment.ID,
		Amount:       res.Payment.Amount,
		PaymentMonth: res.Payment.PaymentMonth,
		Allocations:  make([]allocationResponse, 0, len(res.Allocations)),
		Credit:       res.Credit,
	}
	for _, a := range res.Allocations {
		out.Allocations = append(out.Allocations, allocationResponse{Month: a.AppliedMonth, Amount: a.Amount})
	}
	writeJSON(w, http.StatusCreated, out)
}
