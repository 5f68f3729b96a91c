package balance

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/beesaferoot/rentledger/accrual"
	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

// Source computes a tenant's balance for a month. Two implementations
// exist: the accrual formula and the charge ledger.
type Source interface {
	Balance(ctx context.Context, tenant models.Tenant, month period.Month) (Result, error)
}

const (
	SourceFormula = "formula"
	SourceLedger  = "ledger"
)

// PaymentLister reads payments up to and including a month.
type PaymentLister interface {
	ListPaymentsThrough(ctx context.Context, tenantID uint, month period.Month) ([]models.Payment, error)
}

// ChargeSummer totals charges up to and including a month.
type ChargeSummer interface {
	SumCharges(ctx context.Context, tenantID uint, through period.Month) (decimal.Decimal, error)
}

// LedgerReader is what the ledger-backed source needs.
type LedgerReader interface {
	PaymentLister
	ChargeSummer
}

// NewSource returns the source named kind ("formula" or "ledger").
func NewSource(kind string, store LedgerReader) (Source, error) {
	switch kind {
	case "", SourceFormula:
		return &FormulaSource{Payments: store}, nil
	case SourceLedger:
		return &LedgerSource{Ledger: store}, nil
	default:
		return nil, fmt.Errorf("unknown balance source %q", kind)
	}
}

// FormulaSource derives expected billing from the tenant's billing fields.
type FormulaSource struct {
	Payments PaymentLister
}

func (s *FormulaSource) Balance(ctx context.Context, tenant models.Tenant, month period.Month) (Result, error) {
	payments, err := s.Payments.ListPaymentsThrough(ctx, tenant.ID, month)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list payments for tenant %d: %w", tenant.ID, err)
	}
	res := Resolve(Input{
		Month:       month,
		MonthlyRent: tenant.RentAmount,
		Accrual:     accrual.Cumulative(accrual.ParamsFromTenant(tenant), month),
		Payments:    payments,
	})
	res.TenantID = tenant.ID
	return res, nil
}

// LedgerSource derives expected billing from charge rows.
type LedgerSource struct {
	Ledger LedgerReader
}

func (s *LedgerSource) Balance(ctx context.Context, tenant models.Tenant, month period.Month) (Result, error) {
	params := accrual.ParamsFromTenant(tenant)
	notYetDue := month.Before(params.LeaseMonth(month))

	charged := decimal.Zero
	if !notYetDue {
		var err error
		charged, err = s.Ledger.SumCharges(ctx, tenant.ID, month)
		if err != nil {
			return Result{}, fmt.Errorf("failed to sum charges for tenant %d: %w", tenant.ID, err)
		}
	}

	payments, err := s.Ledger.ListPaymentsThrough(ctx, tenant.ID, month)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list payments for tenant %d: %w", tenant.ID, err)
	}

	res := Resolve(Input{
		Month:       month,
		MonthlyRent: tenant.RentAmount,
		Accrual:     accrual.Result{Month: month, NotYetDue: notYetDue, Expected: charged},
		Payments:    payments,
	})
	res.TenantID = tenant.ID
	return res, nil
}
