// Package balance nets expected billing against payments and classifies the
// result as paid, partial, unpaid or overpaid.
package balance

import (
	"github.com/shopspring/decimal"

	"github.com/beesaferoot/rentledger/accrual"
	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

type Status string

const (
	StatusPaid     Status = "paid"
	StatusPartial  Status = "partial"
	StatusUnpaid   Status = "unpaid"
	StatusOverpaid Status = "overpaid"
)

// PaidTolerance is the largest positive balance still reported as paid.
var PaidTolerance = decimal.NewFromInt(10)

// Input is everything Resolve needs. Payments may include months after
// Month; those are ignored.
type Input struct {
	Month       period.Month
	MonthlyRent decimal.Decimal
	Accrual     accrual.Result
	Payments    []models.Payment
}

// Result is a tenant's position for one month. Balance > 0 is arrears,
// Balance < 0 is credit.
type Result struct {
	TenantID       uint            `json:"tenant_id"`
	Month          period.Month    `json:"month"`
	NotYetDue      bool            `json:"not_yet_due"`
	Expected       decimal.Decimal `json:"expected"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	Balance        decimal.Decimal `json:"balance"`
	PaidThisPeriod decimal.Decimal `json:"paid_this_period"`
	Status         Status          `json:"status"`
}

// Resolve computes the balance and status for in.Month. It is pure.
func Resolve(in Input) Result {
	totalPaid := decimal.Zero
	paidThisPeriod := decimal.Zero
	for _, p := range in.Payments {
		if p.PaymentMonth.After(in.Month) {
			continue
		}
		totalPaid = totalPaid.Add(p.Amount)
		if p.PaymentMonth == in.Month {
			paidThisPeriod = paidThisPeriod.Add(p.Amount)
		}
	}

	expected := in.Accrual.Expected
	if in.Accrual.NotYetDue {
		expected = decimal.Zero
	}
	bal := Round(expected.Sub(totalPaid))

	return Result{
		Month:          in.Month,
		NotYetDue:      in.Accrual.NotYetDue,
		Expected:       Round(expected),
		TotalPaid:      totalPaid,
		Balance:        bal,
		PaidThisPeriod: paidThisPeriod,
		Status:         Classify(bal, in.MonthlyRent, in.Accrual.NotYetDue),
	}
}

// Classify applies the status rules to an already rounded balance.
func Classify(bal, monthlyRent decimal.Decimal, notYetDue bool) Status {
	switch {
	case notYetDue:
		return StatusPaid
	case bal.IsNegative():
		return StatusOverpaid
	case bal.LessThanOrEqual(PaidTolerance):
		return StatusPaid
	case bal.LessThan(monthlyRent):
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// Round is the single rounding point for money shown or compared: nearest
// whole currency unit, halves rounded up, so -0.5 becomes 0 and 0.5 becomes 1.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

var half = decimal.New(5, -1)
