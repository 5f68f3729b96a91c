// Package accrual computes how much rent should have been billed to a tenant
// from lease start through a target month, ignoring payments.
package accrual

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

// Params are a tenant's billing parameters.
type Params struct {
	MonthlyRent    decimal.Decimal
	LeaseStart     time.Time // zero when unknown
	OpeningBalance decimal.Decimal
	IsProrated     bool
	// FirstMonthOverride, when valid, replaces the computed first-month charge.
	FirstMonthOverride decimal.NullDecimal
}

// ParamsFromTenant reads the billing parameters off a tenant row.
func ParamsFromTenant(t models.Tenant) Params {
	p := Params{
		MonthlyRent:        t.RentAmount,
		OpeningBalance:     t.OpeningBalance,
		IsProrated:         t.IsProrated,
		FirstMonthOverride: t.FirstMonthOverride,
	}
	if t.LeaseStart != nil {
		p.LeaseStart = *t.LeaseStart
	}
	return p
}

// Result is the cumulative billing for a target month. Expected is not
// rounded; rounding belongs to the balance resolver.
type Result struct {
	Month            period.Month
	NotYetDue        bool
	FirstMonthCharge decimal.Decimal
	FullMonths       int
	Expected         decimal.Decimal
}

// rent is the monthly rent with negative values treated as zero.
func (p Params) rent() decimal.Decimal {
	if p.MonthlyRent.IsNegative() {
		return decimal.Zero
	}
	return p.MonthlyRent
}

// LeaseMonth is the month billing starts in. A missing lease start falls
// back to the month being evaluated rather than the wall-clock month, so
// viewing a past month of such a tenant bills opening balance plus one
// month of rent for that month instead of reporting nothing due.
func (p Params) LeaseMonth(target period.Month) period.Month {
	if p.LeaseStart.IsZero() {
		return target
	}
	return period.Of(p.LeaseStart)
}

// FirstMonthCharge is the amount billed for the lease-start month.
func FirstMonthCharge(p Params) decimal.Decimal {
	if p.FirstMonthOverride.Valid {
		return p.FirstMonthOverride.Decimal
	}
	rent := p.rent()
	if !p.IsProrated || p.LeaseStart.IsZero() {
		return rent
	}
	month := period.Of(p.LeaseStart)
	daysIn := month.DaysIn()
	remaining := daysIn - p.LeaseStart.Day() + 1
	return rent.Mul(decimal.NewFromInt(int64(remaining))).Div(decimal.NewFromInt(int64(daysIn)))
}

// FullMonthsElapsed counts the whole months billed after the lease month up
// to and including target.
func FullMonthsElapsed(leaseMonth, target period.Month) int {
	n := target.MonthsSince(leaseMonth.AddMonths(1)) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Cumulative returns opening balance + first-month charge + full months × rent
// for every month up to target. Before the lease month nothing is due.
func Cumulative(p Params, target period.Month) Result {
	leaseMonth := p.LeaseMonth(target)
	if target.Before(leaseMonth) {
		return Result{
			Month:            target,
			NotYetDue:        true,
			FirstMonthCharge: decimal.Zero,
			Expected:         decimal.Zero,
		}
	}

	first := FirstMonthCharge(p)
	full := FullMonthsElapsed(leaseMonth, target)
	expected := p.OpeningBalance.
		Add(first).
		Add(p.rent().Mul(decimal.NewFromInt(int64(full))))

	return Result{
		Month:            target,
		FirstMonthCharge: first,
		FullMonths:       full,
		Expected:         expected,
	}
}

// MonthlyCharge is one rent charge in a schedule.
type MonthlyCharge struct {
	Month  period.Month
	Amount decimal.Decimal
}

// RentSchedule lists the rent charge for each month from the lease month
// through the given month. The first month uses the override when one is set
// and the plain monthly rent otherwise; it is not pro-rated. An unknown lease
// start yields no schedule.
func RentSchedule(p Params, through period.Month) []MonthlyCharge {
	if p.LeaseStart.IsZero() {
		return nil
	}
	months := period.Range(period.Of(p.LeaseStart), through)
	schedule := make([]MonthlyCharge, 0, len(months))
	for i, m := range months {
		amount := p.rent()
		if i == 0 && p.FirstMonthOverride.Valid {
			amount = p.FirstMonthOverride.Decimal
		}
		schedule = append(schedule, MonthlyCharge{Month: m, Amount: amount})
	}
	return schedule
}
