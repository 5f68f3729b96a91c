// Package report summarises an account's rent position for a month.
package report

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/beesaferoot/rentledger/balance"
	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

type Store interface {
	ListTenants(ctx context.Context, userID uint) ([]models.Tenant, error)
	CountProperties(ctx context.Context, userID uint) (int64, error)
	SumExpenses(ctx context.Context, userID uint, month period.Month) (decimal.Decimal, error)
}

type Row struct {
	TenantID       uint            `json:"tenant_id"`
	Name           string          `json:"name"`
	Unit           string          `json:"unit"`
	Rent           decimal.Decimal `json:"rent"`
	Expected       decimal.Decimal `json:"expected"`
	PaidThisPeriod decimal.Decimal `json:"paid_this_period"`
	Balance        decimal.Decimal `json:"balance"`
	Status         balance.Status  `json:"status"`
}

// Totals sum the rows. Arrears is the sum of positive balances and Credit
// the sum of negative ones, as a positive amount.
type Totals struct {
	RentRoll  decimal.Decimal `json:"rent_roll"`
	Expected  decimal.Decimal `json:"expected"`
	Collected decimal.Decimal `json:"collected"`
	Arrears   decimal.Decimal `json:"arrears"`
	Credit    decimal.Decimal `json:"credit"`
}

type MonthlyReport struct {
	Month      period.Month           `json:"month"`
	Properties int64                  `json:"properties"`
	Rows       []Row                  `json:"rows"`
	Totals     Totals                 `json:"totals"`
	Counts     map[balance.Status]int `json:"counts"`
	Expenses   decimal.Decimal        `json:"expenses"`
	NetIncome  decimal.Decimal        `json:"net_income"`
}

type Builder struct {
	store  Store
	source balance.Source
	log    *zap.Logger
}

func NewBuilder(store Store, source balance.Source, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{store: store, source: source, log: log.Named("report")}
}

// Monthly builds the report for every tenant of the user. Net income is
// money collected in the month less expenses booked in it.
func (b *Builder) Monthly(ctx context.Context, userID uint, month period.Month) (*MonthlyReport, error) {
	tenants, err := b.store.ListTenants(ctx, userID)
	if err != nil {
		return nil, err
	}

	rep := &MonthlyReport{
		Month: month,
		Rows:  make([]Row, 0, len(tenants)),
		Counts: map[balance.Status]int{
			balance.StatusPaid:     0,
			balance.StatusPartial:  0,
			balance.StatusUnpaid:   0,
			balance.StatusOverpaid: 0,
		},
		Totals: Totals{
			RentRoll:  decimal.Zero,
			Expected:  decimal.Zero,
			Collected: decimal.Zero,
			Arrears:   decimal.Zero,
			Credit:    decimal.Zero,
		},
	}

	for _, t := range tenants {
		res, err := b.source.Balance(ctx, t, month)
		if err != nil {
			return nil, fmt.Errorf("failed to compute balance for tenant %d: %w", t.ID, err)
		}

		row := Row{
			TenantID:       t.ID,
			Name:           t.FullName(),
			Rent:           t.RentAmount,
			Expected:       res.Expected,
			PaidThisPeriod: res.PaidThisPeriod,
			Balance:        res.Balance,
			Status:         res.Status,
		}
		if t.Unit != nil {
			row.Unit = t.Unit.UnitNumber
		}
		rep.Rows = append(rep.Rows, row)

		rep.Counts[res.Status]++
		rep.Totals.RentRoll = rep.Totals.RentRoll.Add(t.RentAmount)
		rep.Totals.Expected = rep.Totals.Expected.Add(res.Expected)
		rep.Totals.Collected = rep.Totals.Collected.Add(res.PaidThisPeriod)
		if res.Balance.IsPositive() {
			rep.Totals.Arrears = rep.Totals.Arrears.Add(res.Balance)
		} else {
			rep.Totals.Credit = rep.Totals.Credit.Add(res.Balance.Neg())
		}
	}

	expenses, err := b.store.SumExpenses(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	rep.Expenses = expenses

	if rep.Properties, err = b.store.CountProperties(ctx, userID); err != nil {
		return nil, err
	}
	rep.NetIncome = rep.Totals.Collected.Sub(expenses)

	b.log.Debug("monthly report built",
		zap.Uint("user_id", userID),
		zap.Stringer("month", month),
		zap.Int("tenants", len(rep.Rows)),
	)
	return rep, nil
}
