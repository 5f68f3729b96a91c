package report_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beesaferoot/rentledger/balance"
	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/ledger/ledgertest"
	"github.com/beesaferoot/rentledger/migration"
	"github.com/beesaferoot/rentledger/period"
	"github.com/beesaferoot/rentledger/report"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func seed(t *testing.T) (*ledger.Store, ledgertest.Account) {
	t.Helper()
	ctx := context.Background()
	store := ledgertest.NewStore(t)
	account := ledgertest.SeedAccount(t, store, "owner@example.com")

	paid := ledgertest.SeedTenant(t, store, account, ledgertest.TenantSpec{Name: "paid", Rent: 10000, LeaseStart: "2024-01-01"})
	partial := ledgertest.SeedTenant(t, store, account, ledgertest.TenantSpec{Name: "partial", Rent: 10000, LeaseStart: "2024-02-01"})
	ledgertest.SeedTenant(t, store, account, ledgertest.TenantSpec{Name: "unpaid", Rent: 8000, LeaseStart: "2024-03-01"})
	over := ledgertest.SeedTenant(t, store, account, ledgertest.TenantSpec{Name: "over", Rent: 5000, LeaseStart: "2024-03-01"})

	for _, p := range []struct {
		tenant uint
		amount int64
		date   string
	}{
		{paid.ID, 20000, "2024-02-01"},
		{paid.ID, 10000, "2024-03-02"},
		{partial.ID, 10000, "2024-02-03"},
		{partial.ID, 4000, "2024-03-03"},
		{over.ID, 7000, "2024-03-04"},
		{over.ID, 1000, "2024-04-04"},
	} {
		_, err := store.CreatePayment(ctx, ledger.PaymentInput{TenantID: p.tenant, Amount: dec(p.amount), PaymentDate: ledgertest.Date(p.date)})
		require.NoError(t, err)
	}

	_, err := store.CreateExpense(ctx, ledger.ExpenseInput{PropertyID: account.Property.ID, Amount: dec(3500), ExpenseDate: ledgertest.Date("2024-03-15")})
	require.NoError(t, err)
	return store, account
}

func assertReport(t *testing.T, rep *report.MonthlyReport) {
	t.Helper()
	require.Len(t, rep.Rows, 4)
	assert.Equal(t, int64(1), rep.Properties)

	statuses := map[string]balance.Status{}
	for _, r := range rep.Rows {
		statuses[r.Name] = r.Status
	}
	assert.Equal(t, map[string]balance.Status{
		"paid":    balance.StatusPaid,
		"partial": balance.StatusPartial,
		"unpaid":  balance.StatusUnpaid,
		"over":    balance.StatusOverpaid,
	}, statuses)
	assert.Equal(t, 1, rep.Counts[balance.StatusPaid])
	assert.Equal(t, 1, rep.Counts[balance.StatusOverpaid])

	assert.True(t, rep.Totals.RentRoll.Equal(dec(33000)), rep.Totals.RentRoll.String())
	assert.True(t, rep.Totals.Collected.Equal(dec(21000)), rep.Totals.Collected.String())
	assert.True(t, rep.Totals.Arrears.Equal(dec(14000)), rep.Totals.Arrears.String())
	assert.True(t, rep.Totals.Credit.Equal(dec(2000)), rep.Totals.Credit.String())
	assert.True(t, rep.Expenses.Equal(dec(3500)))
	assert.True(t, rep.NetIncome.Equal(dec(17500)), rep.NetIncome.String())
}

func TestMonthly_Formula(t *testing.T) {
	store, account := seed(t)
	src, err := balance.NewSource(balance.SourceFormula, store)
	require.NoError(t, err)

	rep, err := report.NewBuilder(store, src, zap.NewNop()).Monthly(context.Background(), account.User.ID, period.MustParse("2024-03"))
	require.NoError(t, err)
	assertReport(t, rep)
}

func TestMonthly_LedgerAfterMigration(t *testing.T) {
	store, account := seed(t)
	_, err := migration.NewEngine(store, zap.NewNop(), nil).MigrateAccount(context.Background(), account.User.ID, period.MustParse("2024-03"))
	require.NoError(t, err)

	src, err := balance.NewSource(balance.SourceLedger, store)
	require.NoError(t, err)

	rep, err := report.NewBuilder(store, src, zap.NewNop()).Monthly(context.Background(), account.User.ID, period.MustParse("2024-03"))
	require.NoError(t, err)
	assertReport(t, rep)
}

func TestMonthly_NoTenants(t *testing.T) {
	store := ledgertest.NewStore(t)
	src, err := balance.NewSource(balance.SourceFormula, store)
	require.NoError(t, err)

	rep, err := report.NewBuilder(store, src, nil).Monthly(context.Background(), 5, period.MustParse("2024-03"))
	require.NoError(t, err)
	assert.Empty(t, rep.Rows)
	assert.Zero(t, rep.Properties)
	assert.True(t, rep.NetIncome.IsZero())
}
