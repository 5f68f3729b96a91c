package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/ledger/ledgertest"
	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

func TestOpen_Drivers(t *testing.T) {
	_, err := ledger.Open(ledger.DriverPostgres, "")
	assert.Error(t, err)

	_, err = ledger.Open("oracle", "x")
	assert.Error(t, err)

	db, err := ledger.Open(ledger.DriverSQLite, ":memory:")
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestListTenants_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.NewStore(t)
	alice := ledgertest.SeedAccount(t, store, "alice@example.com")
	bob := ledgertest.SeedAccount(t, store, "bob@example.com")

	a1 := ledgertest.SeedTenant(t, store, alice, ledgertest.TenantSpec{Name: "a1", Rent: 1000})
	a2 := ledgertest.SeedTenant(t, store, alice, ledgertest.TenantSpec{Name: "a2", Rent: 1000})
	b1 := ledgertest.SeedTenant(t, store, bob, ledgertest.TenantSpec{Name: "b1", Rent: 1000})

	tenants, err := store.ListTenants(ctx, alice.User.ID)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, a1.ID, tenants[0].ID)
	assert.Equal(t, a2.ID, tenants[1].ID)
	require.NotNil(t, tenants[0].Unit)

	owned, err := store.TenantOwnedBy(ctx, b1.ID, alice.User.ID)
	require.NoError(t, err)
	assert.False(t, owned)

	owned, err = store.TenantOwnedBy(ctx, b1.ID, bob.User.ID)
	require.NoError(t, err)
	assert.True(t, owned)

	none, err := store.ListTenants(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)

	count, err := store.CountProperties(ctx, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.CountProperties(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetTenant(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.NewStore(t)
	account := ledgertest.SeedAccount(t, store, "owner@example.com")
	tenant := ledgertest.SeedTenant(t, store, account, ledgertest.TenantSpec{Name: "a", Rent: 1000, LeaseStart: "2024-02-10"})

	got, err := store.GetTenant(ctx, tenant.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Unit)
	require.NotNil(t, got.Unit.Property)
	assert.Equal(t, account.User.ID, got.Unit.Property.UserID)
	require.NotNil(t, got.LeaseStart)
	assert.Equal(t, "2024-02", period.Of(*got.LeaseStart).String())

	_, err = store.GetTenant(ctx, 404)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestDeleteTenant_RemovesLedger(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.NewStore(t)
	account := ledgertest.SeedAccount(t, store, "owner@example.com")
	tenant := ledgertest.SeedTenant(t, store, account, ledgertest.TenantSpec{Name: "a", Rent: 10000})
	other := ledgertest.SeedTenant(t, store, account, ledgertest.TenantSpec{Name: "b", Rent: 10000})
	seedRent(t, store, tenant.ID, 10000, "2024-01")
	seedRent(t, store, other.ID, 10000, "2024-01")

	res, err := store.RecordPayment(ctx, ledger.PaymentInput{TenantID: tenant.ID, Amount: dec(10000), PaymentDate: ledgertest.Date("2024-01-04")})
	require.NoError(t, err)

	require.NoError(t, store.DeleteTenant(ctx, tenant.ID))

	count, err := store.CountCharges(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	allocs, err := store.ListAllocations(ctx, res.Payment.ID)
	require.NoError(t, err)
	assert.Empty(t, allocs)

	payments, err := store.ListPayments(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	count, err = store.CountCharges(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = store.GetTenant(ctx, tenant.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	assert.ErrorIs(t, store.DeleteTenant(ctx, tenant.ID), ledger.ErrNotFound)
}

func TestMigrationState_Upsert(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.NewStore(t)
	account := ledgertest.SeedAccount(t, store, "owner@example.com")

	state, err := store.GetMigrationState(ctx, account.User.ID, "charge_ledger_v1")
	require.NoError(t, err)
	assert.Nil(t, state)

	started := ledgertest.Date("2024-05-01")
	require.NoError(t, store.UpsertMigrationState(ctx, &models.UserMigration{
		UserID:       account.User.ID,
		MigrationKey: "charge_ledger_v1",
		Status:       models.MigrationRunning,
		StartedAt:    &started,
	}))

	state, err = store.GetMigrationState(ctx, account.User.ID, "charge_ledger_v1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.MigrationRunning, state.Status)

	state.Status = models.MigrationFailed
	state.LastError = "boom"
	require.NoError(t, store.UpsertMigrationState(ctx, state))

	states, err := store.ListMigrationStates(ctx, account.User.ID)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, models.MigrationFailed, states[0].Status)
	assert.Equal(t, "boom", states[0].LastError)
}

func TestSumExpenses(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.NewStore(t)
	alice := ledgertest.SeedAccount(t, store, "alice@example.com")
	bob := ledgertest.SeedAccount(t, store, "bob@example.com")

	category := models.ExpenseCategory{UserID: alice.User.ID, Name: "Repairs"}
	require.NoError(t, store.CreateExpenseCategory(ctx, &category))

	for _, e := range []struct {
		property uint
		amount   int64
		date     string
	}{
		{alice.Property.ID, 1500, "2024-03-02"},
		{alice.Property.ID, 500, "2024-03-28"},
		{alice.Property.ID, 700, "2024-04-01"},
		{bob.Property.ID, 9000, "2024-03-10"},
	} {
		_, err := store.CreateExpense(ctx, ledger.ExpenseInput{
			PropertyID:  e.property,
			CategoryID:  &category.ID,
			Amount:      dec(e.amount),
			ExpenseDate: ledgertest.Date(e.date),
		})
		require.NoError(t, err)
	}

	total, err := store.SumExpenses(ctx, alice.User.ID, period.MustParse("2024-03"))
	require.NoError(t, err)
	assert.True(t, total.Equal(dec(2000)), total.String())

	_, err = store.CreateExpense(ctx, ledger.ExpenseInput{PropertyID: alice.Property.ID, Amount: dec(-1), ExpenseDate: ledgertest.Date("2024-03-01")})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}
