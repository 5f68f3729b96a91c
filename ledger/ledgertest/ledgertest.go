// Package ledgertest seeds in-memory SQLite stores for tests.
package ledgertest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/models"
)

// NewStore opens an in-memory SQLite database with every table created.
func NewStore(t testing.TB) *ledger.Store {
	t.Helper()
	db, err := ledger.Open(ledger.DriverSQLite, ":memory:")
	require.NoError(t, err)

	store := ledger.NewStore(db)
	require.NoError(t, store.AutoMigrate(context.Background()))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return store
}

// Account is a user with one property.
type Account struct {
	User     models.User
	Property models.Property
}

func SeedAccount(t testing.TB, store *ledger.Store, email string) Account {
	t.Helper()
	ctx := context.Background()

	user := models.User{Email: email, Name: email}
	require.NoError(t, store.CreateUser(ctx, &user))

	property := models.Property{UserID: user.ID, Name: "Block A", City: "Nairobi"}
	require.NoError(t, store.CreateProperty(ctx, &property))

	return Account{User: user, Property: property}
}

// TenantSpec holds billing fields in whole currency units. LeaseStart is
// "2006-01-02"; empty means no lease start.
type TenantSpec struct {
	Name       string
	Rent       int64
	LeaseStart string
	Opening    int64
	Prorated   bool
	Override   *int64
}

// SeedTenant creates a unit on the account's property and a tenant in it.
func SeedTenant(t testing.TB, store *ledger.Store, account Account, ts TenantSpec) models.Tenant {
	t.Helper()
	ctx := context.Background()

	unit := models.Unit{PropertyID: account.Property.ID, UnitNumber: fmt.Sprintf("U-%s", ts.Name)}
	require.NoError(t, store.CreateUnit(ctx, &unit))

	tenant := models.Tenant{
		UnitID:         unit.ID,
		FirstName:      ts.Name,
		RentAmount:     decimal.NewFromInt(ts.Rent),
		OpeningBalance: decimal.NewFromInt(ts.Opening),
		IsProrated:     ts.Prorated,
	}
	if ts.LeaseStart != "" {
		start := Date(ts.LeaseStart)
		tenant.LeaseStart = &start
	}
	if ts.Override != nil {
		tenant.FirstMonthOverride = decimal.NewNullDecimal(decimal.NewFromInt(*ts.Override))
	}
	require.NoError(t, store.CreateTenant(ctx, &tenant))
	return tenant
}

// Date parses "2006-01-02" as a UTC date and panics on bad input.
func Date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func Int(v int64) *int64 { return &v }
