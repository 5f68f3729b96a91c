// Package migration converts legacy per-tenant billing fields into explicit
// charge and allocation rows, and tracks per-user migration state.
package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

// ChargeLedgerKey identifies the charge-ledger migration in UserMigration rows.
const ChargeLedgerKey = "charge_ledger_v1"

const (
	StatusPending   = models.MigrationPending
	StatusRunning   = models.MigrationRunning
	StatusCompleted = models.MigrationCompleted
	StatusFailed    = models.MigrationFailed
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnknownMigration = errors.New("unknown migration")
)

// Migration is a per-user data migration. Needed reports whether the user has
// anything to migrate; Apply does the work and returns per-tenant results.
type Migration struct {
	Key    string
	Name   string
	Needed func(ctx context.Context, userID uint) (bool, error)
	Apply  func(ctx context.Context, userID uint, asOf period.Month) (*Report, error)
}

var (
	globalMigrations = make([]*Migration, 0)
	registryMutex    sync.RWMutex
)

// RegisterMigration adds a migration to the process-wide registry. A migration
// with the same key replaces the earlier one.
func RegisterMigration(migration *Migration) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	for i, m := range globalMigrations {
		if m.Key == migration.Key {
			globalMigrations[i] = migration
			return
		}
	}
	globalMigrations = append(globalMigrations, migration)
}

func GetRegisteredMigrations() []*Migration {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	migrations := make([]*Migration, len(globalMigrations))
	copy(migrations, globalMigrations)
	return migrations
}

func ResetMigrations() {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	globalMigrations = make([]*Migration, 0)
}

// TenantResult is the outcome of migrating one tenant. Errors holds one
// human-readable line per failed item; it never aborts the run.
type TenantResult struct {
	TenantID              uint     `json:"tenant_id"`
	Name                  string   `json:"name"`
	OpeningBalanceCreated bool     `json:"opening_balance_created"`
	RentChargesCreated    int      `json:"rent_charges_created"`
	PaymentsAllocated     int      `json:"payments_allocated"`
	Errors                []string `json:"errors,omitempty"`
}

func (r TenantResult) OK() bool {
	return len(r.Errors) == 0
}

// Report collects the per-tenant results of one migration run.
type Report struct {
	RunID   string         `json:"run_id"`
	UserID  uint           `json:"user_id"`
	AsOf    period.Month   `json:"as_of"`
	Tenants []TenantResult `json:"tenants"`
}

func (r *Report) RentChargesCreated() int {
	n := 0
	for _, t := range r.Tenants {
		n += t.RentChargesCreated
	}
	return n
}

func (r *Report) PaymentsAllocated() int {
	n := 0
	for _, t := range r.Tenants {
		n += t.PaymentsAllocated
	}
	return n
}

// Errors lists every tenant error prefixed with the tenant's name.
func (r *Report) Errors() []string {
	var out []string
	for _, t := range r.Tenants {
		for _, e := range t.Errors {
			out = append(out, fmt.Sprintf("%s: %s", t.Name, e))
		}
	}
	return out
}

func (r *Report) OK() bool {
	for _, t := range r.Tenants {
		if !t.OK() {
			return false
		}
	}
	return true
}

const maxSummaryLen = 500

// Summary is a one-line description of the failures, short enough to store
// as UserMigration.LastError.
func (r *Report) Summary() string {
	errs := r.Errors()
	if len(errs) == 0 {
		return ""
	}
	failed := 0
	for _, t := range r.Tenants {
		if !t.OK() {
			failed++
		}
	}
	s := fmt.Sprintf("%d error(s) across %d tenant(s): %s", len(errs), failed, strings.Join(errs, "; "))
	if len(s) > maxSummaryLen {
		cut := maxSummaryLen - 3
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
