package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/beesaferoot/rentledger/accrual"
	"github.com/beesaferoot/rentledger/internal/metrics"
	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

// Ledger is the storage the charge-ledger migration reads and writes.
// *ledger.Store implements it.
type Ledger interface {
	ListTenants(ctx context.Context, userID uint) ([]models.Tenant, error)
	CountCharges(ctx context.Context, tenantID uint) (int64, error)
	CreateOpeningBalanceCharge(ctx context.Context, tenantID uint, amount decimal.Decimal, month period.Month, note string) (uint, error)
	FindCharge(ctx context.Context, tenantID uint, month period.Month, chargeType models.ChargeType) (*models.Charge, error)
	CreateCharge(ctx context.Context, in ledger.ChargeInput) (uint, error)
	ListPayments(ctx context.Context, tenantID uint) ([]models.Payment, error)
	ListAllocations(ctx context.Context, paymentID uint) ([]models.PaymentAllocation, error)
	AllocatePayment(ctx context.Context, paymentID uint) (*ledger.AllocationResult, error)
}

const (
	openingBalanceNote = "Opening balance (migrated)"
	rentNote           = "Rent (migrated)"
)

// Engine runs the charge-ledger migration. Tenants, months and payments are
// processed one at a time, in that order within a tenant.
type Engine struct {
	ledger  Ledger
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewEngine(l Ledger, log *zap.Logger, m *metrics.Metrics) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		ledger:  l,
		log:     log.Named("migration.engine"),
		metrics: m,
	}
}

// Migration returns the charge-ledger migration for registration.
func (e *Engine) Migration() *Migration {
	return &Migration{
		Key:    ChargeLedgerKey,
		Name:   "Create charge and allocation rows from tenant billing fields",
		Needed: e.NeedsMigration,
		Apply:  e.MigrateAccount,
	}
}

// NeedsMigration reports whether any billable tenant of the user has no
// charge rows yet. A tenant is billable when it has a lease start or a
// positive opening balance.
func (e *Engine) NeedsMigration(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 {
		return false, ErrNotAuthenticated
	}
	tenants, err := e.ledger.ListTenants(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, t := range tenants {
		if t.LeaseStart == nil && !t.OpeningBalance.IsPositive() {
			continue
		}
		n, err := e.ledger.CountCharges(ctx, t.ID)
		if err != nil {
			return false, fmt.Errorf("failed to count charges for tenant %d: %w", t.ID, err)
		}
		if n == 0 {
			return true, nil
		}
	}
	return false, nil
}

// MigrateAccount migrates every tenant of the user through asOf. It fails
// only when the user is missing or tenants cannot be listed; tenant-level
// failures are reported in the result.
func (e *Engine) MigrateAccount(ctx context.Context, userID uint, asOf period.Month) (*Report, error) {
	if userID == 0 {
		return nil, ErrNotAuthenticated
	}
	tenants, err := e.ledger.ListTenants(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:   uuid.NewString(),
		UserID:  userID,
		AsOf:    asOf,
		Tenants: make([]TenantResult, 0, len(tenants)),
	}
	log := e.log.With(zap.String("run_id", report.RunID), zap.Uint("user_id", userID))

	for _, t := range tenants {
		report.Tenants = append(report.Tenants, e.migrateTenant(ctx, log, t, asOf))
	}

	log.Info("charge ledger migration finished",
		zap.Int("tenants", len(report.Tenants)),
		zap.Int("rent_charges_created", report.RentChargesCreated()),
		zap.Int("payments_allocated", report.PaymentsAllocated()),
		zap.Int("errors", len(report.Errors())),
	)
	return report, nil
}

// MigrateTenant creates the tenant's opening balance charge, then its rent
// charges through asOf, then allocates its unallocated payments. Re-running
// it creates nothing new.
func (e *Engine) MigrateTenant(ctx context.Context, tenant models.Tenant, asOf period.Month) TenantResult {
	return e.migrateTenant(ctx, e.log, tenant, asOf)
}

func (e *Engine) migrateTenant(ctx context.Context, log *zap.Logger, tenant models.Tenant, asOf period.Month) TenantResult {
	res := TenantResult{TenantID: tenant.ID, Name: tenant.FullName()}
	if res.Name == "" {
		res.Name = fmt.Sprintf("tenant %d", tenant.ID)
	}
	log = log.With(zap.Uint("tenant_id", tenant.ID))
	params := accrual.ParamsFromTenant(tenant)

	fail := func(step, msg string, err error, fields ...zap.Field) {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", msg, err))
		e.metrics.RecordMigrationError(step)
		log.Warn("migration step failed", append(fields, zap.String("step", step), zap.Error(err))...)
	}

	if params.OpeningBalance.IsPositive() {
		month := params.LeaseMonth(asOf)
		_, err := e.ledger.CreateOpeningBalanceCharge(ctx, tenant.ID, params.OpeningBalance, month, openingBalanceNote)
		switch {
		case err == nil:
			res.OpeningBalanceCreated = true
			e.metrics.RecordChargeCreated(string(models.ChargeTypeOpeningBalance))
		case errors.Is(err, ledger.ErrDuplicateCharge):
		default:
			fail("opening_balance", "opening balance", err, zap.Stringer("month", month))
		}
	}

	for _, c := range accrual.RentSchedule(params, asOf) {
		existing, err := e.ledger.FindCharge(ctx, tenant.ID, c.Month, models.ChargeTypeRent)
		if err != nil {
			fail("rent", "rent "+c.Month.String(), err, zap.Stringer("month", c.Month))
			continue
		}
		if existing != nil {
			continue
		}
		_, err = e.ledger.CreateCharge(ctx, ledger.ChargeInput{
			TenantID: tenant.ID,
			Amount:   c.Amount,
			Month:    c.Month,
			Type:     models.ChargeTypeRent,
			Note:     rentNote,
		})
		switch {
		case err == nil:
			res.RentChargesCreated++
			e.metrics.RecordChargeCreated(string(models.ChargeTypeRent))
		case errors.Is(err, ledger.ErrDuplicateCharge):
		default:
			fail("rent", "rent "+c.Month.String(), err, zap.Stringer("month", c.Month))
		}
	}

	payments, err := e.ledger.ListPayments(ctx, tenant.ID)
	if err != nil {
		fail("payment", "list payments", err)
		return res
	}
	for _, p := range payments {
		allocations, err := e.ledger.ListAllocations(ctx, p.ID)
		if err != nil {
			fail("payment", fmt.Sprintf("payment %d", p.ID), err, zap.Uint("payment_id", p.ID))
			continue
		}
		if len(allocations) > 0 {
			continue
		}
		_, err = e.ledger.AllocatePayment(ctx, p.ID)
		switch {
		case err == nil:
			res.PaymentsAllocated++
			e.metrics.RecordPaymentAllocated()
		case errors.Is(err, ledger.ErrAlreadyAllocated):
		default:
			fail("payment", fmt.Sprintf("payment %d", p.ID), err, zap.Uint("payment_id", p.ID))
		}
	}

	return res
}
