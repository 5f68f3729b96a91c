package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

// PaymentInput describes a payment to record. A zero PaymentMonth defaults to
// the month of PaymentDate.
type PaymentInput struct {
	TenantID     uint
	Amount       decimal.Decimal
	PaymentDate  time.Time
	PaymentMonth period.Month
	MpesaCode    string
	Note         string
}

// AllocationResult is a payment and the allocations created for it.
// Credit is the part applied past the last charged month.
type AllocationResult struct {
	Payment     models.Payment
	Allocations []models.PaymentAllocation
	Credit      decimal.Decimal
}

func newPayment(in PaymentInput) (models.Payment, error) {
	if in.TenantID == 0 {
		return models.Payment{}, fmt.Errorf("payment requires a tenant")
	}
	if !in.Amount.IsPositive() {
		return models.Payment{}, ErrInvalidAmount
	}
	month := in.PaymentMonth
	if month.IsZero() {
		month = period.Of(in.PaymentDate)
	}
	return models.Payment{
		TenantID:     in.TenantID,
		Amount:       in.Amount,
		PaymentDate:  in.PaymentDate,
		PaymentMonth: month,
		MpesaCode:    in.MpesaCode,
		Note:         in.Note,
	}, nil
}

// CreatePayment records a payment without allocating it.
func (s *Store) CreatePayment(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	payment, err := newPayment(in)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return &payment, nil
}

// ListPayments returns the tenant's payments oldest month first.
func (s *Store) ListPayments(ctx context.Context, tenantID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("payment_month, id").
		Find(&payments).Error
	return payments, err
}

// ListPaymentsThrough returns payments dated in or before the month.
func (s *Store) ListPaymentsThrough(ctx context.Context, tenantID uint, month period.Month) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND payment_month <= ?", tenantID, month).
		Order("payment_month, id").
		Find(&payments).Error
	return payments, err
}

func (s *Store) ListAllocations(ctx context.Context, paymentID uint) ([]models.PaymentAllocation, error) {
	var allocations []models.PaymentAllocation
	err := s.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("applied_month, id").
		Find(&allocations).Error
	return allocations, err
}

// RecordPayment creates a payment and allocates it in one transaction.
func (s *Store) RecordPayment(ctx context.Context, in PaymentInput) (*AllocationResult, error) {
	payment, err := newPayment(in)
	if err != nil {
		return nil, err
	}

	var result *AllocationResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		result, err = allocate(tx, payment)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AllocatePayment splits an existing payment across the tenant's outstanding
// charge-months. It returns ErrAlreadyAllocated if the payment has allocations.
func (s *Store) AllocatePayment(ctx context.Context, paymentID uint) (*AllocationResult, error) {
	var result *AllocationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The row lock makes a concurrent allocation of the same payment wait
		// here and then see the allocations below.
		var payment models.Payment
		res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Limit(1).Find(&payment, paymentID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("payment %d: %w", paymentID, ErrNotFound)
		}

		var existing int64
		if err := tx.Model(&models.PaymentAllocation{}).Where("payment_id = ?", paymentID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("payment %d: %w", paymentID, ErrAlreadyAllocated)
		}

		var err error
		result, err = allocate(tx, payment)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type monthTotal struct {
	Month period.Month
	Total decimal.Decimal
}

func allocate(tx *gorm.DB, payment models.Payment) (*AllocationResult, error) {
	// Allocations for one tenant are planned one at a time.
	var tenant models.Tenant
	err := tx.Unscoped().Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").Limit(1).Find(&tenant, payment.TenantID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock tenant: %w", err)
	}

	var charged []monthTotal
	err = tx.Model(&models.Charge{}).
		Select("charge_month AS month, SUM(amount) AS total").
		Where("tenant_id = ?", payment.TenantID).
		Group("charge_month").
		Scan(&charged).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load charges: %w", err)
	}

	var applied []monthTotal
	err = tx.Model(&models.PaymentAllocation{}).
		Select("payment_allocations.applied_month AS month, SUM(payment_allocations.amount) AS total").
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Where("payments.tenant_id = ?", payment.TenantID).
		Group("payment_allocations.applied_month").
		Scan(&applied).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}

	allocations, credit := planAllocations(payment, charged, applied)
	if len(allocations) > 0 {
		if err := tx.Create(&allocations).Error; err != nil {
			return nil, fmt.Errorf("failed to create allocations: %w", err)
		}
	}
	return &AllocationResult{Payment: payment, Allocations: allocations, Credit: credit}, nil
}

// planAllocations applies the payment to the oldest outstanding month first.
// Whatever is left goes to the month after the last charged month, or the
// payment's own month if that is later, so a prepayment meets the next charge.
// The allocations always sum to the payment amount.
func planAllocations(payment models.Payment, charged, applied []monthTotal) ([]models.PaymentAllocation, decimal.Decimal) {
	paid := make(map[period.Month]decimal.Decimal, len(applied))
	for _, a := range applied {
		paid[a.Month] = paid[a.Month].Add(a.Total)
	}

	sort.Slice(charged, func(i, j int) bool { return charged[i].Month.Before(charged[j].Month) })

	remaining := payment.Amount
	var allocations []models.PaymentAllocation
	var lastCharged period.Month
	for _, c := range charged {
		lastCharged = c.Month
		if !remaining.IsPositive() {
			continue
		}
		outstanding := c.Total.Sub(paid[c.Month])
		if !outstanding.IsPositive() {
			continue
		}
		amount := decimal.Min(outstanding, remaining)
		allocations = append(allocations, models.PaymentAllocation{
			PaymentID:    payment.ID,
			Amount:       amount,
			AppliedMonth: c.Month,
		})
		remaining = remaining.Sub(amount)
	}

	if !remaining.IsPositive() {
		return allocations, decimal.Zero
	}

	creditMonth := payment.PaymentMonth
	if !lastCharged.IsZero() && !lastCharged.AddMonths(1).Before(creditMonth) {
		creditMonth = lastCharged.AddMonths(1)
	}
	allocations = append(allocations, models.PaymentAllocation{
		PaymentID:    payment.ID,
		Amount:       remaining,
		AppliedMonth: creditMonth,
	})
	return allocations, remaining
}
