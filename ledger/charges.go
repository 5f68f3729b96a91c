package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"

	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

// ChargeInput describes a charge to insert.
type ChargeInput struct {
	TenantID uint
	Amount   decimal.Decimal
	Month    period.Month
	Type     models.ChargeType
	Note     string
}

func dedupeKey(in ChargeInput) (string, error) {
	switch in.Type {
	case models.ChargeTypeRent:
		return models.RentDedupeKey(in.Month), nil
	case models.ChargeTypeOpeningBalance:
		return models.OpeningBalanceDedupeKey, nil
	case models.ChargeTypeOther:
		return uuid.NewString(), nil
	default:
		return "", fmt.Errorf("unknown charge type %q", in.Type)
	}
}

// CreateCharge inserts a charge unless one with the same uniqueness key
// exists, in which case it returns ErrDuplicateCharge. The check happens in
// the insert itself, so concurrent callers cannot both succeed.
func (s *Store) CreateCharge(ctx context.Context, in ChargeInput) (uint, error) {
	if in.TenantID == 0 {
		return 0, fmt.Errorf("charge requires a tenant")
	}
	if in.Month.IsZero() {
		return 0, fmt.Errorf("charge requires a month")
	}
	key, err := dedupeKey(in)
	if err != nil {
		return 0, err
	}

	charge := models.Charge{
		TenantID:    in.TenantID,
		DedupeKey:   key,
		Amount:      in.Amount,
		ChargeMonth: in.Month,
		Type:        in.Type,
		Note:        in.Note,
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(&charge)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return 0, ErrDuplicateCharge
		}
		return 0, fmt.Errorf("failed to create %s charge for %s: %w", in.Type, in.Month, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrDuplicateCharge
	}
	return charge.ID, nil
}

// CreateOpeningBalanceCharge records the arrears a tenant carried in. A tenant
// has at most one; a second call returns ErrDuplicateCharge.
func (s *Store) CreateOpeningBalanceCharge(ctx context.Context, tenantID uint, amount decimal.Decimal, month period.Month, note string) (uint, error) {
	return s.CreateCharge(ctx, ChargeInput{
		TenantID: tenantID,
		Amount:   amount,
		Month:    month,
		Type:     models.ChargeTypeOpeningBalance,
		Note:     note,
	})
}

// FindCharge returns the charge of the given type for the month, or nil.
func (s *Store) FindCharge(ctx context.Context, tenantID uint, month period.Month, chargeType models.ChargeType) (*models.Charge, error) {
	var charge models.Charge
	res := s.db.WithContext(ctx).
		Where("tenant_id = ? AND charge_month = ? AND type = ?", tenantID, month, chargeType).
		Limit(1).
		Find(&charge)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &charge, nil
}

func (s *Store) ListCharges(ctx context.Context, tenantID uint) ([]models.Charge, error) {
	var charges []models.Charge
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("charge_month, id").
		Find(&charges).Error
	return charges, err
}

func (s *Store) CountCharges(ctx context.Context, tenantID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Charge{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// SumCharges totals every charge dated in or before the month.
func (s *Store) SumCharges(ctx context.Context, tenantID uint, through period.Month) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.WithContext(ctx).Model(&models.Charge{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("tenant_id = ? AND charge_month <= ?", tenantID, through).
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum charges: %w", err)
	}
	return total, nil
}
