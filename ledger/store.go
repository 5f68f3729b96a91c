// Package ledger is the gorm-backed store for the account hierarchy and the
// charge, payment and allocation ledgers.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/beesaferoot/rentledger/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the database. Unique-constraint failures are translated to
// gorm.ErrDuplicatedKey so callers can detect them without driver imports.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}

	switch driver {
	case "", DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("DATABASE_URL not set in environment or .env file")
		}
		return gorm.Open(postgres.Open(dsn), cfg)
	case DriverSQLite:
		if dsn == "" {
			dsn = "rentledger.db"
		}
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer; a single connection also keeps :memory: databases alive.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Store implements the ledger collaborators on top of gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// AutoMigrate creates or updates every table in models.All.
func (s *Store) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) CreateProperty(ctx context.Context, property *models.Property) error {
	return s.db.WithContext(ctx).Create(property).Error
}

func (s *Store) CreateUnit(ctx context.Context, unit *models.Unit) error {
	return s.db.WithContext(ctx).Create(unit).Error
}

func (s *Store) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	return s.db.WithContext(ctx).Create(tenant).Error
}

// GetTenant loads a tenant with its unit and property.
func (s *Store) GetTenant(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).Preload("Unit.Property").First(&tenant, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("tenant %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// ListTenants returns every tenant reachable from the user's properties.
func (s *Store) ListTenants(ctx context.Context, userID uint) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := s.db.WithContext(ctx).
		Joins("JOIN units ON units.id = tenants.unit_id AND units.deleted_at IS NULL").
		Joins("JOIN properties ON properties.id = units.property_id AND properties.deleted_at IS NULL").
		Where("properties.user_id = ?", userID).
		Preload("Unit").
		Order("tenants.id").
		Find(&tenants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

// TenantOwnedBy reports whether the tenant belongs to one of the user's properties.
func (s *Store) TenantOwnedBy(ctx context.Context, tenantID, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Tenant{}).
		Joins("JOIN units ON units.id = tenants.unit_id").
		Joins("JOIN properties ON properties.id = units.property_id").
		Where("tenants.id = ? AND properties.user_id = ?", tenantID, userID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CountProperties(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Property{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// DeleteTenant soft-deletes the tenant and removes its charges, payments and
// allocations.
func (s *Store) DeleteTenant(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		paymentIDs := tx.Model(&models.Payment{}).Select("id").Where("tenant_id = ?", id)
		if err := tx.Where("payment_id IN (?)", paymentIDs).Delete(&models.PaymentAllocation{}).Error; err != nil {
			return fmt.Errorf("failed to delete allocations: %w", err)
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return fmt.Errorf("failed to delete payments: %w", err)
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&models.Charge{}).Error; err != nil {
			return fmt.Errorf("failed to delete charges: %w", err)
		}
		res := tx.Delete(&models.Tenant{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("tenant %d: %w", id, ErrNotFound)
		}
		return nil
	})
}
