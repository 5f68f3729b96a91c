package ledger

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/beesaferoot/rentledger/models"
)

// GetMigrationState returns the user's state for the migration key, or nil.
func (s *Store) GetMigrationState(ctx context.Context, userID uint, key string) (*models.UserMigration, error) {
	var state models.UserMigration
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND migration_key = ?", userID, key).
		Limit(1).
		Find(&state)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to get migration state: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &state, nil
}

// UpsertMigrationState writes the state row keyed by (user_id, migration_key).
// Any ID on state is ignored.
func (s *Store) UpsertMigrationState(ctx context.Context, state *models.UserMigration) error {
	row := *state
	row.ID = 0
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "migration_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "started_at", "completed_at", "last_error", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save migration state: %w", err)
	}
	return nil
}

// ListMigrationStates returns every migration state row for the user.
func (s *Store) ListMigrationStates(ctx context.Context, userID uint) ([]models.UserMigration, error) {
	var states []models.UserMigration
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("migration_key").
		Find(&states).Error
	return states, err
}
