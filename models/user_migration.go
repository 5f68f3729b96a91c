package models

import "time"

type MigrationStatus string

const (
	MigrationPending   MigrationStatus = "pending"
	MigrationRunning   MigrationStatus = "running"
	MigrationCompleted MigrationStatus = "completed"
	MigrationFailed    MigrationStatus = "failed"
)

// UserMigration records the state of one data migration for one user.
type UserMigration struct {
	ID           uint            `gorm:"primaryKey"`
	UserID       uint            `gorm:"not null;uniqueIndex:idx_user_migrations_key,priority:1"`
	MigrationKey string          `gorm:"size:64;not null;uniqueIndex:idx_user_migrations_key,priority:2"`
	Status       MigrationStatus `gorm:"size:16;not null"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	LastError    string
	UpdatedAt    time.Time
}
