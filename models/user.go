package models

import "gorm.io/gorm"

// User is the account that owns properties. Every ledger row is scoped to one user
// through the tenant -> unit -> property chain.
type User struct {
	gorm.Model
	Email string `gorm:"uniqueIndex;not null"`
	Name  string
}
