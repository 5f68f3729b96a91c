package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beesaferoot/rentledger/period"
)

// ExpenseCategory groups expenses for reporting
type ExpenseCategory struct {
	gorm.Model
	UserID uint   `gorm:"index;not null"`
	Name   string `gorm:"not null"`
}

// Expense is money spent on a property, optionally on a single unit
type Expense struct {
	gorm.Model
	PropertyID   uint             `gorm:"index;not null"`
	Property     *Property        `gorm:"foreignKey:PropertyID"`
	UnitID       *uint            `gorm:"index"`
	CategoryID   *uint            `gorm:"index"`
	Category     *ExpenseCategory `gorm:"foreignKey:CategoryID"`
	Amount       decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	ExpenseDate  time.Time        `gorm:"not null"`
	ExpenseMonth period.Month     `gorm:"size:7;not null;index"`
	Description  string
}
