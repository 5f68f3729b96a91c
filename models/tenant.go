package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tenant represents a tenant renting a unit. RentAmount, LeaseStart,
// OpeningBalance, IsProrated and FirstMonthOverride are the billing
// parameters the accrual calculator and the charge-ledger migration read.
type Tenant struct {
	gorm.Model
	UnitID             uint  `gorm:"index;not null"`
	Unit               *Unit `gorm:"foreignKey:UnitID"`
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	RentAmount         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	LeaseStart         *time.Time
	OpeningBalance     decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0"`
	IsProrated         bool                `gorm:"not null;default:false"`
	FirstMonthOverride decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	SecurityDeposit    decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0"`
}

func (t Tenant) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}
