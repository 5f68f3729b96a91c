package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/beesaferoot/rentledger/period"
)

type ChargeType string

const (
	ChargeTypeRent           ChargeType = "rent"
	ChargeTypeOpeningBalance ChargeType = "opening_balance"
	ChargeTypeOther          ChargeType = "other"
)

// Charge is one billed obligation for a tenant in a month. Charges are never
// updated after insert.
//
// DedupeKey carries the uniqueness rule: "rent:YYYY-MM" for rent,
// "opening_balance" for the opening balance, a random id for other charges.
type Charge struct {
	ID          uint            `gorm:"primaryKey"`
	TenantID    uint            `gorm:"not null;uniqueIndex:idx_charges_tenant_dedupe,priority:1;index:idx_charges_tenant_month,priority:1"`
	DedupeKey   string          `gorm:"size:64;not null;uniqueIndex:idx_charges_tenant_dedupe,priority:2"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	ChargeMonth period.Month    `gorm:"size:7;not null;index:idx_charges_tenant_month,priority:2"`
	Type        ChargeType      `gorm:"size:32;not null"`
	Note        string
	CreatedAt   time.Time
}

// RentDedupeKey is the uniqueness key for the rent charge of a month.
func RentDedupeKey(m period.Month) string {
	return string(ChargeTypeRent) + ":" + m.String()
}

// OpeningBalanceDedupeKey is the uniqueness key for a tenant's single opening balance.
const OpeningBalanceDedupeKey = string(ChargeTypeOpeningBalance)
