package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/beesaferoot/rentledger/period"
)

// Payment is money received from a tenant. Payments are never updated after insert.
type Payment struct {
	ID           uint            `gorm:"primaryKey"`
	TenantID     uint            `gorm:"not null;index:idx_payments_tenant_month,priority:1"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PaymentDate  time.Time       `gorm:"not null"`
	PaymentMonth period.Month    `gorm:"size:7;not null;index:idx_payments_tenant_month,priority:2"`
	MpesaCode    string          `gorm:"size:32;index"`
	Note         string
	CreatedAt    time.Time
}

// PaymentAllocation is the part of a payment applied to one charge-month.
type PaymentAllocation struct {
	ID           uint            `gorm:"primaryKey"`
	PaymentID    uint            `gorm:"not null;index"`
	Payment      *Payment        `gorm:"foreignKey:PaymentID"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	AppliedMonth period.Month    `gorm:"size:7;not null;index"`
	CreatedAt    time.Time
}
