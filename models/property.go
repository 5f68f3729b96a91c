package models

import "gorm.io/gorm"

// Property represents a building or estate owned by a landlord
type Property struct {
	gorm.Model
	UserID  uint   `gorm:"index;not null"`
	User    *User  `gorm:"foreignKey:UserID"`
	Name    string `gorm:"not null"`
	Address string
	City    string
}

// Unit represents a rentable unit within a property
type Unit struct {
	gorm.Model
	PropertyID uint      `gorm:"index;not null"`
	Property   *Property `gorm:"foreignKey:PropertyID"`
	UnitNumber string    `gorm:"not null"`
	IsVacant   bool
}
