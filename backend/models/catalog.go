package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	gorm.Model
	ProductID  string `gorm:"unique;not null"`
	Kind       string // exam, bundle, subscription
	Name       string
	PriceCents int
	ExamCodes  string // comma-separated exam codes unlocked by the product
}

// Entitlement asserts that a user owns a product. Records are written by the
// billing webhook, never by this backend; a nil ExpiresAt means perpetual.
type Entitlement struct {
	gorm.Model
	UserID    uint       `gorm:"index"`
	ProductID string     `gorm:"not null"`
	ExpiresAt *time.Time
}
