package models

import (
	"time"

	"gorm.io/gorm"
)

// RefreshToken is a persisted long-lived session credential. At most one
// non-revoked, non-expired token exists per user at any time; the token
// repository enforces that invariant inside a single transaction.
type RefreshToken struct {
	gorm.Model
	Token      string    `gorm:"uniqueIndex;size:128;not null" json:"-"`
	UserID     uint      `gorm:"index;not null"`
	ExpiryDate time.Time `gorm:"not null"`
	Revoked    bool      `gorm:"not null;default:false"`
}
