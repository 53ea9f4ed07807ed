package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account that can authenticate against the service.
// Accounts belonging to staff members link to an Employee record; that link
// supplies the team and assignment identity used by scoped authorization.
type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Password     string `gorm:"not null" json:"-"`
	Email        string `gorm:"unique"`
	Enabled      bool   `gorm:"not null;default:true"`
	FailedLogins int    `gorm:"not null;default:0"`
	LockedUntil  *time.Time
	EmployeeID   *uint
	Employee     *Employee
	Roles        []Role `gorm:"many2many:user_roles;"`
}
