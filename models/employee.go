package models

import "gorm.io/gorm"

// Employee is the HR-side identity of a staff member. Assignment relations on
// business entities reference employees, not user accounts.
type Employee struct {
	gorm.Model
	Name   string `gorm:"not null"`
	TeamID *uint
	Team   *Team
}

// Team is an organizational unit used by team-scoped visibility.
type Team struct {
	gorm.Model
	Name string `gorm:"unique;not null"`
}
