package models

import "gorm.io/gorm"

// Role groups permissions. A user's effective permission set is the union of
// the permissions of every role assigned to them.
type Role struct {
	gorm.Model
	Name        string `gorm:"unique;not null"`
	Description string
	Permissions []Permission `gorm:"many2many:role_permissions;"`
	Users       []User       `gorm:"many2many:user_roles;"`
}
