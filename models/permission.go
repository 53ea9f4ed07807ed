package models

import "gorm.io/gorm"

// Permission represents a named capability following the
// "<resource>:<action>[:<scope>]" grammar, e.g. "opportunity:read:team"
// or the scope-less "opportunity:create".
type Permission struct {
	gorm.Model
	Name        string `gorm:"unique;not null"`
	Description string
	Roles       []Role `gorm:"many2many:role_permissions;"`
}
