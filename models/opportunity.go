package models

import "gorm.io/gorm"

// Opportunity is a sales opportunity. It carries the three authorization
// anchors scoped visibility is computed from: the creating user, the owning
// team, and the set of assigned employees.
type Opportunity struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Stage       string `gorm:"not null;default:'open'"`
	Amount      int64
	CreatedByID uint `gorm:"index;not null"`
	TeamID      *uint
	Assignees   []Employee `gorm:"many2many:opportunity_assignees;"`
	Notes       []OpportunityNote
}

// OpportunityNote is a nested child of an opportunity. Private notes are
// visible only to their author and to unrestricted readers, regardless of
// any assignment on the parent opportunity.
type OpportunityNote struct {
	gorm.Model
	OpportunityID uint   `gorm:"index;not null"`
	AuthorID      uint   `gorm:"not null"`
	Body          string `gorm:"type:text"`
	Private       bool   `gorm:"not null;default:false"`
}
