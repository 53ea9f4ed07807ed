package authz

import (
	"fmt"

	"gorm.io/gorm"
)

// ResourceMeta supplies the field paths scoped filters are built from: where
// the creator, team and assignment relation live on the target table.
type ResourceMeta struct {
	Table         string
	CreatorColumn string
	TeamColumn    string

	// Assignment join table supporting one-to-many assignment (several
	// assignees per row).
	AssignTable          string
	AssignResourceColumn string
	AssignEmployeeColumn string
}

// OpportunityMeta describes the opportunities table.
var OpportunityMeta = ResourceMeta{
	Table:                "opportunities",
	CreatorColumn:        "created_by_id",
	TeamColumn:           "team_id",
	AssignTable:          "opportunity_assignees",
	AssignResourceColumn: "opportunity_id",
	AssignEmployeeColumn: "employee_id",
}

// ScopeFilter translates a resolved scope into a reusable row-level filter.
// The returned scope function only ever adds WHERE conditions, so it composes
// with any caller-supplied filters (keyword, status, pagination) by plain
// conjunction. ScopeNone yields an always-false predicate; callers apply it
// like any other and get an empty result set instead of special-casing denial.
func ScopeFilter(scope Scope, p Principal, meta ResourceMeta) func(*gorm.DB) *gorm.DB {
	switch scope {
	case ScopeAll:
		return func(db *gorm.DB) *gorm.DB { return db }
	case ScopeTeam:
		// Equality against a concrete team id: rows with a NULL team never
		// match, and a principal without a team sees nothing.
		if p.TeamID == 0 {
			return noneFilter
		}
		cond := fmt.Sprintf("%s.%s = ?", meta.Table, meta.TeamColumn)
		teamID := p.TeamID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(cond, teamID)
		}
	case ScopeAssigned:
		if p.EmployeeID == 0 {
			return noneFilter
		}
		cond := fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s WHERE %s.%s = %s.id AND %s.%s = ?)",
			meta.AssignTable,
			meta.AssignTable, meta.AssignResourceColumn, meta.Table,
			meta.AssignTable, meta.AssignEmployeeColumn,
		)
		employeeID := p.EmployeeID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(cond, employeeID)
		}
	case ScopeOwn:
		cond := fmt.Sprintf("%s.%s = ?", meta.Table, meta.CreatorColumn)
		userID := p.UserID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(cond, userID)
		}
	default:
		return noneFilter
	}
}

// Filter resolves the scope for resource/action and returns the matching
// row-level filter in one call. This is the entry point list endpoints use.
func Filter(p Principal, resource, action string, meta ResourceMeta) func(*gorm.DB) *gorm.DB {
	return ScopeFilter(ResolveScope(p, resource, action), p, meta)
}

func noneFilter(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}
