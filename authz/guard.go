package authz

// ResourceContext carries the authorization-relevant fields of one loaded
// business entity. It is constructed per access check and never persisted.
type ResourceContext struct {
	CreatorID   uint
	AssigneeIDs []uint // employee ids; supports several assignees per entity
	TeamID      uint   // 0 when the entity has no team

	// PrivateTo, when non-zero, marks the entity private to that author:
	// only the author and unrestricted ("all") holders may access it,
	// regardless of team or assignment.
	PrivateTo uint
}

// CanAccess performs the scoped access decision against an already-loaded
// entity, for cases a query filter cannot express (single-item fetches,
// nested children, private flags). Semantics mirror ScopeFilter, evaluated
// against one object instead of a query. Overlay rules such as PrivateTo take
// precedence over the generic scope check.
//
// Callers on read-by-id paths must report a denial as "not found"; callers on
// write paths where the entity was already visible report it as access
// denied. That mapping is the caller's job, CanAccess only decides.
func CanAccess(p Principal, rc ResourceContext, resource, action string) bool {
	scope := ResolveScope(p, resource, action)
	if scope == ScopeNone {
		return false
	}

	if rc.PrivateTo != 0 {
		return rc.PrivateTo == p.UserID || scope == ScopeAll
	}

	switch scope {
	case ScopeAll:
		return true
	case ScopeTeam:
		return rc.TeamID != 0 && rc.TeamID == p.TeamID
	case ScopeAssigned:
		if p.EmployeeID == 0 {
			return false
		}
		for _, id := range rc.AssigneeIDs {
			if id == p.EmployeeID {
				return true
			}
		}
		return false
	case ScopeOwn:
		return rc.CreatorID == p.UserID
	default:
		return false
	}
}
