package authz

// Scope is the breadth of data visibility resolved for a principal, resource
// and action. Values are strictly ordered: ScopeAll > ScopeTeam >
// ScopeAssigned > ScopeOwn > ScopeNone.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeAssigned
	ScopeTeam
	ScopeAll
)

// scopeSuffixes in resolution order, broadest first.
var scopeSuffixes = []struct {
	scope  Scope
	suffix string
}{
	{ScopeAll, "all"},
	{ScopeTeam, "team"},
	{ScopeAssigned, "assigned"},
	{ScopeOwn, "own"},
}

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeTeam:
		return "team"
	case ScopeAssigned:
		return "assigned"
	case ScopeOwn:
		return "own"
	default:
		return "none"
	}
}

// Includes reports whether s is at least as broad as other.
func (s Scope) Includes(other Scope) bool {
	return s >= other
}

// Common resource and action names used across the backend.
const (
	ResourceOpportunity     = "opportunity"
	ResourceOpportunityNote = "opportunity-note"
	ResourceContract        = "contract"
	ResourceEmployee        = "employee"

	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionCreate = "create"
)

// ResolveScope returns the broadest visibility scope the principal holds for
// the given resource and action by walking "<resource>:<action>:<scope>"
// permission names in precedence order. The first match wins; holding both
// "own" and "assigned" resolves to "assigned", never to a merge of the two.
// A principal with no matching permission resolves to ScopeNone.
//
// Pure function of the permission set: no I/O, no side effects.
func ResolveScope(p Principal, resource, action string) Scope {
	prefix := resource + ":" + action + ":"
	for _, candidate := range scopeSuffixes {
		if p.HasPermission(prefix + candidate.suffix) {
			return candidate.scope
		}
	}
	return ScopeNone
}
