package authz

import (
	"sort"

	"bizcore/models"
)

// Principal is an authenticated identity together with its resolved
// permission set. It is passed explicitly into every authorization call;
// nothing in this package reads ambient request state.
type Principal struct {
	UserID     uint
	Username   string
	EmployeeID uint // 0 when the account has no employee record
	TeamID     uint // 0 when the employee belongs to no team
	Enabled    bool

	Permissions map[string]struct{}
}

// NewPrincipal builds a Principal from a loaded user, flattening the union of
// all role permissions. The user must have Roles.Permissions and Employee
// preloaded.
func NewPrincipal(user *models.User) Principal {
	p := Principal{
		UserID:      user.ID,
		Username:    user.Username,
		Enabled:     user.Enabled,
		Permissions: make(map[string]struct{}),
	}
	if user.EmployeeID != nil {
		p.EmployeeID = *user.EmployeeID
	}
	if user.Employee != nil && user.Employee.TeamID != nil {
		p.TeamID = *user.Employee.TeamID
	}
	for _, role := range user.Roles {
		for _, perm := range role.Permissions {
			p.Permissions[perm.Name] = struct{}{}
		}
	}
	return p
}

// HasPermission reports whether the principal holds the exact permission name.
func (p Principal) HasPermission(name string) bool {
	_, ok := p.Permissions[name]
	return ok
}

// HasCapability reports whether the principal holds the scope-less boolean
// capability "<resource>:<action>", e.g. "opportunity:create". Capabilities
// never participate in scope resolution.
func (p Principal) HasCapability(resource, action string) bool {
	return p.HasPermission(resource + ":" + action)
}

// AuthorityNames returns the principal's permission names for embedding into
// an access token.
func (p Principal) AuthorityNames() []string {
	names := make([]string, 0, len(p.Permissions))
	for name := range p.Permissions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
