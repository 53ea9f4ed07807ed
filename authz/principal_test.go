package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bizcore/models"
)

func TestNewPrincipal(t *testing.T) {
	employeeID := uint(3)
	teamID := uint(2)
	user := &models.User{
		Username:   "carol",
		Enabled:    true,
		EmployeeID: &employeeID,
		Employee:   &models.Employee{TeamID: &teamID},
		Roles: []models.Role{
			{
				Name: "sales-rep",
				Permissions: []models.Permission{
					{Name: "opportunity:read:own"},
					{Name: "opportunity:create"},
				},
			},
			{
				Name: "note-reader",
				Permissions: []models.Permission{
					{Name: "opportunity-note:read:own"},
					{Name: "opportunity:create"}, // duplicate across roles
				},
			},
		},
	}
	user.ID = 7

	p := NewPrincipal(user)
	assert.Equal(t, uint(7), p.UserID)
	assert.Equal(t, "carol", p.Username)
	assert.Equal(t, uint(3), p.EmployeeID)
	assert.Equal(t, uint(2), p.TeamID)
	assert.True(t, p.Enabled)

	// Union across roles, duplicates collapsed.
	assert.Len(t, p.Permissions, 3)
	assert.True(t, p.HasPermission("opportunity:read:own"))
	assert.True(t, p.HasPermission("opportunity-note:read:own"))
	assert.True(t, p.HasCapability("opportunity", "create"))
	assert.False(t, p.HasPermission("opportunity:read:all"))

	assert.Equal(t, []string{
		"opportunity-note:read:own",
		"opportunity:create",
		"opportunity:read:own",
	}, p.AuthorityNames())
}

func TestNewPrincipalWithoutEmployee(t *testing.T) {
	user := &models.User{Username: "svc-account", Enabled: true}
	user.ID = 9

	p := NewPrincipal(user)
	assert.Zero(t, p.EmployeeID)
	assert.Zero(t, p.TeamID)
	assert.Empty(t, p.Permissions)
}
