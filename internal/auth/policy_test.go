package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed(OpCollegeMerge, RoleSuperAdmin))
	assert.False(t, Allowed(OpCollegeMerge, RolePaymentsAdmin))
	assert.False(t, Allowed(OpCollegeCreate, RoleViewOnly))

	assert.True(t, Allowed(OpPassVerify, RolePaymentsAdmin))
	assert.True(t, Allowed(OpPassVerify, RoleSuperAdmin))
	assert.False(t, Allowed(OpPassVerify, RoleEventsAdmin))
	assert.False(t, Allowed(OpPassGateComplete, RoleViewOnly))

	assert.True(t, Allowed(OpPassList, RoleViewOnly))
	assert.True(t, Allowed(OpCollegeList, RoleIdeathonAdmin))
}

func TestAllowedUnknown(t *testing.T) {
	assert.False(t, Allowed(Operation("nope"), RoleSuperAdmin))
	assert.False(t, Allowed(OpPassVerify, "not-a-role"))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleSuperAdmin))
	assert.True(t, IsValidRole(RolePaperPresentationAdmin))
	assert.False(t, IsValidRole("admin"))
	assert.False(t, IsValidRole(""))
}
