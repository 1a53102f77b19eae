package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNormalizeCity(t *testing.T) {
	assert.Equal(t, "New Delhi", NormalizeCity("  new   DELHI "))
	assert.Equal(t, "Pune", NormalizeCity("pune"))
	assert.Equal(t, "", NormalizeCity("   "))
}

func TestNormalizeMobile(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizeMobile(" +91 98765-43210 "))
	assert.Equal(t, "9876543210", NormalizeMobile("(987) 654 3210"))
}

func TestEnrollCreatesPasswordlessAccount(t *testing.T) {
	repo := NewMemoryRepository()
	user, created, err := Enroll(context.Background(), repo, NewUser{
		FullName:     "Asha",
		MobileNumber: "98765 43210",
		City:         ptr("mumbai"),
	}, RoleMember)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "9876543210", user.MobileNumber)
	assert.Equal(t, "9876543210", user.Username)
	assert.Equal(t, "Mumbai", *user.City)
	assert.True(t, user.RoleIs(RoleMember))
	assert.False(t, user.CanLogin())
}

func TestEnrollReusesExistingUser(t *testing.T) {
	repo := NewMemoryRepository()
	existing, err := repo.Create(context.Background(), NewUser{FullName: "Ravi", MobileNumber: "111", Username: "ravi", PasswordHash: "h.s"})
	require.NoError(t, err)

	user, created, err := Enroll(context.Background(), repo, NewUser{FullName: "Other", MobileNumber: "111"}, RoleTrainer)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "Ravi", user.FullName)
	assert.True(t, user.RoleIs(RoleTrainer))

	again, created, err := Enroll(context.Background(), repo, NewUser{MobileNumber: "111"}, RoleTrainer)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, again.ID)
}

func TestEnrollRejectsDifferentRole(t *testing.T) {
	repo := NewMemoryRepository()
	_, err := repo.Create(context.Background(), NewUser{FullName: "Owner", MobileNumber: "222", Username: "222", Role: ptr(RoleOwner)})
	require.NoError(t, err)

	_, _, err = Enroll(context.Background(), repo, NewUser{MobileNumber: "222"}, RoleMember)
	assert.ErrorIs(t, err, ErrRoleConflict)
}

func TestMemoryAssignRoleIsOneWay(t *testing.T) {
	repo := NewMemoryRepository()
	u, err := repo.Create(context.Background(), NewUser{FullName: "A", MobileNumber: "1", Username: "1"})
	require.NoError(t, err)
	assert.False(t, u.HasRole())

	u, err = repo.AssignRole(context.Background(), u.ID, RoleOwner)
	require.NoError(t, err)
	assert.True(t, u.RoleIs(RoleOwner))

	_, err = repo.AssignRole(context.Background(), u.ID, RoleOwner)
	assert.NoError(t, err)
	_, err = repo.AssignRole(context.Background(), u.ID, RoleMember)
	assert.ErrorIs(t, err, ErrRoleAlreadySet)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleOwner.Valid())
	assert.True(t, RoleTrainer.Valid())
	assert.True(t, RoleMember.Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}
