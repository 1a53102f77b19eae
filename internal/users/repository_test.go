package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymcore/gymcore/internal/apitest"
	"github.com/gymcore/gymcore/internal/users"
)

func TestPGRepositoryUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := users.NewRepository(apitest.Postgres(t))

	created, err := repo.Create(ctx, users.NewUser{
		FullName: "Asha Rao", MobileNumber: "9876543210", Username: "asha", PasswordHash: "x.y",
	})
	require.NoError(t, err)
	assert.False(t, created.HasRole())

	_, err = repo.Create(ctx, users.NewUser{FullName: "Other", MobileNumber: "9876543210", Username: "other"})
	assert.ErrorIs(t, err, users.ErrMobileTaken)

	_, err = repo.Create(ctx, users.NewUser{FullName: "Other", MobileNumber: "9123456789", Username: "asha"})
	assert.ErrorIs(t, err, users.ErrUsernameTaken)

	found, err := repo.FindByMobile(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, found.CanLogin())

	updated, err := repo.AssignRole(ctx, created.ID, users.RoleOwner)
	require.NoError(t, err)
	assert.True(t, updated.RoleIs(users.RoleOwner))

	_, err = repo.FindByID(ctx, created.ID+1000)
	assert.ErrorIs(t, err, users.ErrNotFound)
}
