package members_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymcore/gymcore/internal/apitest"
	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/members"
	"github.com/gymcore/gymcore/internal/users"
)

func TestPGMemberRepository(t *testing.T) {
	ctx := context.Background()
	pool := apitest.Postgres(t)
	directory := users.NewRepository(pool)
	gymService := gyms.NewService(gyms.NewRepository(pool))
	repo := members.NewRepository(pool)

	owner := apitest.CreateUser(t, directory, "9000000001", apitest.Role(users.RoleOwner))
	gym, err := gymService.Create(ctx, owner, gyms.CreateInput{
		Name: "Iron Temple", Address: "12 MG Road", City: "Pune", ContactNumber: "0201234567",
	})
	require.NoError(t, err)
	member := apitest.CreateUser(t, directory, "9000000002", apitest.Role(users.RoleMember))

	today := time.Now().UTC().Truncate(24 * time.Hour)
	in := members.NewMember{
		GymID: gym.ID, UserID: member.ID, MembershipType: members.MembershipPaid,
		MembershipPlan: "Monthly", StartDate: today.AddDate(0, -1, 0), EndDate: today.AddDate(0, 0, -1),
	}
	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, created.User)
	assert.Equal(t, "9000000002", created.User.MobileNumber)

	_, err = repo.Create(ctx, in)
	assert.ErrorIs(t, err, members.ErrDuplicate)

	list, err := repo.ListByGyms(ctx, []int64{gym.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, member.ID, list[0].UserID)

	ids, err := repo.GymIDsForUser(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{gym.ID}, ids)

	_, err = repo.AddPayment(ctx, members.Payment{MemberID: created.ID, Amount: 1500.5, Method: "UPI", Status: members.PaymentSuccess, Date: today})
	require.NoError(t, err)
	_, err = repo.AddPayment(ctx, members.Payment{MemberID: created.ID, Amount: 99, Method: "UPI", Status: members.PaymentPending, Date: today})
	require.NoError(t, err)
	revenue, err := repo.Revenue(ctx, owner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1500.5, revenue, 0.001)

	n, err := repo.ExpireEnded(ctx, today)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	active, err := repo.CountActive(ctx, owner.ID, today)
	require.NoError(t, err)
	assert.Zero(t, active)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), members.ErrNotFound)
}
