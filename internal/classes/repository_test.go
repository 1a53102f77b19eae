package classes_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymcore/gymcore/internal/apitest"
	"github.com/gymcore/gymcore/internal/classes"
	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/users"
)

type pgFixture struct {
	users *users.PGRepository
	gyms  *gyms.Service
	repo  classes.Repository
	gym   *gyms.Gym
	class *classes.Class
}

func newPGFixture(t *testing.T, capacity int) *pgFixture {
	t.Helper()
	ctx := context.Background()
	pool := apitest.Postgres(t)
	directory := users.NewRepository(pool)
	gymService := gyms.NewService(gyms.NewRepository(pool))

	owner := apitest.CreateUser(t, directory, "9000000001", apitest.Role(users.RoleOwner))
	gym, err := gymService.Create(ctx, owner, gyms.CreateInput{
		Name: "Iron Temple", Address: "12 MG Road", City: "Pune", ContactNumber: "0201234567",
	})
	require.NoError(t, err)

	repo := classes.NewRepository(pool)
	class, err := repo.Create(ctx, classes.Class{
		GymID: gym.ID, Name: "HIIT", Capacity: capacity, Schedule: tomorrow(), Duration: 45,
	})
	require.NoError(t, err)
	return &pgFixture{users: directory, gyms: gymService, repo: repo, gym: gym, class: class}
}

func TestPGCreateClassUnknownGym(t *testing.T) {
	f := newPGFixture(t, 5)
	_, err := f.repo.Create(context.Background(), classes.Class{
		GymID: f.gym.ID + 1000, Name: "Yoga", Capacity: 5, Schedule: tomorrow(), Duration: 60,
	})
	assert.ErrorIs(t, err, gyms.ErrNotFound)
}

func TestPGConfirmedBookingIsUnique(t *testing.T) {
	f := newPGFixture(t, 5)
	ctx := context.Background()
	member := apitest.CreateUser(t, f.users, "9000000002", apitest.Role(users.RoleMember))

	first, err := f.repo.CreateBooking(ctx, member.ID, f.class.ID)
	require.NoError(t, err)
	assert.Equal(t, classes.BookingConfirmed, first.Status)

	_, err = f.repo.CreateBooking(ctx, member.ID, f.class.ID)
	assert.ErrorIs(t, err, classes.ErrAlreadyBooked)

	_, err = f.repo.CancelBooking(ctx, first.ID)
	require.NoError(t, err)
	_, err = f.repo.CreateBooking(ctx, member.ID, f.class.ID)
	require.NoError(t, err)

	class, err := f.repo.Get(ctx, f.class.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, class.BookedCount)

	_, err = f.repo.LockClass(ctx, f.class.ID+1000)
	assert.ErrorIs(t, err, classes.ErrNotFound)
}

func TestPGConcurrentBookingsRespectCapacity(t *testing.T) {
	f := newPGFixture(t, 3)
	ctx := context.Background()
	memberships := staticMemberships{}
	actors := make([]*users.User, 10)
	for i := range actors {
		actors[i] = apitest.CreateUser(t, f.users, fmt.Sprintf("91000000%02d", i), apitest.Role(users.RoleMember))
		memberships[actors[i].ID] = []int64{f.gym.ID}
	}
	service := classes.NewService(f.repo, f.gyms, memberships)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, full int
	for _, actor := range actors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Book(ctx, actor, f.class.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, classes.ErrClassFull):
				full++
			default:
				t.Errorf("book: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, ok)
	assert.Equal(t, 7, full)

	class, err := f.repo.Get(ctx, f.class.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, class.BookedCount)
}

func TestPGLockClassBlocksSecondTransaction(t *testing.T) {
	f := newPGFixture(t, 1)
	ctx := context.Background()
	member := apitest.CreateUser(t, f.users, "9000000002", apitest.Role(users.RoleMember))
	other := apitest.CreateUser(t, f.users, "9000000003", apitest.Role(users.RoleMember))

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f.repo.WithTx(ctx, func(ctx context.Context, repo classes.Repository) error {
			if _, err := repo.LockClass(ctx, f.class.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			_, err := repo.CreateBooking(ctx, member.ID, f.class.ID)
			return err
		})
	}()
	<-locked

	seen := make(chan int, 1)
	go func() {
		_ = f.repo.WithTx(ctx, func(ctx context.Context, repo classes.Repository) error {
			class, err := repo.LockClass(ctx, f.class.ID)
			if err != nil {
				return err
			}
			seen <- class.BookedCount
			return nil
		})
	}()

	select {
	case <-seen:
		t.Fatal("second transaction read the class while it was locked")
	case <-time.After(200 * time.Millisecond):
	}
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, <-seen)

	has, err := f.repo.HasBooking(ctx, other.ID, f.class.ID)
	require.NoError(t, err)
	assert.False(t, has)
}
