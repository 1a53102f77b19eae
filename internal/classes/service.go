package classes

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/users"
)

// GymDirectory is the slice of the gym service classes need.
type GymDirectory interface {
	Get(ctx context.Context, id int64) (*gyms.Gym, error)
	Mine(ctx context.Context, actor *users.User) ([]gyms.Gym, error)
	IsTrainer(ctx context.Context, gymID, userID int64) (bool, error)
	TrainerGymIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Memberships lists the gyms a member belongs to.
type Memberships interface {
	GymIDsFor(ctx context.Context, userID int64) ([]int64, error)
}

// Service implements class scheduling and booking.
type Service struct {
	repo        Repository
	gyms        GymDirectory
	memberships Memberships
	now         func() time.Time
}

// NewService builds Service instance.
func NewService(repo Repository, gymDir GymDirectory, memberships Memberships) *Service {
	return &Service{repo: repo, gyms: gymDir, memberships: memberships, now: time.Now}
}

// visibleGymIDs returns the gyms whose classes actor may see.
func (s *Service) visibleGymIDs(ctx context.Context, actor *users.User) ([]int64, error) {
	switch {
	case actor.RoleIs(users.RoleOwner):
		owned, err := s.gyms.Mine(ctx, actor)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(owned))
		for _, g := range owned {
			ids = append(ids, g.ID)
		}
		return ids, nil
	case actor.RoleIs(users.RoleTrainer):
		return s.gyms.TrainerGymIDs(ctx, actor.ID)
	case actor.RoleIs(users.RoleMember):
		return s.memberships.GymIDsFor(ctx, actor.ID)
	}
	return []int64{}, nil
}

// List returns classes visible to actor, optionally narrowed to one gym.
func (s *Service) List(ctx context.Context, actor *users.User, gymID int64) ([]Class, error) {
	ids, err := s.visibleGymIDs(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("visible gyms: %w", err)
	}
	if gymID != 0 {
		if !slices.Contains(ids, gymID) {
			if _, err := s.gyms.Get(ctx, gymID); err != nil {
				return nil, err
			}
			return nil, ErrForbidden
		}
		ids = []int64{gymID}
	}
	return s.repo.ListByGyms(ctx, ids)
}

// CreateInput is a validated class.
type CreateInput struct {
	GymID       int64
	Name        string
	Description *string
	TrainerID   *int64
	Capacity    int
	Schedule    time.Time
	Duration    int
}

// Create schedules a class at a gym actor owns.
func (s *Service) Create(ctx context.Context, actor *users.User, in CreateInput) (*Class, error) {
	gym, err := s.gyms.Get(ctx, in.GymID)
	if err != nil {
		return nil, err
	}
	if !gym.OwnedBy(actor.ID) {
		return nil, ErrForbidden
	}
	if in.TrainerID != nil {
		ok, err := s.gyms.IsTrainer(ctx, gym.ID, *in.TrainerID)
		if err != nil {
			return nil, fmt.Errorf("check trainer: %w", err)
		}
		if !ok {
			return nil, ErrNotGymTrainer
		}
	}
	return s.repo.Create(ctx, Class{
		GymID:       gym.ID,
		Name:        in.Name,
		Description: in.Description,
		TrainerID:   in.TrainerID,
		Capacity:    in.Capacity,
		Schedule:    in.Schedule.UTC(),
		Duration:    in.Duration,
	})
}

// Delete removes a class from a gym actor owns. Its bookings go with it.
func (s *Service) Delete(ctx context.Context, actor *users.User, id int64) error {
	class, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	gym, err := s.gyms.Get(ctx, class.GymID)
	if err != nil {
		return err
	}
	if !gym.OwnedBy(actor.ID) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// Bookings lists actor's bookings with their classes.
func (s *Service) Bookings(ctx context.Context, actor *users.User) ([]Booking, error) {
	return s.repo.ListBookings(ctx, actor.ID)
}

// Book reserves a spot for actor at a gym actor belongs to. The class row
// stays locked while capacity is checked so concurrent bookings cannot
// overfill it.
func (s *Service) Book(ctx context.Context, actor *users.User, classID int64) (*Booking, error) {
	ids, err := s.visibleGymIDs(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("visible gyms: %w", err)
	}
	var out *Booking
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		class, err := repo.LockClass(ctx, classID)
		if err != nil {
			return err
		}
		if !slices.Contains(ids, class.GymID) {
			return ErrForbidden
		}
		if !class.Schedule.After(s.now()) {
			return ErrClassStarted
		}
		booked, err := repo.HasBooking(ctx, actor.ID, classID)
		if err != nil {
			return err
		}
		if booked {
			return ErrAlreadyBooked
		}
		if class.Full() {
			return ErrClassFull
		}
		booking, err := repo.CreateBooking(ctx, actor.ID, classID)
		if err != nil {
			return err
		}
		class.BookedCount++
		booking.Class = class
		out = booking
		return nil
	})
	if err != nil {
		if isBookingError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("book class: %w", err)
	}
	return out, nil
}

func isBookingError(err error) bool {
	for _, target := range []error{ErrNotFound, ErrForbidden, ErrClassStarted, ErrAlreadyBooked, ErrClassFull} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Cancel releases actor's booking. Cancelling twice returns the booking
// unchanged.
func (s *Service) Cancel(ctx context.Context, actor *users.User, id int64) (*Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.ID {
		return nil, ErrNotBookingOwner
	}
	if booking.Status == BookingCancelled {
		return booking, nil
	}
	return s.repo.CancelBooking(ctx, id)
}
