package gyms

import (
	"context"
	"errors"
	"fmt"

	"github.com/gymcore/gymcore/internal/users"
)

// Service implements gym use cases for an acting user.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput is a validated gym payload.
type CreateInput struct {
	Name            string
	Address         string
	City            string
	ContactNumber   string
	GymImages       []string
	GpayQR          *string
	PhonepeQR       *string
	Facilities      []string
	Services        []string
	MembershipPlans []MembershipPlan
}

// Create registers a gym owned by actor.
func (s *Service) Create(ctx context.Context, actor *users.User, in CreateInput) (*Gym, error) {
	if !actor.RoleIs(users.RoleOwner) {
		return nil, ErrNotOwner
	}
	gym, err := s.repo.Create(ctx, Gym{
		OwnerID:         actor.ID,
		Name:            in.Name,
		Address:         in.Address,
		City:            users.NormalizeCity(in.City),
		ContactNumber:   in.ContactNumber,
		GymImages:       UniqueStrings(in.GymImages),
		GpayQR:          in.GpayQR,
		PhonepeQR:       in.PhonepeQR,
		Facilities:      UniqueStrings(in.Facilities),
		Services:        UniqueStrings(in.Services),
		MembershipPlans: in.MembershipPlans,
		IsActive:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("create gym: %w", err)
	}
	return gym, nil
}

// Get returns a gym by id.
func (s *Service) Get(ctx context.Context, id int64) (*Gym, error) {
	return s.repo.Get(ctx, id)
}

// Owned returns the gym when actor owns it.
func (s *Service) Owned(ctx context.Context, actor *users.User, id int64) (*Gym, error) {
	gym, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !gym.OwnedBy(actor.ID) {
		return nil, ErrNotOwner
	}
	return gym, nil
}

// Visible lists gyms for actor: owners see their own, everybody else sees
// active gyms in their city.
func (s *Service) Visible(ctx context.Context, actor *users.User) ([]Gym, error) {
	if actor.RoleIs(users.RoleOwner) {
		return s.repo.ListByOwner(ctx, actor.ID)
	}
	if actor.City == nil || *actor.City == "" {
		return []Gym{}, nil
	}
	return s.repo.ListByCity(ctx, users.NormalizeCity(*actor.City))
}

// Mine lists gyms owned by actor.
func (s *Service) Mine(ctx context.Context, actor *users.User) ([]Gym, error) {
	return s.repo.ListByOwner(ctx, actor.ID)
}

// CountOwnedGyms feeds the owner onboarding gate.
func (s *Service) CountOwnedGyms(ctx context.Context, ownerID int64) (int, error) {
	return s.repo.CountByOwner(ctx, ownerID)
}

// Update applies p to a gym actor owns.
func (s *Service) Update(ctx context.Context, actor *users.User, id int64, p Patch) (*Gym, error) {
	if _, err := s.Owned(ctx, actor, id); err != nil {
		return nil, err
	}
	if p.City != nil {
		city := users.NormalizeCity(*p.City)
		p.City = &city
	}
	for _, list := range []*[]string{p.GymImages, p.Facilities, p.Services} {
		if list != nil {
			*list = UniqueStrings(*list)
		}
	}
	gym, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("update gym: %w", err)
	}
	return gym, nil
}

// Delete removes a gym actor owns together with its members, classes and
// trainers.
func (s *Service) Delete(ctx context.Context, actor *users.User, id int64) error {
	if _, err := s.Owned(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Trainers lists trainers of a gym actor owns.
func (s *Service) Trainers(ctx context.Context, actor *users.User, gymID int64) ([]Trainer, error) {
	if _, err := s.Owned(ctx, actor, gymID); err != nil {
		return nil, err
	}
	return s.repo.ListTrainers(ctx, gymID)
}

// TrainerInput identifies the person to appoint.
type TrainerInput struct {
	MobileNumber   string
	FullName       string
	Specialization *string
}

// AddTrainer appoints a trainer, creating a passwordless account when the
// mobile number is unknown. The user and the appointment commit together.
func (s *Service) AddTrainer(ctx context.Context, actor *users.User, gymID int64, in TrainerInput) (*Trainer, error) {
	if _, err := s.Owned(ctx, actor, gymID); err != nil {
		return nil, err
	}
	var out *Trainer
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		user, _, err := users.Enroll(ctx, repo.Users(), users.NewUser{
			FullName:     in.FullName,
			MobileNumber: in.MobileNumber,
		}, users.RoleTrainer)
		if err != nil {
			return err
		}
		trainer, err := repo.AddTrainer(ctx, gymID, user.ID, in.Specialization)
		if err != nil {
			return err
		}
		trainer.User = user
		out = trainer
		return nil
	})
	if err != nil {
		if errors.Is(err, users.ErrRoleConflict) || errors.Is(err, ErrTrainerExists) {
			return nil, err
		}
		return nil, fmt.Errorf("add trainer: %w", err)
	}
	return out, nil
}

// IsTrainer reports whether userID trains at gymID.
func (s *Service) IsTrainer(ctx context.Context, gymID, userID int64) (bool, error) {
	return s.repo.IsTrainer(ctx, gymID, userID)
}

// TrainerGymIDs lists gyms userID trains at.
func (s *Service) TrainerGymIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.repo.ListTrainerGymIDs(ctx, userID)
}

// ImageReferences lists image URLs still used by any gym.
func (s *Service) ImageReferences(ctx context.Context) ([]string, error) {
	return s.repo.ImageReferences(ctx)
}
