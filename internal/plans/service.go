package plans

import (
	"context"

	"github.com/gymcore/gymcore/internal/members"
	"github.com/gymcore/gymcore/internal/users"
)

// MemberAuthorizer checks access to a member's records.
type MemberAuthorizer interface {
	Authorize(ctx context.Context, actor *users.User, memberID int64, perm members.Permission) (*members.Member, error)
}

// Service implements plan use cases. Gym staff write plans; the member may
// read them.
type Service struct {
	repo    Repository
	members MemberAuthorizer
}

// NewService builds Service instance.
func NewService(repo Repository, memberAuth MemberAuthorizer) *Service {
	return &Service{repo: repo, members: memberAuth}
}

// Workouts lists workout plans of a member.
func (s *Service) Workouts(ctx context.Context, actor *users.User, memberID int64) ([]WorkoutPlan, error) {
	if _, err := s.members.Authorize(ctx, actor, memberID, members.StaffOrSelf); err != nil {
		return nil, err
	}
	list, err := s.repo.ListWorkouts(ctx, memberID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].NotesHTML = RenderNotes(list[i].Notes)
	}
	return list, nil
}

// CreateWorkout stores a workout plan authored by actor.
func (s *Service) CreateWorkout(ctx context.Context, actor *users.User, p WorkoutPlan) (*WorkoutPlan, error) {
	if _, err := s.members.Authorize(ctx, actor, p.MemberID, members.Staff); err != nil {
		return nil, err
	}
	if p.Exercises == nil {
		p.Exercises = []Exercise{}
	}
	author := actor.ID
	p.CreatedBy = &author
	out, err := s.repo.CreateWorkout(ctx, p)
	if err != nil {
		return nil, err
	}
	out.NotesHTML = RenderNotes(out.Notes)
	return out, nil
}

// Diets lists diet plans of a member.
func (s *Service) Diets(ctx context.Context, actor *users.User, memberID int64) ([]DietPlan, error) {
	if _, err := s.members.Authorize(ctx, actor, memberID, members.StaffOrSelf); err != nil {
		return nil, err
	}
	list, err := s.repo.ListDiets(ctx, memberID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].NotesHTML = RenderNotes(list[i].Notes)
	}
	return list, nil
}

// CreateDiet stores a diet plan authored by actor.
func (s *Service) CreateDiet(ctx context.Context, actor *users.User, p DietPlan) (*DietPlan, error) {
	if _, err := s.members.Authorize(ctx, actor, p.MemberID, members.Staff); err != nil {
		return nil, err
	}
	if p.Meals == nil {
		p.Meals = []Meal{}
	}
	author := actor.ID
	p.CreatedBy = &author
	out, err := s.repo.CreateDiet(ctx, p)
	if err != nil {
		return nil, err
	}
	out.NotesHTML = RenderNotes(out.Notes)
	return out, nil
}
