package plans_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymcore/gymcore/internal/access"
	"github.com/gymcore/gymcore/internal/apitest"
	"github.com/gymcore/gymcore/internal/members"
	"github.com/gymcore/gymcore/internal/plans"
	"github.com/gymcore/gymcore/internal/platform/httpx"
	"github.com/gymcore/gymcore/internal/users"
)

// staticAuthorizer admits staff for writes and staff or the member for
// reads of member 1. Every other member is unknown.
type staticAuthorizer struct {
	staff  map[int64]bool
	member int64
}

func (a staticAuthorizer) Authorize(ctx context.Context, actor *users.User, memberID int64, perm members.Permission) (*members.Member, error) {
	if memberID != 1 {
		return nil, members.ErrNotFound
	}
	if a.staff[actor.ID] || (perm == members.StaffOrSelf && actor.ID == a.member) {
		return &members.Member{ID: 1, UserID: a.member}, nil
	}
	return nil, members.ErrForbidden
}

type memoryRepo struct {
	mu       sync.Mutex
	workouts []plans.WorkoutPlan
	diets    []plans.DietPlan
}

func (m *memoryRepo) ListWorkouts(ctx context.Context, memberID int64) ([]plans.WorkoutPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []plans.WorkoutPlan{}
	for _, p := range m.workouts {
		if p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryRepo) CreateWorkout(ctx context.Context, p plans.WorkoutPlan) (*plans.WorkoutPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.workouts) + 1)
	p.CreatedAt = time.Now().UTC()
	m.workouts = append(m.workouts, p)
	return &p, nil
}

func (m *memoryRepo) ListDiets(ctx context.Context, memberID int64) ([]plans.DietPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []plans.DietPlan{}
	for _, p := range m.diets {
		if p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryRepo) CreateDiet(ctx context.Context, p plans.DietPlan) (*plans.DietPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.diets) + 1)
	p.CreatedAt = time.Now().UTC()
	m.diets = append(m.diets, p)
	return &p, nil
}

type fixture struct {
	client  *apitest.Client
	trainer *users.User
	member  *users.User
	other   *users.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	directory := users.NewMemoryRepository()
	trainer := apitest.CreateUser(t, directory, "9000000001", apitest.Role(users.RoleTrainer))
	member := apitest.CreateUser(t, directory, "9000000002", apitest.Role(users.RoleMember))
	other := apitest.CreateUser(t, directory, "9000000003", apitest.Role(users.RoleMember))

	service := plans.NewService(&memoryRepo{}, staticAuthorizer{staff: map[int64]bool{trainer.ID: true}, member: member.ID})
	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		plans.NewHandler(nil, service, access.Middleware{Users: directory}).MountRoutes(r)
	})
	return &fixture{client: apitest.NewClient(t, router), trainer: trainer, member: member, other: other}
}

func TestWorkoutPlans(t *testing.T) {
	f := newFixture(t)
	payload := map[string]any{
		"memberId": 1,
		"title":    "Push day",
		"notes":    "**Warm up** first\n<script>alert(1)</script>",
		"exercises": []map[string]any{
			{"name": "Bench press", "sets": 4, "reps": 8, "weight": 60},
		},
	}

	rec := f.client.Do(http.MethodPost, "/api/workouts", payload, f.trainer.ID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	plan := apitest.Decode[plans.WorkoutPlan](t, rec)
	assert.Contains(t, plan.NotesHTML, "<strong>Warm up</strong>")
	assert.NotContains(t, plan.NotesHTML, "<script>")
	require.NotNil(t, plan.CreatedBy)
	assert.Equal(t, f.trainer.ID, *plan.CreatedBy)

	rec = f.client.Do(http.MethodPost, "/api/workouts", payload, f.member.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.client.Do(http.MethodGet, "/api/members/1/workouts", nil, f.member.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	list := apitest.Decode[[]plans.WorkoutPlan](t, rec)
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0].NotesHTML)

	rec = f.client.Do(http.MethodGet, "/api/members/1/workouts", nil, f.other.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.client.Do(http.MethodGet, "/api/members/2/workouts", nil, f.trainer.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkoutValidation(t *testing.T) {
	f := newFixture(t)
	rec := f.client.Do(http.MethodPost, "/api/workouts", map[string]any{
		"memberId":  1,
		"title":     "Legs",
		"exercises": []map[string]any{{"sets": 3}},
	}, f.trainer.ID)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name", apitest.Decode[httpx.ErrorBody](t, rec).Field)
}

func TestDietPlans(t *testing.T) {
	f := newFixture(t)
	rec := f.client.Do(http.MethodPost, "/api/diets", map[string]any{
		"memberId": 1,
		"title":    "Cut",
		"meals":    []map[string]any{{"name": "Breakfast", "items": []string{"Oats", "Eggs"}, "calories": 450}},
	}, f.trainer.ID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	plan := apitest.Decode[plans.DietPlan](t, rec)
	assert.Empty(t, plan.NotesHTML)
	require.Len(t, plan.Meals, 1)

	rec = f.client.Do(http.MethodGet, "/api/members/1/diets", nil, f.member.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, apitest.Decode[[]plans.DietPlan](t, rec), 1)
}

func TestRenderNotes(t *testing.T) {
	assert.Equal(t, "", plans.RenderNotes(""))
	out := plans.RenderNotes("line one\nline two")
	assert.Contains(t, out, "<br")
}
