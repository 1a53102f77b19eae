package members_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymcore/gymcore/internal/access"
	"github.com/gymcore/gymcore/internal/apitest"
	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/members"
	"github.com/gymcore/gymcore/internal/notify"
	"github.com/gymcore/gymcore/internal/platform/httpx"
	"github.com/gymcore/gymcore/internal/users"
)

type recordingMailer struct {
	sent []notify.Message
	err  error
}

func (m *recordingMailer) EnqueueMail(ctx context.Context, msg notify.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	users   *users.MemoryRepository
	gyms    *gyms.Service
	repo    *members.MemoryRepository
	service *members.Service
	mailer  *recordingMailer
	client  *apitest.Client
	owner   *users.User
	gym     *gyms.Gym
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	directory := users.NewMemoryRepository()
	gymRepo := gyms.NewMemoryRepository(directory)
	gymService := gyms.NewService(gymRepo)
	repo := members.NewMemoryRepository(directory, gymService)
	mailer := &recordingMailer{}
	service := members.NewService(repo, gymService, mailer, nil)
	gate := access.Middleware{Users: directory, Gyms: gymService}

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		members.NewHandler(nil, service, gate).MountRoutes(r)
	})

	owner := apitest.CreateUser(t, directory, "9000000001", apitest.Role(users.RoleOwner))
	gym, err := gymService.Create(ctx, owner, gyms.CreateInput{Name: "Iron Temple", City: "Pune"})
	require.NoError(t, err)

	return &fixture{
		users: directory, gyms: gymService, repo: repo, service: service, mailer: mailer,
		client: apitest.NewClient(t, router), owner: owner, gym: gym,
	}
}

func (f *fixture) enrollPayload(mobile string) map[string]any {
	return map[string]any{
		"gymId":          f.gym.ID,
		"mobileNumber":   mobile,
		"fullName":       "Asha Rao",
		"email":          "asha@example.com",
		"membershipType": "PAID",
		"membershipPlan": "Monthly",
		"goals":          []string{"Strength", "strength"},
		"startDate":      time.Now().UTC().Format(members.DateLayout),
		"endDate":        time.Now().UTC().AddDate(0, 1, 0).Format(members.DateLayout),
	}
}

func (f *fixture) enroll(t *testing.T, mobile string) members.Member {
	t.Helper()
	rec := f.client.Do(http.MethodPost, "/api/members", f.enrollPayload(mobile), f.owner.ID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return apitest.Decode[members.Member](t, rec)
}

func path(format string, id int64) string {
	return "/api/members/" + strconv.FormatInt(id, 10) + format
}

func TestEnrollCreatesPasswordlessMember(t *testing.T) {
	f := newFixture(t)
	member := f.enroll(t, "9123456789")

	assert.Equal(t, f.gym.ID, member.GymID)
	assert.Equal(t, members.StatusActive, member.Status)
	assert.Equal(t, []string{"Strength"}, member.Goals)
	require.NotNil(t, member.User)
	require.NotNil(t, member.Gym)
	assert.Equal(t, "Iron Temple", member.Gym.Name)

	user, err := f.users.FindByMobile(context.Background(), "9123456789")
	require.NoError(t, err)
	assert.True(t, user.RoleIs(users.RoleMember))
	assert.False(t, user.CanLogin())
	assert.Equal(t, "9123456789", user.Username)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "asha@example.com", f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].Subject, "Iron Temple")
}

func TestEnrollReusesExistingMember(t *testing.T) {
	f := newFixture(t)
	existing := apitest.CreateUser(t, f.users, "9123456789", apitest.Role(users.RoleMember))

	member := f.enroll(t, "9123456789")
	assert.Equal(t, existing.ID, member.UserID)
}

func TestEnrollConflicts(t *testing.T) {
	f := newFixture(t)
	f.enroll(t, "9123456789")

	rec := f.client.Do(http.MethodPost, "/api/members", f.enrollPayload("9123456789"), f.owner.ID)
	assert.Equal(t, http.StatusConflict, rec.Code)

	trainer := apitest.CreateUser(t, f.users, "9111111111", apitest.Role(users.RoleTrainer))
	rec = f.client.Do(http.MethodPost, "/api/members", f.enrollPayload(trainer.MobileNumber), f.owner.ID)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "mobileNumber", apitest.Decode[httpx.ErrorBody](t, rec).Field)
}

func TestEnrollValidation(t *testing.T) {
	f := newFixture(t)

	payload := f.enrollPayload("9123456789")
	payload["endDate"] = "2020-01-01"
	rec := f.client.Do(http.MethodPost, "/api/members", payload, f.owner.ID)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "endDate", apitest.Decode[httpx.ErrorBody](t, rec).Field)

	payload = f.enrollPayload("9123456789")
	payload["startDate"] = "01/02/2025"
	rec = f.client.Do(http.MethodPost, "/api/members", payload, f.owner.ID)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "startDate", apitest.Decode[httpx.ErrorBody](t, rec).Field)

	payload = f.enrollPayload("9123456789")
	payload["membershipType"] = "VIP"
	rec = f.client.Do(http.MethodPost, "/api/members", payload, f.owner.ID)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "membershipType", apitest.Decode[httpx.ErrorBody](t, rec).Field)
}

func TestEnrollIntoForeignGymIsForbidden(t *testing.T) {
	f := newFixture(t)
	other := apitest.CreateUser(t, f.users, "9000000002", apitest.Role(users.RoleOwner))
	_, err := f.gyms.Create(context.Background(), other, gyms.CreateInput{Name: "Other", City: "Pune"})
	require.NoError(t, err)

	rec := f.client.Do(http.MethodPost, "/api/members", f.enrollPayload("9123456789"), other.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rows, err := f.repo.ListByGyms(context.Background(), []int64{f.gym.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestOwnerWithoutGymIsSentToCreate(t *testing.T) {
	f := newFixture(t)
	owner := apitest.CreateUser(t, f.users, "9000000003", apitest.Role(users.RoleOwner))

	rec := f.client.Do(http.MethodGet, "/api/members", nil, owner.ID)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, access.PathCreateGym, apitest.Decode[httpx.ErrorBody](t, rec).Redirect)
}

func TestListMembers(t *testing.T) {
	f := newFixture(t)
	f.enroll(t, "9123456789")
	f.enroll(t, "9123456780")

	rec := f.client.Do(http.MethodGet, "/api/members", nil, f.owner.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	list := apitest.Decode[[]members.Member](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, f.gym.ID, list[0].Gym.ID)

	rec = f.client.Do(http.MethodGet, "/api/gyms/"+strconv.FormatInt(f.gym.ID, 10)+"/members", nil, f.owner.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, apitest.Decode[[]members.Member](t, rec), 2)

	rec = f.client.Do(http.MethodGet, "/api/members?gymId=999", nil, f.owner.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.client.Do(http.MethodGet, "/api/members?gymId=abc", nil, f.owner.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMemberSeesOwnRecordOnly(t *testing.T) {
	f := newFixture(t)
	mine := f.enroll(t, "9123456789")
	theirs := f.enroll(t, "9123456780")

	rec := f.client.Do(http.MethodGet, path("", mine.ID), nil, mine.UserID)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.client.Do(http.MethodGet, path("", theirs.ID), nil, mine.UserID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.client.Do(http.MethodDelete, path("", mine.ID), nil, mine.UserID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.client.Do(http.MethodGet, path("", 999), nil, f.owner.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttendanceAndPayments(t *testing.T) {
	f := newFixture(t)
	member := f.enroll(t, "9123456789")

	rec := f.client.Do(http.MethodPost, path("/attendance", member.ID), map[string]any{"method": "QR"}, f.owner.ID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	visit := apitest.Decode[members.Attendance](t, rec)
	assert.Equal(t, "present", visit.Status)
	assert.WithinDuration(t, time.Now(), visit.Date, time.Minute)

	rec = f.client.Do(http.MethodPost, path("/attendance", member.ID), map[string]any{"method": "FACE"}, f.owner.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.client.Do(http.MethodPost, path("/attendance", member.ID), map[string]any{"method": "QR"}, member.UserID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.client.Do(http.MethodGet, path("/attendance", member.ID), nil, member.UserID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, apitest.Decode[[]members.Attendance](t, rec), 1)

	rec = f.client.Do(http.MethodPost, path("/payments", member.ID), map[string]any{"amount": 0, "method": "cash"}, f.owner.ID)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "amount", apitest.Decode[httpx.ErrorBody](t, rec).Field)

	rec = f.client.Do(http.MethodPost, path("/payments", member.ID), map[string]any{"amount": 1500, "method": "upi"}, f.owner.ID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, members.PaymentSuccess, apitest.Decode[members.Payment](t, rec).Status)

	rec = f.client.Do(http.MethodPost, path("/payments", member.ID), map[string]any{"amount": 700, "method": "card", "status": "PENDING"}, f.owner.ID)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.client.Do(http.MethodGet, path("/payments", member.ID), nil, member.UserID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, apitest.Decode[[]members.Payment](t, rec), 2)

	rec = f.client.Do(http.MethodGet, "/api/stats/owner", nil, f.owner.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := apitest.Decode[members.OwnerStats](t, rec)
	assert.Equal(t, 1500.0, stats.TotalRevenue)
	assert.Equal(t, 1, stats.ActiveMembers)

	rec = f.client.Do(http.MethodGet, "/api/stats/owner", nil, member.UserID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatsFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.Err = errors.New("db down")
	_, err := f.service.Stats(context.Background(), f.owner)
	assert.Error(t, err)
}

func TestExpireMemberships(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member, err := f.service.Enroll(ctx, f.owner, members.EnrollInput{
		GymID:          f.gym.ID,
		MobileNumber:   "9123456789",
		FullName:       "Old Member",
		MembershipType: members.MembershipFree,
		MembershipPlan: "Trial",
		StartDate:      time.Now().AddDate(0, -2, 0),
		EndDate:        time.Now().AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	assert.Empty(t, f.mailer.sent)

	n, err := f.service.ExpireMemberships(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.service.Get(ctx, f.owner, member.ID)
	require.NoError(t, err)
	assert.Equal(t, members.StatusExpired, got.Status)
}

func TestWelcomeFailureDoesNotFailEnrollment(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("redis down")
	f.enroll(t, "9123456789")
}
