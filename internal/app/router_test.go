package app_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymcore/gymcore/internal/access"
	"github.com/gymcore/gymcore/internal/app"
	"github.com/gymcore/gymcore/internal/auth"
	"github.com/gymcore/gymcore/internal/classes"
	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/members"
	"github.com/gymcore/gymcore/internal/observability"
	"github.com/gymcore/gymcore/internal/shared"
	"github.com/gymcore/gymcore/internal/uploads"
	"github.com/gymcore/gymcore/internal/users"
	"github.com/gymcore/gymcore/jobs"
	_ "github.com/gymcore/gymcore/testing"
)

type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
	csrf    string
}

func newClient(t *testing.T) (*client, *uploads.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &app.Config{AppEnv: "development", RateLimitPerMinute: 1000, LoginRatePerMinute: 100}
	sessions := shared.NewSessionManager(shared.NewRedisSessionStore(rdb), "gymcore_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")

	userRepo := users.NewMemoryRepository()
	gymService := gyms.NewService(gyms.NewMemoryRepository(userRepo))
	gate := access.Middleware{Users: userRepo, Gyms: gymService}
	memberService := members.NewService(members.NewMemoryRepository(userRepo, gymService), gymService, nil, nil)
	classService := classes.NewService(classes.NewMemoryRepository(), gymService, memberService)

	store, err := uploads.NewStore(t.TempDir(), "/uploads", 1<<20)
	require.NoError(t, err)

	router := app.NewRouter(app.RouterParams{
		Config:         cfg,
		SessionManager: sessions,
		CSRFManager:    csrf,
		Metrics:        observability.NewMetrics(),
		AuthHandler:    auth.NewHandler(nil, auth.NewService(userRepo, nil), sessions, csrf, gate),
		AccessHandler:  access.NewHandler(gate),
		GymsHandler:    gyms.NewHandler(nil, gymService, gate),
		MembersHandler: members.NewHandler(nil, memberService, gate),
		ClassesHandler: classes.NewHandler(nil, classService, gate),
		UploadsHandler: uploads.NewHandler(nil, store, gate),
		JobHandler:     jobs.NewHandler(nil, nil),
	})
	return &client{t: t, handler: router, cookies: map[string]*http.Cookie{}}, store
}

func (c *client) do(method, target string, body any, withCSRF bool) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if withCSRF {
		req.Header.Set(shared.CSRFHeader, c.csrf)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	if token := rec.Header().Get(shared.CSRFHeader); token != "" {
		c.csrf = token
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	c, _ := newClient(t)

	rec := c.do(http.MethodGet, "/healthz", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = c.do(http.MethodGet, "/jobs/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/metrics", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gymcore_http_requests_total")
}

func TestUnknownAPIRouteIsJSON(t *testing.T) {
	c, _ := newClient(t)
	rec := c.do(http.MethodGet, "/api/nope", nil, false)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decode[map[string]any](t, rec)["message"])
}

func TestOwnerOnboardingFlow(t *testing.T) {
	c, _ := newClient(t)

	rec := c.do(http.MethodPost, "/api/register", map[string]any{
		"fullName":     "Asha Rao",
		"mobileNumber": "9876543210",
		"password":     "secret123",
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotEmpty(t, c.csrf)

	result := decode[access.Result](t, c.do(http.MethodGet, "/api/access?path=/dashboard", nil, false))
	assert.Equal(t, access.NeedsOnboarding, result.Decision)
	assert.Equal(t, access.PathOnboarding, result.Redirect)

	rec = c.do(http.MethodPatch, "/api/user/role", map[string]string{"role": "owner"}, false)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid CSRF token", decode[map[string]any](t, rec)["message"])

	rec = c.do(http.MethodPatch, "/api/user/role", map[string]string{"role": "owner"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result = decode[access.Result](t, c.do(http.MethodGet, "/api/access?path=/dashboard/members", nil, false))
	assert.Equal(t, access.NeedsGym, result.Decision)
	assert.Equal(t, access.PathCreateGym, result.Redirect)

	rec = c.do(http.MethodPost, "/api/gyms", map[string]any{
		"name":          "Iron Temple",
		"address":       "12 MG Road",
		"city":          "pune",
		"contactNumber": "0201234567",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	result = decode[access.Result](t, c.do(http.MethodGet, "/api/access?path=/dashboard/members", nil, false))
	assert.True(t, result.Allowed)

	rec = c.do(http.MethodPost, "/api/logout", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = c.do(http.MethodGet, "/api/user", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOwnerEnrolsMember(t *testing.T) {
	c, _ := newClient(t)

	rec := c.do(http.MethodGet, "/api/members", nil, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodPost, "/api/register", map[string]any{
		"fullName":     "Asha Rao",
		"mobileNumber": "9876543210",
		"password":     "secret123",
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = c.do(http.MethodPatch, "/api/user/role", map[string]string{"role": "owner"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = c.do(http.MethodGet, "/api/members", nil, false)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, access.PathCreateGym, decode[map[string]any](t, rec)["redirect"])

	rec = c.do(http.MethodPost, "/api/gyms", map[string]any{
		"name":          "Iron Temple",
		"address":       "12 MG Road",
		"city":          "pune",
		"contactNumber": "0201234567",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	gym := decode[gyms.Gym](t, rec)

	rec = c.do(http.MethodPost, "/api/members", map[string]any{
		"gymId":          gym.ID,
		"mobileNumber":   "91234 56789",
		"fullName":       "Ravi Kumar",
		"membershipType": "PAID",
		"membershipPlan": "Monthly",
		"startDate":      time.Now().Format("2006-01-02"),
		"endDate":        time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	enrolled := decode[members.Member](t, rec)
	assert.Equal(t, gym.ID, enrolled.GymID)

	rec = c.do(http.MethodGet, "/api/gyms/"+strconv.FormatInt(gym.ID, 10)+"/members", nil, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[[]members.Member](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, enrolled.UserID, list[0].UserID)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "9123456789", list[0].User.MobileNumber)

	rec = c.do(http.MethodPost, "/api/classes", map[string]any{
		"gymId":    gym.ID,
		"name":     "HIIT",
		"capacity": 10,
		"schedule": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"duration": 45,
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = c.do(http.MethodGet, "/api/classes", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]classes.Class](t, rec), 1)

	rec = c.do(http.MethodPost, "/api/logout", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = c.do(http.MethodPost, "/api/register", map[string]any{
		"fullName":     "Someone Else",
		"mobileNumber": "9123456789",
		"password":     "secret123",
	}, false)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServesUploads(t *testing.T) {
	c, store := newClient(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, "a.png"), []byte("\x89PNG\r\n\x1a\n"), 0o644))

	rec := c.do(http.MethodGet, "/uploads/a.png", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/uploads/", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
