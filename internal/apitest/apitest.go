// Package apitest holds helpers for exercising API handlers in tests.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gymcore/gymcore/internal/shared"
	"github.com/gymcore/gymcore/internal/users"
)

// Sessions returns a session manager backed by an in-process Redis.
func Sessions(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewSessionManager(shared.NewRedisSessionStore(client), "gymcore_session", "secret", time.Hour, false)
}

// Client sends requests to a handler as a given user.
type Client struct {
	T        *testing.T
	Handler  http.Handler
	Sessions *shared.SessionManager
}

// NewClient builds a Client with its own session manager.
func NewClient(t *testing.T, h http.Handler) *Client {
	return &Client{T: t, Handler: h, Sessions: Sessions(t)}
}

// Do sends method target with body encoded as JSON. userID 0 is anonymous.
func (c *Client) Do(method, target string, body any, userID int64) *httptest.ResponseRecorder {
	c.T.Helper()
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		require.NoError(c.T, json.NewEncoder(&buf).Encode(body))
		reader = &buf
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return c.Send(req, userID)
}

// Send attaches a session for userID and serves req.
func (c *Client) Send(req *http.Request, userID int64) *httptest.ResponseRecorder {
	c.T.Helper()
	sess, err := c.Sessions.Load(req.Context(), req)
	require.NoError(c.T, err)
	if userID != 0 {
		sess.SetUser(userID)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, req)
	return rec
}

// Decode reads a JSON response body into T.
func Decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), rec.Body.String())
	return out
}

// CreateUser inserts a user holding role (nil for none).
func CreateUser(t *testing.T, repo users.Repository, mobile string, role *users.Role) *users.User {
	t.Helper()
	u, err := repo.Create(context.Background(), users.NewUser{
		FullName:     "User " + mobile,
		MobileNumber: mobile,
		Username:     mobile,
		Role:         role,
		PasswordHash: "x.y",
	})
	require.NoError(t, err)
	return u
}

// Role returns a pointer to r.
func Role(r users.Role) *users.Role { return &r }
