package access

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gymcore/gymcore/internal/platform/httpx"
	"github.com/gymcore/gymcore/internal/shared"
	"github.com/gymcore/gymcore/internal/users"
)

// GymCounter reports how many gyms an owner has.
type GymCounter interface {
	CountOwnedGyms(ctx context.Context, ownerID int64) (int, error)
}

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Users  users.Repository
	Gyms   GymCounter
	Logger *slog.Logger
}

type userContextKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the user loaded by RequireUser.
func UserFromContext(ctx context.Context) *users.User {
	user, _ := ctx.Value(userContextKey{}).(*users.User)
	return user
}

// RequireUser rejects anonymous requests with 401 and loads the session user
// into the request context.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.loadUser(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireRole admits users holding one of roles, or any role when roles is
// empty. Users without a role are sent to onboarding.
func (m Middleware) RequireRole(roles ...users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := m.loadUser(w, r)
			if !ok {
				return
			}
			if !user.HasRole() {
				httpx.RespondError(w, &httpx.RedirectError{Message: "Choose a role to continue", Redirect: PathOnboarding})
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, *user.Role) {
				httpx.RespondError(w, &httpx.RedirectError{Message: "Not available for your role", Redirect: Home(*user.Role)})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireOwnerGym blocks owners who have not created a gym yet. Other roles
// pass through. A failed lookup is a server error here, unlike the advisory
// client guard.
func (m Middleware) RequireOwnerGym(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.loadUser(w, r)
		if !ok {
			return
		}
		if user.RoleIs(users.RoleOwner) {
			count, err := m.Gyms.CountOwnedGyms(r.Context(), user.ID)
			if err != nil {
				m.logger().Error("count owned gyms", slog.Int64("user_id", user.ID), slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			if count == 0 {
				httpx.RespondError(w, &httpx.RedirectError{Message: "Create a gym first", Redirect: PathCreateGym})
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// loadUser resolves the session user, reusing one already in context. It
// writes the failure response itself.
func (m Middleware) loadUser(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	if user := UserFromContext(r.Context()); user != nil {
		return user, true
	}
	id := shared.SessionUserID(r.Context())
	if id == 0 {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return nil, false
	}
	user, err := m.Users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return nil, false
		}
		m.logger().Error("load session user", slog.Int64("user_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return nil, false
	}
	return user, true
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
