package access

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymcore/gymcore/internal/platform/httpx"
	"github.com/gymcore/gymcore/internal/shared"
	"github.com/gymcore/gymcore/internal/users"
)

// Handler serves the client route guard.
type Handler struct {
	gate   Middleware
	routes []Route
}

// NewHandler builds a Handler over ClientRoutes.
func NewHandler(gate Middleware) *Handler {
	return &Handler{gate: gate, routes: ClientRoutes}
}

// MountRoutes registers GET /access.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/access", h.check)
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("path")
	if target == "" {
		httpx.RespondError(w, httpx.Invalid("path", "is required"))
		return
	}
	rule, _ := Lookup(h.routes, target)

	subject, err := h.subject(r, rule)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, Evaluate(subject, rule))
}

func (h *Handler) subject(r *http.Request, rule Rule) (Subject, error) {
	ctx := r.Context()
	id := shared.SessionUserID(ctx)
	if id == 0 {
		return Subject{}, nil
	}
	user, err := h.gate.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Subject{}, nil
		}
		return Subject{}, err
	}
	subject := Subject{Authenticated: true, Role: user.Role}
	if rule.GymScoped && user.RoleIs(users.RoleOwner) {
		count, err := h.gate.Gyms.CountOwnedGyms(ctx, user.ID)
		if err != nil {
			h.gate.logger().Warn("guard gym lookup failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
			subject.GymLookupFailed = true
		} else {
			subject.OwnedGyms = count
		}
	}
	return subject, nil
}
