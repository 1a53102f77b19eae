package plans

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gymcore/gymcore/internal/access"
	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/members"
	"github.com/gymcore/gymcore/internal/platform/httpx"
)

// Handler exposes workout and diet plan endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      access.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate access.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, gate: gate, validator: httpx.NewValidator()}
}

// MountRoutes registers plan routes on the /api router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireRole(), h.gate.RequireOwnerGym)
		r.Get("/members/{id}/workouts", h.listWorkouts)
		r.Post("/workouts", h.createWorkout)
		r.Get("/members/{id}/diets", h.listDiets)
		r.Post("/diets", h.createDiet)
	})
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.Workouts(r.Context(), access.UserFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createWorkout(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	plan, err := h.service.CreateWorkout(r.Context(), access.UserFromContext(r.Context()), WorkoutPlan{
		MemberID:  req.MemberID,
		Title:     req.Title,
		Notes:     req.Notes,
		Exercises: req.Exercises,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, plan)
}

func (h *Handler) listDiets(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.Diets(r.Context(), access.UserFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createDiet(w http.ResponseWriter, r *http.Request) {
	var req dietRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	plan, err := h.service.CreateDiet(r.Context(), access.UserFromContext(r.Context()), DietPlan{
		MemberID: req.MemberID,
		Title:    req.Title,
		Notes:    req.Notes,
		Meals:    req.Meals,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, plan)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, members.ErrNotFound):
		httpx.Message(w, http.StatusNotFound, "Member not found")
	case errors.Is(err, gyms.ErrNotFound):
		httpx.Message(w, http.StatusNotFound, "Gym not found")
	case errors.Is(err, members.ErrForbidden):
		httpx.Message(w, http.StatusForbidden, "You do not have access to this member")
	default:
		h.logger.Error("plan request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
