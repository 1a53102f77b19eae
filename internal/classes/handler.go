package classes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gymcore/gymcore/internal/access"
	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/platform/httpx"
	"github.com/gymcore/gymcore/internal/users"
)

// Handler exposes class and booking endpoints.
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

// MountRoutes registers class and booking routes on the /api router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireRole(), h.gate.RequireOwnerGym)
		r.Get("/classes", h.list)
		r.Get("/bookings", h.listBookings)
		r.Post("/bookings", h.book)
		r.Post("/bookings/{id}/cancel", h.cancel)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireRole(users.RoleOwner), h.gate.RequireOwnerGym)
		r.Post("/classes", h.create)
		r.Delete("/classes/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	gymID, err := httpx.QueryID(r, "gymId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.List(r.Context(), access.UserFromContext(r.Context()), gymID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createClassRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	class, err := h.service.Create(r.Context(), access.UserFromContext(r.Context()), CreateInput{
		GymID:       req.GymID,
		Name:        req.Name,
		Description: req.Description,
		TrainerID:   req.TrainerID,
		Capacity:    req.Capacity,
		Schedule:    req.Schedule,
		Duration:    req.Duration,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, class)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), access.UserFromContext(r.Context()), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Class deleted"})
}

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Bookings(r.Context(), access.UserFromContext(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	booking, err := h.service.Book(r.Context(), access.UserFromContext(r.Context()), req.ClassID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, booking)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	booking, err := h.service.Cancel(r.Context(), access.UserFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, booking)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Message(w, http.StatusNotFound, "Class not found")
	case errors.Is(err, ErrBookingNotFound):
		httpx.Message(w, http.StatusNotFound, "Booking not found")
	case errors.Is(err, gyms.ErrNotFound):
		httpx.Message(w, http.StatusNotFound, "Gym not found")
	case errors.Is(err, ErrForbidden):
		httpx.Message(w, http.StatusForbidden, "You do not manage this gym")
	case errors.Is(err, ErrNotBookingOwner):
		httpx.Message(w, http.StatusForbidden, "You can only cancel your own bookings")
	case errors.Is(err, ErrNotGymTrainer):
		httpx.Error(w, http.StatusBadRequest, httpx.ErrorBody{Message: "Trainer does not work at this gym", Field: "trainerId"})
	case errors.Is(err, ErrClassStarted):
		httpx.Error(w, http.StatusBadRequest, httpx.ErrorBody{Message: "Class has already started", Field: "classId"})
	case errors.Is(err, ErrClassFull):
		httpx.Message(w, http.StatusConflict, "Class is full")
	case errors.Is(err, ErrAlreadyBooked):
		httpx.Message(w, http.StatusConflict, "You have already booked this class")
	default:
		h.logger.Error("class request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
