package gyms

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gymcore/gymcore/internal/access"
	"github.com/gymcore/gymcore/internal/platform/httpx"
	"github.com/gymcore/gymcore/internal/users"
)

// Handler exposes the gym API.
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

// MountRoutes registers gym routes on the /api router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireRole())
		r.Get("/gyms", h.list)
		r.Get("/gyms/mine", h.mine)
		r.Get("/gyms/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireRole(users.RoleOwner))
		r.Post("/gyms", h.create)
		r.Patch("/gyms/{id}", h.update)
		r.Delete("/gyms/{id}", h.delete)
		r.Get("/gyms/{id}/trainers", h.listTrainers)
		r.Post("/gyms/{id}/trainers", h.addTrainer)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	gyms, err := h.service.Visible(r.Context(), access.UserFromContext(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gyms)
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	gyms, err := h.service.Mine(r.Context(), access.UserFromContext(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gyms)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	gym, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gym)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createGymRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	gym, err := h.service.Create(r.Context(), access.UserFromContext(r.Context()), CreateInput{
		Name:            req.Name,
		Address:         req.Address,
		City:            req.City,
		ContactNumber:   req.ContactNumber,
		GymImages:       req.GymImages,
		GpayQR:          req.GpayQR,
		PhonepeQR:       req.PhonepeQR,
		Facilities:      req.Facilities,
		Services:        req.Services,
		MembershipPlans: req.MembershipPlans,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, gym)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateGymRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	gym, err := h.service.Update(r.Context(), access.UserFromContext(r.Context()), id, req.patch())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gym)
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Gym deleted"})
}

func (h *Handler) listTrainers(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	trainers, err := h.service.Trainers(r.Context(), access.UserFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, trainers)
}

func (h *Handler) addTrainer(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req addTrainerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req.MobileNumber = users.NormalizeMobile(req.MobileNumber)
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	trainer, err := h.service.AddTrainer(r.Context(), access.UserFromContext(r.Context()), id, TrainerInput{
		MobileNumber:   req.MobileNumber,
		FullName:       req.FullName,
		Specialization: req.Specialization,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, trainer)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Message(w, http.StatusNotFound, "Gym not found")
	case errors.Is(err, ErrNotOwner):
		httpx.Message(w, http.StatusForbidden, "You do not own this gym")
	case errors.Is(err, ErrTrainerExists):
		httpx.Message(w, http.StatusConflict, "Trainer already added to this gym")
	case errors.Is(err, users.ErrRoleConflict):
		httpx.Error(w, http.StatusConflict, httpx.ErrorBody{Message: "User already has a different role", Field: "mobileNumber"})
	default:
		h.logger.Error("gym request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
