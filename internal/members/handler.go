package members

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

// Handler exposes membership, attendance, payment and stats endpoints.
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

// MountRoutes registers member routes on the /api router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireRole(), h.gate.RequireOwnerGym)
		r.Get("/members/{id}", h.show)
		r.Get("/members/{id}/attendance", h.listAttendance)
		r.Get("/members/{id}/payments", h.listPayments)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireRole(users.RoleOwner), h.gate.RequireOwnerGym)
		r.Get("/members", h.list)
		r.Post("/members", h.create)
		r.Delete("/members/{id}", h.delete)
		r.Post("/members/{id}/attendance", h.markAttendance)
		r.Post("/members/{id}/payments", h.recordPayment)
		r.Get("/gyms/{id}/members", h.listByGym)
		r.Get("/stats/owner", h.stats)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	gymID, err := httpx.QueryID(r, "gymId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondList(w, r, gymID)
}

func (h *Handler) listByGym(w http.ResponseWriter, r *http.Request) {
	gymID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondList(w, r, gymID)
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, gymID int64) {
	list, err := h.service.List(r.Context(), access.UserFromContext(r.Context()), gymID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req.MobileNumber = users.NormalizeMobile(req.MobileNumber)
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	member, err := h.service.Enroll(r.Context(), access.UserFromContext(r.Context()), req.input())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, member)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	member, err := h.service.Get(r.Context(), access.UserFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, member)
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Member removed"})
}

func (h *Handler) listAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.Attendance(r.Context(), access.UserFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) markAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req attendanceRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	record, err := h.service.MarkAttendance(r.Context(), access.UserFromContext(r.Context()), id, req.Method, req.Date)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, record)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.Payments(r.Context(), access.UserFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	payment, err := h.service.RecordPayment(r.Context(), access.UserFromContext(r.Context()), id, PaymentInput{
		Amount: req.Amount,
		Method: req.Method,
		Status: req.Status,
		Date:   req.Date,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), access.UserFromContext(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Message(w, http.StatusNotFound, "Member not found")
	case errors.Is(err, gyms.ErrNotFound):
		httpx.Message(w, http.StatusNotFound, "Gym not found")
	case errors.Is(err, ErrForbidden):
		httpx.Message(w, http.StatusForbidden, "You do not have access to this member")
	case errors.Is(err, ErrDuplicate):
		httpx.Error(w, http.StatusConflict, httpx.ErrorBody{Message: "User is already a member of this gym", Field: "mobileNumber"})
	case errors.Is(err, users.ErrRoleConflict):
		httpx.Error(w, http.StatusConflict, httpx.ErrorBody{Message: "User already has a different role", Field: "mobileNumber"})
	default:
		if !errors.Is(err, httpx.ErrValidation) {
			h.logger.Error("member request failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
