package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gymcore/gymcore/internal/access"
	"github.com/gymcore/gymcore/internal/platform/httpx"
	"github.com/gymcore/gymcore/internal/shared"
	"github.com/gymcore/gymcore/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	gate           access.Middleware
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, gate access.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		gate:           gate,
		validator:      httpx.NewValidator(),
	}
}

// MountRoutes registers auth routes on the /api router. loginLimit guards
// the credential endpoints.
func (h *Handler) MountRoutes(r chi.Router, loginLimit func(http.Handler) http.Handler) {
	r.Get("/csrf", h.handleCSRF)
	r.Group(func(r chi.Router) {
		if loginLimit != nil {
			r.Use(loginLimit)
		}
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
	})
	r.Post("/logout", h.handleLogout)
	r.Get("/user", h.handleCurrentUser)
	r.With(h.gate.RequireUser).Patch("/user/role", h.handleChooseRole)
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, csrfResponse{CSRFToken: token})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req.MobileNumber = users.NormalizeMobile(req.MobileNumber)
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Register(r.Context(), RegisterInput{
		FullName:     req.FullName,
		MobileNumber: req.MobileNumber,
		Username:     req.Username,
		Password:     req.Password,
		Email:        req.Email,
		Gender:       req.Gender,
		AgeOrDOB:     req.AgeOrDOB,
		City:         req.City,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.startSession(w, r, user.ID)
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Authenticate(r.Context(), req.MobileNumber, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.startSession(w, r, user.ID)
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if sess.User() != 0 {
			h.logger.Info("auth_event", slog.String("event", "logout"), slog.String("reason", "requested"), slog.Int64("user_id", sess.User()))
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	user, err := h.service.CurrentUser(r.Context(), shared.SessionUserID(r.Context()))
	if err != nil {
		if errors.Is(err, httpx.ErrUnauthorized) && sess != nil && sess.User() != 0 {
			h.sessionManager.Destroy(sess)
		}
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleChooseRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	current := access.UserFromContext(r.Context())
	user, err := h.service.ChooseRole(r.Context(), current.ID, users.Role(req.Role))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// startSession rotates the session id before binding the user so a planted
// cookie never becomes authenticated, then hands out a fresh CSRF token.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID int64) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		return
	}
	h.sessionManager.Renew(sess)
	sess.SetUser(userID)
	if token, err := h.csrfManager.EnsureToken(r.Context(), sess); err == nil {
		w.Header().Set(shared.CSRFHeader, token)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		httpx.Message(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, users.ErrMobileTaken):
		httpx.Error(w, http.StatusConflict, httpx.ErrorBody{Message: "Mobile number already registered", Field: "mobileNumber"})
	case errors.Is(err, users.ErrUsernameTaken):
		httpx.Error(w, http.StatusConflict, httpx.ErrorBody{Message: "Username already taken", Field: "username"})
	case errors.Is(err, users.ErrRoleAlreadySet):
		httpx.Error(w, http.StatusConflict, httpx.ErrorBody{Message: "Role has already been chosen", Field: "role"})
	case errors.Is(err, ErrTrainerNotSelfAssignable):
		httpx.Error(w, http.StatusBadRequest, httpx.ErrorBody{Message: "Trainers are added by a gym owner", Field: "role"})
	default:
		if !errors.Is(err, httpx.ErrUnauthorized) && !errors.Is(err, httpx.ErrValidation) {
			h.logger.Error("auth request failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
