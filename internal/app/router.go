package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gymcore/gymcore/internal/access"
	"github.com/gymcore/gymcore/internal/auth"
	"github.com/gymcore/gymcore/internal/classes"
	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/members"
	"github.com/gymcore/gymcore/internal/observability"
	"github.com/gymcore/gymcore/internal/plans"
	"github.com/gymcore/gymcore/internal/platform/httpx"
	"github.com/gymcore/gymcore/internal/shared"
	"github.com/gymcore/gymcore/internal/uploads"
	"github.com/gymcore/gymcore/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler    *auth.Handler
	AccessHandler  *access.Handler
	GymsHandler    *gyms.Handler
	MembersHandler *members.Handler
	PlansHandler   *plans.Handler
	ClassesHandler *classes.Handler
	UploadsHandler *uploads.Handler
	JobHandler     *jobs.Handler
}

// CSRFExemptPaths skip the CSRF header check. The session has no token yet
// when a client registers or logs in.
var CSRFExemptPaths = []string{"/api/login", "/api/register"}

// NewRouter constructs the chi.Router with GymCore defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
		CSRFExempt:     CSRFExemptPaths,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(r, LoginRateLimit(params.Config))
		}
		if params.AccessHandler != nil {
			params.AccessHandler.MountRoutes(r)
		}
		if params.GymsHandler != nil {
			params.GymsHandler.MountRoutes(r)
		}
		if params.MembersHandler != nil {
			params.MembersHandler.MountRoutes(r)
		}
		if params.PlansHandler != nil {
			params.PlansHandler.MountRoutes(r)
		}
		if params.ClassesHandler != nil {
			params.ClassesHandler.MountRoutes(r)
		}
		if params.UploadsHandler != nil {
			params.UploadsHandler.MountRoutes(r)
		}
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.Message(w, http.StatusNotFound, "Not found")
		})
	})

	if params.UploadsHandler != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads", params.UploadsHandler.Files()))
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
