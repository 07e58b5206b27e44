package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/peoplehub-hr/peoplehub/internal/attendance"
	"github.com/peoplehub-hr/peoplehub/internal/dashboard"
	"github.com/peoplehub-hr/peoplehub/internal/employee"
	"github.com/peoplehub-hr/peoplehub/internal/identity"
	"github.com/peoplehub-hr/peoplehub/internal/leave"
	"github.com/peoplehub-hr/peoplehub/internal/observability"
	"github.com/peoplehub-hr/peoplehub/internal/shared"
	"github.com/peoplehub-hr/peoplehub/internal/task"
	"github.com/peoplehub-hr/peoplehub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	IdentityMiddleware identity.Middleware
	IdentityHandler    *identity.Handler
	EmployeeHandler    *employee.Handler
	AttendanceHandler  *attendance.Handler
	LeaveHandler       *leave.Handler
	TaskHandler        *task.Handler
	DashboardHandler   *dashboard.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with PeopleHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.IdentityMiddleware.Resolve)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.IdentityHandler.MountRoutes)
	r.Route("/employees", params.EmployeeHandler.MountRoutes)
	r.Route("/attendance", params.AttendanceHandler.MountRoutes)
	r.Route("/leave", params.LeaveHandler.MountRoutes)
	r.Route("/tasks", params.TaskHandler.MountRoutes)
	r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
