package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peoplehub-hr/peoplehub/internal/attendance"
	"github.com/peoplehub-hr/peoplehub/internal/identity"
	"github.com/peoplehub-hr/peoplehub/internal/platform/httpx"
)

// Handler wires HTTP endpoints for dashboards.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(identity.RequireAuth)
	r.With(identity.RequireAdmin).Get("/admin", h.handleAdmin)
	r.Get("/me", h.handleEmployee)
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.AdminSummary(r.Context())
	if err != nil {
		h.logger.Error("admin summary", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"total_employees":  summary.TotalEmployees,
		"active_employees": summary.ActiveEmployees,
		"present_today":    summary.PresentToday,
		"pending_leaves":   summary.PendingLeaves,
		"open_tasks":       summary.OpenTasks,
	})
}

func (h *Handler) handleEmployee(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())
	summary, err := h.service.EmployeeSummary(r.Context(), ident.EmployeeID)
	if err != nil {
		h.logger.Error("employee summary", slog.Any("error", err))
		httpx.Internal(w)
		return
	}

	payload := map[string]any{
		"task_counts": summary.TaskCounts,
	}
	if summary.TodaySession != nil {
		payload["today"] = sessionPayload(*summary.TodaySession)
	} else {
		payload["today"] = nil
	}
	if summary.Balance != nil {
		payload["leave_balance"] = map[string]int{
			"sick":   summary.Balance.Sick,
			"casual": summary.Balance.Casual,
			"earned": summary.Balance.Earned,
		}
	} else {
		payload["leave_balance"] = nil
	}
	httpx.JSON(w, http.StatusOK, payload)
}

func sessionPayload(s attendance.Session) map[string]any {
	out := map[string]any{
		"date":   s.Date.Format("2006-01-02"),
		"status": string(s.Status),
	}
	if s.CheckIn != nil {
		out["check_in_time"] = s.CheckIn
	}
	if s.CheckOut != nil {
		out["check_out_time"] = s.CheckOut
	}
	if s.WorkHours != nil {
		out["work_hours"] = *s.WorkHours
	}
	return out
}
