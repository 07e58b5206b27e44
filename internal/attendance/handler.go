package attendance

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/peoplehub-hr/peoplehub/internal/identity"
	"github.com/peoplehub-hr/peoplehub/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the attendance ledger.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers attendance routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(identity.RequireAuth)
	r.Post("/check-in", h.handleCheckIn)
	r.Post("/check-out", h.handleCheckOut)
	r.Get("/today", h.handleToday)
	r.Get("/", h.handleList)
}

type sessionResponse struct {
	ID         string   `json:"id"`
	EmployeeID string   `json:"employee_id"`
	Date       string   `json:"date"`
	CheckIn    *string  `json:"check_in_time"`
	CheckOut   *string  `json:"check_out_time"`
	WorkHours  *float64 `json:"work_hours"`
	Status     string   `json:"status"`
}

func toSessionResponse(s Session) sessionResponse {
	resp := sessionResponse{
		ID:         s.ID.String(),
		EmployeeID: s.EmployeeID.String(),
		Date:       s.Date.Format("2006-01-02"),
		WorkHours:  s.WorkHours,
		Status:     string(s.Status),
	}
	if s.CheckIn != nil {
		v := s.CheckIn.Format(time.RFC3339)
		resp.CheckIn = &v
	}
	if s.CheckOut != nil {
		v := s.CheckOut.Format(time.RFC3339)
		resp.CheckOut = &v
	}
	return resp
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())
	sess, err := h.service.CheckIn(r.Context(), ident.EmployeeID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())
	sess, err := h.service.CheckOut(r.Context(), ident.EmployeeID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())
	sess, err := h.service.Today(r.Context(), ident.EmployeeID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if sess == nil {
		httpx.JSON(w, http.StatusOK, map[string]any{"session": nil})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"session": toSessionResponse(*sess)})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())

	filter := ListFilter{}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
			return
		}
		filter.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
			return
		}
		filter.To = t
	}

	// Non-admins only ever see their own ledger.
	if ident.Role.IsAdmin() {
		if v := r.URL.Query().Get("employee_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "employee_id must be a UUID")
				return
			}
			filter.EmployeeID = &id
		}
	} else {
		id := ident.EmployeeID
		filter.EmployeeID = &id
	}

	sessions, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAlreadyCheckedIn):
		httpx.Problem(w, http.StatusConflict, "Already Checked In", "attendance already recorded for today")
	case errors.Is(err, ErrNoOpenSession):
		httpx.Problem(w, http.StatusConflict, "No Open Session", "check in before checking out")
	case errors.Is(err, ErrAlreadyCheckedOut):
		httpx.Problem(w, http.StatusConflict, "Already Checked Out", "attendance already closed for today")
	default:
		h.logger.Error("attendance", slog.Any("error", err))
		httpx.Internal(w)
	}
}
