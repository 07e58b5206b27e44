package leave

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/peoplehub-hr/peoplehub/internal/identity"
	"github.com/peoplehub-hr/peoplehub/internal/platform/httpx"
	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Handler wires HTTP endpoints for the leave ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers leave routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(identity.RequireAuth)
	r.Post("/", h.handleSubmit)
	r.Get("/", h.handleList)
	r.Get("/balance", h.handleBalance)
	r.With(identity.RequireAdmin).Post("/{leaveID}/decision", h.handleDecide)
}

type submitRequest struct {
	Category string `json:"leave_type" validate:"required,oneof=sick casual earned unpaid"`
	FromDate string `json:"from_date" validate:"required"`
	ToDate   string `json:"to_date" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
}

type decideRequest struct {
	Outcome         string `json:"outcome" validate:"required,oneof=approved rejected"`
	RejectionReason string `json:"rejection_reason"`
}

type requestResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	Category        string  `json:"leave_type"`
	FromDate        string  `json:"from_date"`
	ToDate          string  `json:"to_date"`
	TotalDays       int     `json:"total_days"`
	Reason          string  `json:"reason"`
	Status          string  `json:"status"`
	ApproverID      *string `json:"approved_by,omitempty"`
	DecidedAt       *string `json:"approved_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

func toRequestResponse(req Request) requestResponse {
	resp := requestResponse{
		ID:              req.ID.String(),
		EmployeeID:      req.EmployeeID.String(),
		Category:        string(req.Category),
		FromDate:        req.FromDate.Format("2006-01-02"),
		ToDate:          req.ToDate.Format("2006-01-02"),
		TotalDays:       req.TotalDays,
		Reason:          req.Reason,
		Status:          string(req.Status),
		RejectionReason: req.RejectionReason,
	}
	if req.ApproverID != nil {
		v := req.ApproverID.String()
		resp.ApproverID = &v
	}
	if req.DecidedAt != nil {
		v := req.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	return resp
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())

	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	from, err := time.Parse("2006-01-02", req.FromDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from_date must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", req.ToDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to_date must be YYYY-MM-DD")
		return
	}

	created, err := h.service.Submit(r.Context(), SubmitInput{
		EmployeeID: ident.EmployeeID,
		Category:   Category(req.Category),
		FromDate:   from,
		ToDate:     to,
		Reason:     req.Reason,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRequestResponse(created))
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())

	leaveID, err := uuid.Parse(chi.URLParam(r, "leaveID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "leave id must be a UUID")
		return
	}

	var req decideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	decided, err := h.service.Decide(r.Context(), leaveID, ident.EmployeeID, Outcome(req.Outcome), req.RejectionReason)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRequestResponse(decided))
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())

	employeeID := ident.EmployeeID
	if ident.Role.IsAdmin() {
		if v := r.URL.Query().Get("employee_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "employee_id must be a UUID")
				return
			}
			employeeID = id
		}
	}
	year := time.Now().UTC().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "year must be a number")
			return
		}
		year = n
	}

	balance, err := h.service.GetBalance(r.Context(), employeeID, year)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if balance == nil {
		// Uninitialized balance is a distinct user-visible state.
		httpx.Problem(w, http.StatusNotFound, "Balance Not Initialized", "leave balance not set up yet, contact HR")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"employee_id": balance.EmployeeID.String(),
		"year":        balance.Year,
		"sick":        balance.Sick,
		"casual":      balance.Casual,
		"earned":      balance.Earned,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())

	filter := ListFilter{}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = RequestStatus(v)
	}
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

	requests, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestResponse(req))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": out})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidDateRange), errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrInvalidOutcome), errors.Is(err, ErrRejectionReasonRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotPending):
		httpx.Problem(w, http.StatusConflict, "Not Pending", "leave request has already been decided")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "leave request not found")
	default:
		h.logger.Error("leave", slog.Any("error", err))
		httpx.Internal(w)
	}
}
