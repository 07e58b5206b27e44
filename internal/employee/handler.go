package employee

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

// Handler wires HTTP endpoints for the employee directory.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers employee routes. The directory is admin territory
// except for reading one's own record.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(identity.RequireAuth)
	r.With(identity.RequireAdmin).Post("/", h.handleCreate)
	r.With(identity.RequireAdmin).Get("/", h.handleList)
	r.Get("/{employeeID}", h.handleGet)
	r.With(identity.RequireAdmin).Put("/{employeeID}", h.handleUpdate)
	r.With(identity.RequireAdmin).Post("/{employeeID}/status", h.handleSetStatus)
}

type createEmployeeRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Phone       string `json:"phone"`
	Department  string `json:"department"`
	Position    string `json:"position"`
	Role        string `json:"role" validate:"required,oneof=admin employee"`
	JoiningDate string `json:"joining_date"`
}

type updateEmployeeRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive terminated"`
}

type employeeResponse struct {
	ID          string `json:"id"`
	Code        string `json:"employee_code"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Department  string `json:"department"`
	Position    string `json:"position"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	JoiningDate string `json:"joining_date"`
}

func toEmployeeResponse(e Employee) employeeResponse {
	return employeeResponse{
		ID:          e.ID.String(),
		Code:        e.Code,
		FullName:    e.FullName,
		Email:       e.Email,
		Phone:       e.Phone,
		Department:  e.Department,
		Position:    e.Position,
		Role:        string(e.Role),
		Status:      string(e.Status),
		JoiningDate: e.JoiningDate.Format("2006-01-02"),
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())

	var req createEmployeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreateInput{
		FullName:   req.FullName,
		Email:      req.Email,
		Password:   req.Password,
		Phone:      req.Phone,
		Department: req.Department,
		Position:   req.Position,
		Role:       shared.Role(req.Role),
		CreatedBy:  ident.EmployeeID,
	}
	if req.JoiningDate != "" {
		joined, err := time.Parse("2006-01-02", req.JoiningDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "joining_date must be YYYY-MM-DD")
			return
		}
		input.JoiningDate = joined
	}

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEmployeeResponse(created))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Status: Status(q.Get("status")),
		Search: q.Get("search"),
	}
	if v := q.Get("page"); v != "" {
		filter.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("per_page"); v != "" {
		filter.PerPage, _ = strconv.Atoi(v)
	}

	employees, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"employees": out, "total": total})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "employee id must be a UUID")
		return
	}
	// Employees may only read their own record.
	if !ident.Role.IsAdmin() && ident.EmployeeID != id {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
		return
	}

	emp, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEmployeeResponse(emp))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "employee id must be a UUID")
		return
	}

	var req updateEmployeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), id, UpdateInput{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Department: req.Department,
		Position:   req.Position,
		UpdatedBy:  ident.EmployeeID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEmployeeResponse(updated))
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "employee id must be a UUID")
		return
	}

	var req setStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.SetStatus(r.Context(), id, Status(req.Status), ident.EmployeeID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEmployeeResponse(updated))
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmailTaken):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrInvalidRole), errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "employee not found")
	default:
		h.logger.Error("employee", slog.Any("error", err))
		httpx.Internal(w)
	}
}
