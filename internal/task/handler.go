package task

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/peoplehub-hr/peoplehub/internal/identity"
	"github.com/peoplehub-hr/peoplehub/internal/platform/httpx"
	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Handler wires HTTP endpoints for the task board.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers task routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(identity.RequireAuth)
	r.With(identity.RequireAdmin).Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{taskID}", h.handleGet)
	r.Post("/{taskID}/advance", h.handleAdvance)
	r.With(identity.RequireAdmin).Post("/{taskID}/cancel", h.handleCancel)
	r.Post("/{taskID}/comments", h.handleComment)
	r.Get("/{taskID}/comments", h.handleListComments)
}

type createRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	AssigneeID  string `json:"assigned_to" validate:"required,uuid4"`
	Priority    string `json:"priority" validate:"required,oneof=low medium high urgent"`
	DueDate     string `json:"due_date"`
}

type advanceRequest struct {
	Status   string `json:"status" validate:"required,oneof=in_progress completed"`
	Progress *int   `json:"progress_percentage" validate:"omitempty,min=0,max=100"`
}

type commentRequest struct {
	Text string `json:"comment" validate:"required"`
}

type taskResponse struct {
	ID          string  `json:"id"`
	Code        string  `json:"task_code"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	AssigneeID  string  `json:"assigned_to"`
	AssignerID  string  `json:"assigned_by"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	Progress    int     `json:"progress_percentage"`
	DueDate     *string `json:"due_date,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

type commentResponse struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	AuthorID  string `json:"author_id"`
	Text      string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

func toTaskResponse(t Task) taskResponse {
	resp := taskResponse{
		ID:          t.ID.String(),
		Code:        t.Code,
		Title:       t.Title,
		Description: t.Description,
		AssigneeID:  t.AssigneeID.String(),
		AssignerID:  t.AssignerID.String(),
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Progress:    t.Progress,
	}
	if t.DueDate != nil {
		v := t.DueDate.Format("2006-01-02")
		resp.DueDate = &v
	}
	if t.CompletedAt != nil {
		v := t.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &v
	}
	return resp
}

func toCommentResponse(c Comment) commentResponse {
	return commentResponse{
		ID:        c.ID.String(),
		TaskID:    c.TaskID.String(),
		AuthorID:  c.AuthorID.String(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())

	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	assigneeID, err := uuid.Parse(req.AssigneeID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "assigned_to must be a UUID")
		return
	}
	input := CreateInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  assigneeID,
		AssignerID:  ident.EmployeeID,
		Priority:    Priority(req.Priority),
	}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "due_date must be YYYY-MM-DD")
			return
		}
		input.DueDate = &due
	}

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTaskResponse(created))
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "task id must be a UUID")
		return
	}

	var req advanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	advanced, err := h.service.Advance(r.Context(), taskID, ident.EmployeeID, Status(req.Status), req.Progress)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTaskResponse(advanced))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "task id must be a UUID")
		return
	}
	cancelled, err := h.service.Cancel(r.Context(), taskID, ident.EmployeeID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTaskResponse(cancelled))
}

func (h *Handler) handleComment(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "task id must be a UUID")
		return
	}

	var req commentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	c, err := h.service.Comment(r.Context(), taskID, ident.EmployeeID, req.Text)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCommentResponse(c))
}

func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "task id must be a UUID")
		return
	}
	comments, err := h.service.ListComments(r.Context(), taskID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"comments": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "task id must be a UUID")
		return
	}
	t, err := h.service.Get(r.Context(), taskID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTaskResponse(t))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())

	filter := ListFilter{}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = Status(v)
	}
	if ident.Role.IsAdmin() {
		if v := r.URL.Query().Get("assigned_to"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "assigned_to must be a UUID")
				return
			}
			filter.AssigneeID = &id
		}
	} else {
		id := ident.EmployeeID
		filter.AssigneeID = &id
	}

	tasks, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrInvalidPriority), errors.Is(err, ErrEmptyComment):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrIllegalTransition):
		httpx.Problem(w, http.StatusConflict, "Illegal Transition", err.Error())
	case errors.Is(err, ErrNotAssignee):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "task not found")
	default:
		h.logger.Error("task", slog.Any("error", err))
		httpx.Internal(w)
	}
}
