package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/peoplehub-hr/peoplehub/internal/platform/httpx"
	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	loginLimiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	r.With(loginLimiter).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	EmployeeCode string `json:"employee_code" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

type identityResponse struct {
	EmployeeID string `json:"employee_id"`
	Code       string `json:"employee_code"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	CSRFToken  string `json:"csrf_token,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ident, err := h.service.Authenticate(r.Context(), req.EmployeeCode, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrAccountInactive):
			httpx.Problem(w, http.StatusForbidden, "Account Inactive", "account is not active, contact HR")
		case errors.Is(err, shared.ErrInvalidCredentials):
			httpx.Problem(w, http.StatusUnauthorized, "Invalid Credentials", "employee code or password incorrect")
		default:
			h.logger.Error("authenticate", slog.Any("error", err))
			httpx.Internal(w)
		}
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Internal(w)
		return
	}
	sess.SetUser(ident.EmployeeID.String())
	token, err := h.csrfManager.EnsureToken(sess)
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		httpx.Internal(w)
		return
	}

	httpx.JSON(w, http.StatusOK, identityResponse{
		EmployeeID: ident.EmployeeID.String(),
		Code:       ident.Code,
		FullName:   ident.FullName,
		Role:       string(ident.Role),
		CSRFToken:  token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ident, err := h.service.Resolve(r.Context(), sess)
	if err != nil {
		h.logger.Warn("resolve during logout", slog.Any("error", err))
	}
	h.service.EndSession(r.Context(), ident)
	h.sessionManager.Destroy(sess)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ident, err := h.service.Resolve(r.Context(), sess)
	if err != nil {
		h.logger.Error("resolve identity", slog.Any("error", err))
		httpx.Internal(w)
		return
	}
	if ident == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	httpx.JSON(w, http.StatusOK, identityResponse{
		EmployeeID: ident.EmployeeID.String(),
		Code:       ident.Code,
		FullName:   ident.FullName,
		Role:       string(ident.Role),
	})
}
