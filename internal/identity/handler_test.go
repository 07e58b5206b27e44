package identity

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/peoplehub-hr/peoplehub/internal/shared"
	_ "github.com/peoplehub-hr/peoplehub/testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(t *testing.T, repo Repository) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessionManager := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	handler := NewHandler(testLogger(), NewService(repo, nil, nil), sessionManager, csrfManager)
	return handler, sessionManager
}

func loginWith(t *testing.T, handler *Handler, sessionManager *shared.SessionManager, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessionManager.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.handleLogin(res, req)
	return res
}

func TestLoginSuccessIssuesCSRFToken(t *testing.T) {
	repo := newMemoryRepo()
	repo.add("EMP001", "secret123", "active", shared.RoleAdmin)
	handler, sessionManager := newTestHandler(t, repo)

	res := loginWith(t, handler, sessionManager, `{"employee_code":"EMP001","password":"secret123"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Equal(t, "EMP001", payload["employee_code"])
	require.Equal(t, "admin", payload["role"])
	require.NotEmpty(t, payload["csrf_token"])
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMemoryRepo()
	repo.add("EMP001", "secret123", "active", shared.RoleEmployee)
	handler, sessionManager := newTestHandler(t, repo)

	res := loginWith(t, handler, sessionManager, `{"employee_code":"EMP001","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newMemoryRepo()
	repo.add("EMP001", "secret123", "inactive", shared.RoleEmployee)
	handler, sessionManager := newTestHandler(t, repo)

	res := loginWith(t, handler, sessionManager, `{"employee_code":"EMP001","password":"secret123"}`)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestLoginMalformedBody(t *testing.T) {
	handler, sessionManager := newTestHandler(t, newMemoryRepo())

	res := loginWith(t, handler, sessionManager, `{"employee_code":`)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestMeWithoutSessionUser(t *testing.T) {
	handler, sessionManager := newTestHandler(t, newMemoryRepo())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.handleMe(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}
