package identity

import (
	"log/slog"
	"net/http"

	"github.com/peoplehub-hr/peoplehub/internal/platform/httpx"
	"github.com/peoplehub-hr/peoplehub/internal/shared"
)

// Middleware resolves session references into identities.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Resolve attaches the caller identity to the request context when a valid
// session reference exists. It never rejects; guards do that.
func (m Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		ident, err := m.Service.Resolve(r.Context(), sess)
		if err != nil {
			m.Logger.Error("resolve identity", slog.Any("error", err))
			httpx.Internal(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), ident)))
	})
}

// RequireAuth rejects unauthenticated requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose identity lacks the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := FromContext(r.Context())
		if ident == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		if !ident.Role.IsAdmin() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
