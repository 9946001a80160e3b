package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clientdesk/clientdesk/internal/platform/httpx"
	"github.com/clientdesk/clientdesk/internal/shared"
)

// Middleware wires the token verifier and the permission gate.
type Middleware struct {
	Issuer *TokenIssuer
	Repo   Repository
	Logger *slog.Logger
}

// RequireAuth extracts and verifies the bearer token, attaching the decoded
// claims to the request context. Runs before every protected route.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.RespondError(w, shared.ErrMissingToken)
			return
		}
		claims, err := m.Issuer.Verify(token)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// RequirePermission returns a middleware that admits the request only when
// the authenticated identity currently holds the named permission. The
// permission set is re-read from the store on each call rather than trusted
// from the token, so revocations take effect immediately. super_admin
// passes unconditionally. Must run after RequireAuth.
func (m Middleware) RequirePermission(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				httpx.RespondError(w, shared.ErrMissingToken)
				return
			}
			role, perms, err := m.Repo.PermissionsByID(r.Context(), claims.Subject)
			if err != nil {
				// A token for a since-deleted identity is just invalid.
				if errors.Is(err, shared.ErrNotFound) {
					httpx.RespondError(w, shared.ErrInvalidToken)
					return
				}
				if m.Logger != nil {
					m.Logger.Error("permission lookup", slog.String("id", claims.Subject), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			if role == RoleSuperAdmin {
				next.ServeHTTP(w, r)
				return
			}
			for _, p := range perms {
				if p == name {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, shared.ErrForbidden)
		})
	}
}
