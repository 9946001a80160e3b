package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware(t *testing.T, repo Repository) (Middleware, *TokenIssuer) {
	t.Helper()
	issuer, err := NewTokenIssuer("middleware-test-secret", time.Hour)
	require.NoError(t, err)
	return Middleware{Issuer: issuer, Repo: repo}, issuer
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthMissingToken(t *testing.T) {
	t.Parallel()

	mw, _ := newTestMiddleware(t, newMockRepo())
	var hit bool
	handler := mw.RequireAuth(okHandler(&hit))

	for _, header := range []string{"", "Basic abc", "Bearer ", "bearer lowercase"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		assert.Equal(t, http.StatusUnauthorized, res.Code, "header %q", header)
	}
	assert.False(t, hit)
}

func TestRequireAuthInvalidToken(t *testing.T) {
	t.Parallel()

	mw, _ := newTestMiddleware(t, newMockRepo())
	var hit bool
	handler := mw.RequireAuth(okHandler(&hit))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "Invalid or expired token")
	assert.False(t, hit)
}

func TestRequireAuthAttachesClaims(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	mw, issuer := newTestMiddleware(t, repo)

	admin := &Admin{ID: "id-1", Email: "admin@cust.com", Role: RoleAdmin}
	token, err := issuer.Issue(admin)
	require.NoError(t, err)

	var got *Claims
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, got)
	assert.Equal(t, "id-1", got.Subject)
	assert.Equal(t, "admin", got.Role)
}

func gateRequest(t *testing.T, mw Middleware, issuer *TokenIssuer, admin *Admin, perm string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := issuer.Issue(admin)
	require.NoError(t, err)

	var hit bool
	handler := mw.RequireAuth(mw.RequirePermission(perm)(okHandler(&hit)))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestRequirePermission(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	mw, issuer := newTestMiddleware(t, repo)

	super := &Admin{ID: "super-1", Email: "root@cust.com", Role: RoleSuperAdmin}
	granted := &Admin{ID: "staff-1", Email: "a@cust.com", Role: RoleStaff, Permissions: []string{PermViewReports}}
	denied := &Admin{ID: "staff-2", Email: "b@cust.com", Role: RoleStaff, Permissions: []string{PermUserManagement}}
	for _, a := range []*Admin{super, granted, denied} {
		repo.byID[a.ID] = a
		repo.byEmail[a.Email] = a
	}

	// super_admin holds every permission implicitly.
	res := gateRequest(t, mw, issuer, super, PermViewReports)
	assert.Equal(t, http.StatusOK, res.Code)

	// Explicit grant passes.
	res = gateRequest(t, mw, issuer, granted, PermViewReports)
	assert.Equal(t, http.StatusOK, res.Code)

	// Non-top-tier role without the permission is forbidden.
	res = gateRequest(t, mw, issuer, denied, PermViewReports)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequirePermissionReflectsCurrentGrants(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	mw, issuer := newTestMiddleware(t, repo)

	admin := &Admin{ID: "staff-1", Email: "a@cust.com", Role: RoleStaff, Permissions: []string{PermViewReports}}
	repo.byID[admin.ID] = admin

	token, err := issuer.Issue(admin)
	require.NoError(t, err)

	var hit bool
	handler := mw.RequireAuth(mw.RequirePermission(PermViewReports)(okHandler(&hit)))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	// Revoke the permission; the same still-valid token must now be refused
	// because the gate re-reads grants from the store.
	repo.byID[admin.ID].Permissions = nil

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequirePermissionDeletedIdentity(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	mw, issuer := newTestMiddleware(t, repo)

	ghost := &Admin{ID: "gone-1", Email: "gone@cust.com", Role: RoleAdmin}
	res := gateRequest(t, mw, issuer, ghost, PermViewReports)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
