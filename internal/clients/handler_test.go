package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/internal/auth"
)

// stubIdentityRepo satisfies auth.Repository with a fixed permission set.
type stubIdentityRepo struct {
	admin *auth.Admin
}

func (s *stubIdentityRepo) FindByEmail(context.Context, string) (*auth.Admin, error) {
	return s.admin, nil
}

func (s *stubIdentityRepo) FindByID(context.Context, string) (*auth.Admin, error) {
	return s.admin, nil
}

func (s *stubIdentityRepo) Create(context.Context, *auth.Admin) error { return nil }

func (s *stubIdentityRepo) Count(context.Context) (int64, error) { return 1, nil }

func (s *stubIdentityRepo) UpdateProfile(context.Context, string, string, string) (*auth.Admin, error) {
	return s.admin, nil
}

func (s *stubIdentityRepo) UpdatePasswordHash(context.Context, string, string) error { return nil }

func (s *stubIdentityRepo) PermissionsByID(context.Context, string) (auth.Role, []string, error) {
	return s.admin.Role, s.admin.Permissions, nil
}

func newTestRouter(t *testing.T, repo *mockRepo, perms []string) (http.Handler, string) {
	t.Helper()

	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	admin := &auth.Admin{ID: "admin-1", Email: "ops@example.com", Role: auth.RoleAdmin, Permissions: perms}
	token, err := issuer.Issue(admin)
	require.NoError(t, err)

	mw := auth.Middleware{Issuer: issuer, Repo: &stubIdentityRepo{admin: admin}}
	handler := NewHandler(slog.New(slog.DiscardHandler), NewService(repo), mw)

	r := chi.NewRouter()
	r.Route("/api/admin/clients", func(r chi.Router) {
		r.Use(mw.RequireAuth)
		handler.MountRoutes(r)
	})
	return r, token
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestListRequiresViewReports(t *testing.T) {
	repo := newMockRepo()
	seedClient(repo, "a", StatusActive)

	router, token := newTestRouter(t, repo, nil)
	rr := doJSON(t, router, http.MethodGet, "/api/admin/clients", token, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	router, token = newTestRouter(t, repo, []string{auth.PermViewReports})
	rr = doJSON(t, router, http.MethodGet, "/api/admin/clients?status=active", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Clients    []Client `json:"clients"`
		Pagination struct {
			Page    int `json:"page"`
			PerPage int `json:"perPage"`
			Total   int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Clients, 1)
	assert.Equal(t, 1, resp.Pagination.Total)
}

func TestViewerCannotMutate(t *testing.T) {
	repo := newMockRepo()
	seedClient(repo, "a", StatusPending)

	router, token := newTestRouter(t, repo, []string{auth.PermViewReports})

	rr := doJSON(t, router, http.MethodPut, "/api/admin/clients/a/status", token, map[string]string{"status": "active"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doJSON(t, router, http.MethodDelete, "/api/admin/clients/a", token, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestApproverCanUpdateStatus(t *testing.T) {
	repo := newMockRepo()
	seedClient(repo, "a", StatusPending)

	router, token := newTestRouter(t, repo, []string{auth.PermApproveClients})

	rr := doJSON(t, router, http.MethodPut, "/api/admin/clients/a/status", token, map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, rr.Code)

	var updated Client
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, StatusActive, updated.Status)

	rr = doJSON(t, router, http.MethodPut, "/api/admin/clients/a/status", token, map[string]string{"status": "frozen"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetUnknownClient(t *testing.T) {
	router, token := newTestRouter(t, newMockRepo(), []string{auth.PermViewReports})

	rr := doJSON(t, router, http.MethodGet, "/api/admin/clients/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMissingTokenRejected(t *testing.T) {
	router, _ := newTestRouter(t, newMockRepo(), []string{auth.PermViewReports})

	rr := doJSON(t, router, http.MethodGet, "/api/admin/clients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
