package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestRouter(t *testing.T, repo *mockRepo) (http.Handler, *Service) {
	t.Helper()
	issuer, err := NewTokenIssuer("handler-test-secret", 24*time.Hour)
	require.NoError(t, err)
	svc := NewService(repo, NewHasher(bcrypt.MinCost), issuer, nil, nil, nil, ServiceConfig{MinPasswordLength: 10})
	mw := Middleware{Issuer: issuer, Repo: repo}
	handler := NewHandler(nil, svc, mw)

	r := chi.NewRouter()
	r.Route("/api/auth", handler.MountAuthRoutes)
	r.Route("/api/admin", func(r chi.Router) {
		handler.MountAdminRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.With(mw.RequirePermission(PermViewReports)).Get("/reports", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		})
	})
	return r, svc
}

func doJSON(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestLoginScenario(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	router, svc := newTestRouter(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "admin@cust.com",
		Password:  "correct-password",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      "admin",
	})
	require.NoError(t, err)

	// Wrong password and unknown email must be indistinguishable.
	wrongPass := doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		`{"email":"admin@cust.com","password":"wrong"}`)
	unknown := doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		`{"email":"nobody@cust.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrongPass.Body.String(), unknown.Body.String())
	assert.Contains(t, wrongPass.Body.String(), "Invalid credentials")

	// Missing fields.
	missing := doJSON(t, router, http.MethodPost, "/api/auth/login", "", `{"email":"admin@cust.com"}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	// Correct credentials.
	ok := doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		`{"email":"admin@cust.com","password":"correct-password"}`)
	require.Equal(t, http.StatusOK, ok.Code)

	var logged loginResponse
	require.NoError(t, json.Unmarshal(ok.Body.Bytes(), &logged))
	require.NotEmpty(t, logged.Token)
	assert.Equal(t, "admin", logged.User.Role)
	assert.Equal(t, "admin@cust.com", logged.User.Email)
	assert.NotContains(t, ok.Body.String(), "passwordHash")

	claims, err := svc.issuer.Verify(logged.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)

	// Authenticated but missing view_reports: 403.
	reports := doJSON(t, router, http.MethodGet, "/api/admin/reports", logged.Token, "")
	assert.Equal(t, http.StatusForbidden, reports.Code)

	// Grant the permission; the same token now passes the gate.
	stored, err := repo.FindByEmail(context.Background(), "admin@cust.com")
	require.NoError(t, err)
	repo.byID[stored.ID].Permissions = []string{PermViewReports}
	reports = doJSON(t, router, http.MethodGet, "/api/admin/reports", logged.Token, "")
	assert.Equal(t, http.StatusOK, reports.Code)

	// No token at all: 401.
	reports = doJSON(t, router, http.MethodGet, "/api/admin/reports", "", "")
	assert.Equal(t, http.StatusUnauthorized, reports.Code)
}

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	router, _ := newTestRouter(t, repo)

	created := doJSON(t, router, http.MethodPost, "/api/auth/register", "",
		`{"email":"new@cust.com","password":"long-enough-pass","firstName":"Grace","lastName":"Hopper"}`)
	require.Equal(t, http.StatusCreated, created.Code)

	var resp registerResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &resp))
	assert.Equal(t, "staff", resp.User.Role)
	assert.NotEmpty(t, resp.User.ID)

	// Duplicate, differently cased: conflict, no second record.
	dup := doJSON(t, router, http.MethodPost, "/api/auth/register", "",
		`{"email":"NEW@CUST.COM","password":"long-enough-pass","firstName":"Grace","lastName":"Hopper"}`)
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Len(t, repo.byID, 1)

	// Weak password.
	weak := doJSON(t, router, http.MethodPost, "/api/auth/register", "",
		`{"email":"weak@cust.com","password":"short","firstName":"A","lastName":"B"}`)
	assert.Equal(t, http.StatusBadRequest, weak.Code)
}

func TestAdminRegisterRequiresPermission(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	router, svc := newTestRouter(t, repo)

	body := `{"email":"second@cust.com","password":"long-enough-pass","firstName":"New","lastName":"Admin","role":"staff"}`

	// Unauthenticated.
	res := doJSON(t, router, http.MethodPost, "/api/admin/register", "", body)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	// Authenticated without user_management.
	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "plain@cust.com", Password: "long-enough-pass", FirstName: "P", LastName: "L",
	})
	require.NoError(t, err)
	plainToken, _, err := svc.Login(context.Background(), "plain@cust.com", "long-enough-pass")
	require.NoError(t, err)
	res = doJSON(t, router, http.MethodPost, "/api/admin/register", plainToken, body)
	assert.Equal(t, http.StatusForbidden, res.Code)

	// Authenticated with user_management.
	manager, err := svc.Register(context.Background(), RegisterInput{
		Email: "manager@cust.com", Password: "long-enough-pass", FirstName: "M", LastName: "G", Role: "manager",
	})
	require.NoError(t, err)
	repo.byID[manager.ID].Permissions = []string{PermUserManagement}
	managerToken, _, err := svc.Login(context.Background(), "manager@cust.com", "long-enough-pass")
	require.NoError(t, err)
	res = doJSON(t, router, http.MethodPost, "/api/admin/register", managerToken, body)
	assert.Equal(t, http.StatusCreated, res.Code)
}

func TestFirstAdminEndpoint(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	router, _ := newTestRouter(t, repo)

	body := `{"email":"root@cust.com","password":"long-enough-pass","firstName":"Root","lastName":"Admin"}`
	res := doJSON(t, router, http.MethodPost, "/api/admin/register/first-admin", "", body)
	require.Equal(t, http.StatusCreated, res.Code)

	var resp registerResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
	assert.Equal(t, "super_admin", resp.User.Role)

	// Second attempt is rejected once any admin exists.
	res = doJSON(t, router, http.MethodPost, "/api/admin/register/first-admin", "",
		`{"email":"other@cust.com","password":"long-enough-pass","firstName":"O","lastName":"T"}`)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestProfileEndpoints(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	router, svc := newTestRouter(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "admin@cust.com", Password: "long-enough-pass", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	token, _, err := svc.Login(context.Background(), "admin@cust.com", "long-enough-pass")
	require.NoError(t, err)

	res := doJSON(t, router, http.MethodGet, "/api/admin/profile", token, "")
	require.Equal(t, http.StatusOK, res.Code)
	var profile Profile
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &profile))
	assert.Equal(t, "Ada", profile.FirstName)

	res = doJSON(t, router, http.MethodPut, "/api/admin/profile", token,
		`{"firstName":"Augusta","lastName":"King"}`)
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &profile))
	assert.Equal(t, "Augusta", profile.FirstName)

	res = doJSON(t, router, http.MethodGet, "/api/admin/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = doJSON(t, router, http.MethodPut, "/api/admin/change-password", token,
		`{"currentPassword":"long-enough-pass","newPassword":"even-longer-pass"}`)
	require.Equal(t, http.StatusOK, res.Code)

	_, _, err = svc.Login(context.Background(), "admin@cust.com", "even-longer-pass")
	assert.NoError(t, err)
}
