package auth_test

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

	"github.com/bizdesk/bizdesk/internal/auth"
	"github.com/bizdesk/bizdesk/internal/shared"
	_ "github.com/bizdesk/bizdesk/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateUser(ctx context.Context, user auth.User) (int64, error) {
	return 1, nil
}

func newRouter(t *testing.T) (http.Handler, *auth.TokenIssuer) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{ID: 3, Name: "Dee", Email: "dee@example.com", PasswordHash: string(hash), Role: shared.RoleSeller, IsActive: true}}
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	svc := auth.NewService(repo, issuer)
	handler := auth.NewHandler(nil, svc)
	mw := &auth.Middleware{Service: svc}

	r := chi.NewRouter()
	r.Post("/auth/login", handler.Login)
	r.With(mw.RequireCaller).Get("/auth/me", handler.Me)
	r.With(mw.RequireCaller, mw.RequireRole(shared.RoleAdmin)).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r, issuer
}

func TestLoginIssuesTokenUsableForMe(t *testing.T) {
	router, _ := newRouter(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"dee@example.com","password":"password1"}`))
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var login auth.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var caller shared.Caller
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &caller))
	assert.Equal(t, int64(3), caller.UserID)
	assert.Equal(t, "dee@example.com", caller.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := newRouter(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"dee@example.com","password":"nope"}`))
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginMalformedBody(t *testing.T) {
	router, _ := newRouter(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"not-an-email"}`))
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMeRequiresToken(t *testing.T) {
	router, _ := newRouter(t)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRoleForbidsSeller(t *testing.T) {
	router, issuer := newRouter(t)

	seller, _, err := issuer.Issue(shared.Caller{UserID: 3, Role: shared.RoleSeller})
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+seller)
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	admin, _, err := issuer.Issue(shared.Caller{UserID: 1, Role: shared.RoleAdmin})
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
