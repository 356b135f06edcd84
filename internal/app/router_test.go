package app_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/app"
	"github.com/bizdesk/bizdesk/internal/auth"
	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/jobs"
	_ "github.com/bizdesk/bizdesk/testing"
)

type noUsers struct{}

func (noUsers) FindByEmail(context.Context, string) (*auth.User, error) {
	return nil, shared.ErrNotFound
}

func (noUsers) CreateUser(context.Context, auth.User) (int64, error) { return 0, nil }

func newTestRouter(t *testing.T) (http.Handler, *auth.TokenIssuer) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := auth.NewTokenIssuer("router-secret", time.Hour)
	svc := auth.NewService(noUsers{}, issuer)
	return app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         &app.Config{AppRequestTimeout: time.Second, LoginRateLimit: 5},
		AuthHandler:    auth.NewHandler(logger, svc),
		AuthMiddleware: &auth.Middleware{Service: svc, Logger: logger},
		JobHandler:     jobs.NewHandler(nil, logger),
	}), issuer
}

func TestHealthzIsPublic(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestAPIRequiresBearerToken(t *testing.T) {
	router, issuer := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/health", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := issuer.Issue(shared.Caller{UserID: 1, Name: "Ana", Role: shared.RoleSeller})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/health", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queue":"default"`)
}

func TestUnmountedModulesAreNotFound(t *testing.T) {
	router, issuer := newTestRouter(t)
	token, _, err := issuer.Issue(shared.Caller{UserID: 1, Role: shared.RoleAdmin})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/quotes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
