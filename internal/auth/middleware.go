package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Middleware resolves bearer tokens into callers and enforces roles.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireCaller rejects requests without a valid bearer token and stores the
// resolved caller in the request context.
func (m *Middleware) RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.Problem(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), "missing bearer token")
			return
		}
		caller, err := m.Service.Resolve(token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("reject token", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithCaller(r.Context(), caller)))
	})
}

// RequireRole allows only callers holding one of the roles.
func (m *Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := shared.CallerFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), "authentication required")
				return
			}
			for _, role := range roles {
				if caller.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Problem(w, http.StatusForbidden, http.StatusText(http.StatusForbidden), "insufficient role")
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
