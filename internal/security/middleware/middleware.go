package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/yourorg/dataplane/internal/domain"
	"github.com/yourorg/dataplane/internal/security/auth"
)

type PrincipalContextKey struct{}

// publicPaths are served without a session token.
var publicPaths = map[string]bool{
	"/healthz":                   true,
	"/readyz":                    true,
	"/metrics":                   true,
	"/api/greeting":              true,
	"/api/auth/login":            true,
	"/api/public/clients/search": true,
}

// PrincipalMiddleware decodes the bearer token on every protected route and
// threads the resolved principal through the request context. Handlers read
// it back with GetPrincipal; no ambient state is involved.
func PrincipalMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing token"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			principal, err := tm.Verify(tokenString)
			if err != nil {
				log.Warn("token verification failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal returns the principal resolved by PrincipalMiddleware, or nil
// on public routes.
func GetPrincipal(ctx context.Context) *domain.Principal {
	if p, ok := ctx.Value(PrincipalContextKey{}).(*domain.Principal); ok {
		return p
	}
	return nil
}
