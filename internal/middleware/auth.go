package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"scriptorium/internal/auth"
	"scriptorium/internal/httputil"
)

// DevUserHeader carries the acting user when no verifier is configured
const DevUserHeader = "X-User-ID"

// AuthMiddleware resolves the acting user and stores it in the request context.
// With a nil verifier the user is taken from DevUserHeader as-is.
func AuthMiddleware(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			if verifier == nil {
				userID := strings.TrimSpace(r.Header.Get(DevUserHeader))
				if userID == "" {
					httputil.RespondError(w, http.StatusUnauthorized, "missing "+DevUserHeader+" header")
					return
				}
				next.ServeHTTP(w, httputil.WithUserID(r, userID))
				return
			}

			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, claims.GetUserID()))
		})
	}
}
