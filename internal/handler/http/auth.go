package http

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"event-harvest/internal/handler/http/respond"
)

// AuthConfig controls access to mutating and control endpoints.
// The worker's API is an internal operations surface; a single shared
// bearer token is sufficient.
type AuthConfig struct {
	// Token is the expected bearer token. When empty, authorization is
	// disabled and every request passes.
	Token string
}

// LoadAuthConfigFromEnv reads the ops token from OPS_AUTH_TOKEN.
func LoadAuthConfigFromEnv() AuthConfig {
	return AuthConfig{Token: os.Getenv("OPS_AUTH_TOKEN")}
}

// Middleware returns the authorization middleware for mutating routes.
// Requests must carry "Authorization: Bearer <token>".
func (c AuthConfig) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if c.Token == "" {
		logger.Warn("OPS_AUTH_TOKEN not set, mutating endpoints are unprotected")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respond.SafeError(w, http.StatusUnauthorized,
					errors.New("authorization header with bearer token required"))
				return
			}
			// タイミング攻撃を避けるため定数時間で比較する
			if subtle.ConstantTimeCompare([]byte(token), []byte(c.Token)) != 1 {
				logger.Warn("rejected request with invalid ops token",
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr))
				respond.SafeError(w, http.StatusForbidden,
					errors.New("invalid token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
