package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopwatch/shopwatch/internal/auth"
	"github.com/shopwatch/shopwatch/internal/model"
)

// SessionLookup resolves a session by hashed token. A nil result with
// a nil error means the session does not exist or has expired.
type SessionLookup interface {
	GetSession(ctx context.Context, tokenHash string) (*model.AuthContext, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Sessions SessionLookup
}

// Auth returns a middleware that authenticates requests by their
// session bearer token and injects the auth context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" || !auth.ValidateTokenFormat(token) {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_or_malformed_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			authCtx, err := cfg.Sessions.GetSession(r.Context(), auth.QuickHash(token))
			if err != nil {
				// Session store outage, not a bad token. Answering 401
				// here would log users out during a Redis blip.
				cfg.Logger.Error("session lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeSessionStoreError(w)
				return
			}
			if authCtx == nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "unknown_or_expired_session"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the session token from the
// Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing session token"}}`))
}

// writeSessionStoreError writes a 503 when the session store cannot be
// reached and the token could not be checked either way.
func writeSessionStoreError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`{"error":{"code":"SERVICE_UNAVAILABLE","message":"Session verification temporarily unavailable"}}`))
}
