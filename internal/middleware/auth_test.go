package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopwatch/shopwatch/internal/auth"
	"github.com/shopwatch/shopwatch/internal/model"
)

type fakeSessions struct {
	sessions map[string]*model.AuthContext
	err      error
}

func (f *fakeSessions) GetSession(_ context.Context, tokenHash string) (*model.AuthContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions[tokenHash], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuth(t *testing.T) {
	validToken := "sw_" + strings.Repeat("ab12", 16)
	sessions := &fakeSessions{
		sessions: map[string]*model.AuthContext{
			auth.QuickHash(validToken): {UserID: "u1", Username: "alice", Role: model.RoleUser},
		},
	}

	tests := []struct {
		name       string
		header     string
		lookup     *fakeSessions
		wantStatus int
		wantBody   string
	}{
		{"valid_token", "Bearer " + validToken, sessions, http.StatusOK, ""},
		{"missing_header", "", sessions, http.StatusUnauthorized, "Invalid or missing session token"},
		{"not_bearer", "Basic abc", sessions, http.StatusUnauthorized, "Invalid or missing session token"},
		{"malformed_token", "Bearer not-a-token", sessions, http.StatusUnauthorized, "Invalid or missing session token"},
		{"unknown_session", "Bearer sw_" + strings.Repeat("ff00", 16), sessions, http.StatusUnauthorized, "Invalid or missing session token"},
		// A session store outage must not masquerade as a bad token.
		{"store_unavailable", "Bearer " + validToken, &fakeSessions{err: errors.New("redis down")}, http.StatusServiceUnavailable, "temporarily unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth *model.AuthContext
			handler := Auth(AuthConfig{Logger: discardLogger(), Sessions: tt.lookup})(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					gotAuth = auth.AuthFromContext(r.Context())
					w.WriteHeader(http.StatusOK)
				}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotAuth == nil || gotAuth.UserID != "u1" {
					t.Fatalf("auth context not injected: %+v", gotAuth)
				}
			} else if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("unexpected error body: %s", rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		authCtx    *model.AuthContext
		required   model.Role
		wantStatus int
	}{
		{"matching_role", &model.AuthContext{UserID: "u1", Role: model.RoleUser}, model.RoleUser, http.StatusOK},
		{"admin_passes_user_check", &model.AuthContext{UserID: "a1", Role: model.RoleAdmin}, model.RoleUser, http.StatusOK},
		{"user_blocked_from_admin", &model.AuthContext{UserID: "u1", Role: model.RoleUser}, model.RoleAdmin, http.StatusForbidden},
		{"no_auth_context", nil, model.RoleUser, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authCtx != nil {
				req = req.WithContext(auth.ContextWithAuth(req.Context(), tt.authCtx))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
