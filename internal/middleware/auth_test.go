package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/smart-auth/internal/apperrors"
	"github.com/benvon/smart-auth/internal/models"
	"github.com/benvon/smart-auth/internal/request"
	"github.com/google/uuid"
)

// stubResolver resolves one fixed token to one user
type stubResolver struct {
	token string
	user  *models.User
	err   error
	calls int
}

func (s *stubResolver) ResolveCallerFromBearerToken(_ context.Context, token string) (*models.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, apperrors.ErrTokenRevoked
	}
	return s.user, nil
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New(), Email: "a@example.com"}

	tests := []struct {
		name         string
		method       string
		path         string
		header       string
		resolverErr  error
		wantStatus   int
		wantCaller   bool
		wantResolved bool
	}{
		{name: "valid token", method: "GET", path: "/api/v1/auth/me", header: "Bearer good", wantStatus: http.StatusOK, wantCaller: true, wantResolved: true},
		{name: "missing header", method: "GET", path: "/api/v1/auth/me", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", method: "GET", path: "/api/v1/auth/me", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "revoked token", method: "POST", path: "/api/v1/auth/logout", header: "Bearer stale", wantStatus: http.StatusUnauthorized, wantResolved: true},
		{name: "store outage", method: "GET", path: "/api/v1/auth/me", header: "Bearer good", resolverErr: errors.New("redis down"), wantStatus: http.StatusInternalServerError, wantResolved: true},
		{name: "login is public", method: "POST", path: "/api/v1/auth/login", wantStatus: http.StatusOK},
		{name: "register is public", method: "POST", path: "/api/v1/auth/register", wantStatus: http.StatusOK},
		{name: "refresh is public even with a stale token", method: "POST", path: "/api/v1/auth/refresh", header: "Bearer stale", wantStatus: http.StatusOK},
		{name: "google is public", method: "POST", path: "/api/v1/auth/google", wantStatus: http.StatusOK},
		{name: "github is public", method: "POST", path: "/api/v1/auth/github", wantStatus: http.StatusOK},
		{name: "preflight passes", method: "OPTIONS", path: "/api/v1/auth/me", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resolver := &stubResolver{token: "good", user: user, err: tt.resolverErr}
			var sawCaller *models.User
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sawCaller = request.CallerFromContext(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			Authenticate(resolver, nil)(handler).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if (sawCaller != nil) != tt.wantCaller {
				t.Errorf("Expected caller present=%v, got %+v", tt.wantCaller, sawCaller)
			}
			if (resolver.calls > 0) != tt.wantResolved {
				t.Errorf("Expected resolver called=%v, got %d calls", tt.wantResolved, resolver.calls)
			}
		})
	}
}

func TestAuthenticate_ErrorBody(t *testing.T) {
	t.Parallel()

	resolver := &stubResolver{token: "good"}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer stale")
	w := httptest.NewRecorder()

	Authenticate(resolver, nil)(handler).ServeHTTP(w, req)

	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Message != apperrors.ErrTokenRevoked.Message {
		t.Errorf("Expected message %q, got %q", apperrors.ErrTokenRevoked.Message, body.Message)
	}
}

func TestIsPublicAuthPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"/api/v1/auth/login", true},
		{"/api/v1/auth/login/", true},
		{"/auth/register", true},
		{"/api/v1/auth/me", false},
		{"/api/v1/auth/logout", false},
		{"/api/v1/auth/change-password", false},
		{"/api/v1/auth/login/extra", false},
	}

	for _, tt := range tests {
		if got := IsPublicAuthPath(tt.path); got != tt.want {
			t.Errorf("IsPublicAuthPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestAuthenticate_ErrorCode(t *testing.T) {
	t.Parallel()

	resolver := &stubResolver{err: errors.New("redis down")}
	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()

	Authenticate(resolver, nil)(http.NotFoundHandler()).ServeHTTP(w, req)

	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Code != string(apperrors.CodeInternal) {
		t.Errorf("Expected code %s, got %q", apperrors.CodeInternal, body.Code)
	}
	if strings.Contains(body.Message, "redis") {
		t.Errorf("Expected infrastructure detail to stay out of the response, got %q", body.Message)
	}
}
