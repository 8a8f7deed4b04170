// Package request holds per-request helpers shared by middleware and handlers.
package request

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/benvon/smart-auth/internal/models"
)

type contextKey string

const callerContextKey contextKey = "caller"

const bearerPrefix = "bearer "

// CallerContextKey returns the context key used for the caller. Exposed for tests that inject non-user values.
func CallerContextKey() contextKey { return callerContextKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
// The port is stripped from RemoteAddr so one client maps to one rate limit bucket.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// WithCaller returns a context carrying the authenticated caller.
func WithCaller(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, callerContextKey, user)
}

// CallerFromContext returns the authenticated caller, or nil if missing or wrong type.
func CallerFromContext(r *http.Request) *models.User {
	u, _ := r.Context().Value(callerContextKey).(*models.User)
	return u
}
