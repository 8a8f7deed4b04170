package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/benvon/smart-auth/internal/apperrors"
	logpkg "github.com/benvon/smart-auth/internal/logger"
	"github.com/benvon/smart-auth/internal/models"
	"github.com/benvon/smart-auth/internal/request"
	"go.uber.org/zap"
)

// publicAuthPath matches the auth endpoints that must never resolve a caller
var publicAuthPath = regexp.MustCompile(`/auth/(login|register|refresh|google|github)/?$`)

// CallerResolver resolves the user owning a bearer access token
type CallerResolver interface {
	ResolveCallerFromBearerToken(ctx context.Context, token string) (*models.User, error)
}

// IsPublicAuthPath reports whether path is a login, register, refresh or OAuth endpoint
func IsPublicAuthPath(path string) bool {
	return publicAuthPath.MatchString(path)
}

// Authenticate requires a valid bearer access token and stores the caller in the request context.
// Public auth endpoints pass through untouched.
func Authenticate(resolver CallerResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logpkg.OrNop(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || IsPublicAuthPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := request.BearerToken(r)
			if !ok {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Missing bearer token", logger)
				return
			}

			caller, err := resolver.ResolveCallerFromBearerToken(r.Context(), token)
			if err != nil {
				if apperrors.HTTPStatus(err) == http.StatusInternalServerError {
					logger.Error("caller_resolution_failed",
						zap.String("path", logpkg.SanitizePath(r.URL.Path)),
						zap.String("error", logpkg.SanitizeError(err)),
					)
				}
				respondAppError(w, r, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithCaller(r.Context(), caller)))
		})
	}
}
