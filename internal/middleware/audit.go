package middleware

import (
	"net/http"

	logpkg "github.com/benvon/smart-auth/internal/logger"
	"github.com/benvon/smart-auth/internal/request"
	"go.uber.org/zap"
)

// Audit logs security-related events for monitoring and compliance
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logpkg.OrNop(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
			}

			switch statusCode := wrapped.statusCode; {
			case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
				logger.Warn("security_event", append(fields, zap.Int("status_code", statusCode))...)
			case statusCode == http.StatusConflict && IsPublicAuthPath(r.URL.Path):
				// Registration and OAuth conflicts reveal account existence; keep a trail.
				logger.Warn("account_conflict", fields...)
			case statusCode == http.StatusTooManyRequests:
				logger.Warn("rate_limit_violation", fields...)
			}
		})
	}
}
