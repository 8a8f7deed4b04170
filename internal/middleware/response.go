package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/smart-auth/internal/apperrors"
	"go.uber.org/zap"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

// respondErrorJSON sends an error JSON response
func respondErrorJSON(w http.ResponseWriter, r *http.Request, status int, errorType, message string, logger *zap.Logger) {
	writeErrorResponse(w, r, status, ErrorResponse{Error: errorType, Message: message}, logger)
}

// respondAppError sends the status, message and code of a domain error
func respondAppError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	status := apperrors.HTTPStatus(err)
	writeErrorResponse(w, r, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: apperrors.MessageOf(err),
		Code:    string(apperrors.CodeOf(err)),
	}, logger)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, response ErrorResponse, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response.Success = false
	response.Timestamp = time.Now().UTC().Format(time.RFC3339)
	response.Path = r.URL.Path

	if err := json.NewEncoder(w).Encode(response); err != nil && logger != nil {
		logger.Error("failed_to_encode_error_response",
			zap.Error(err),
			zap.Int("status_code", status),
			zap.String("path", r.URL.Path),
		)
	}
}
