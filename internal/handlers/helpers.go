package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/smart-auth/internal/apperrors"
	"github.com/benvon/smart-auth/internal/logger"
	"github.com/benvon/smart-auth/internal/validation"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// maxErrorMessageLength bounds client-facing error messages
const maxErrorMessageLength = 200

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage truncates error messages
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeError(w, status, errorType, message, "")
}

func writeError(w http.ResponseWriter, status int, errorType, message string, code apperrors.Code) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if code != "" {
		response["code"] = code
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondServiceError maps a core error to its status and client-safe message.
// Uncoded errors are infrastructure failures: logged, and answered with a generic 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, log *zap.Logger) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("request_failed",
			zap.String("method", r.Method),
			zap.String("path", logger.SanitizePath(r.URL.Path)),
			zap.String("error", logger.SanitizeError(err)),
		)
		writeError(w, status, http.StatusText(status), "Internal server error", apperrors.CodeInternal)
		return
	}

	writeError(w, status, http.StatusText(status), apperrors.MessageOf(err), apperrors.CodeOf(err))
}

// decodeAndValidate reads a JSON body into dst and runs the shared validator on it.
// It writes the error response itself and reports whether the caller may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			writeError(w, http.StatusBadRequest, "Bad Request", validationMessage(validationErrors[0]), apperrors.CodeInvalidInput)
			return false
		}
		writeError(w, http.StatusBadRequest, "Bad Request", "Validation failed", apperrors.CodeInvalidInput)
		return false
	}

	return true
}

// validationMessage renders one field error without echoing the rejected value
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "strong_password":
		return fmt.Sprintf("%s must be at least %d characters and contain upper and lower case letters, a digit and a symbol", fe.Field(), validation.MinPasswordLength)
	case "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	case "http_url_or_empty":
		return fmt.Sprintf("%s must be an http(s) URL", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
