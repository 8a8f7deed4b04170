package handlers

import (
	"net/http"
	"strings"

	"github.com/benvon/smart-auth/internal/logger"
	"github.com/benvon/smart-auth/internal/models"
	"github.com/benvon/smart-auth/internal/request"
	"github.com/benvon/smart-auth/internal/services/auth"
	"github.com/benvon/smart-auth/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AuthHandler exposes the auth service over JSON
type AuthHandler struct {
	service *auth.Service
	logger  *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *auth.Service, log *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger.OrNop(log)}
}

// RegisterPublicRoutes registers the routes that never resolve a caller.
// The router should already have the /api/v1/auth prefix.
func (h *AuthHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/refresh", h.Refresh).Methods("POST")
	r.HandleFunc("/google", h.GoogleLogin).Methods("POST")
	r.HandleFunc("/github", h.GithubLogin).Methods("POST")
}

// RegisterProtectedRoutes registers the routes that require a bearer token.
// The router should already have the /api/v1/auth prefix and the Authenticate middleware.
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
	r.HandleFunc("/me", h.UpdateMe).Methods("PATCH")
	r.HandleFunc("/me", h.DeleteMe).Methods("DELETE")
	r.HandleFunc("/change-password", h.ChangePassword).Methods("POST")
	r.HandleFunc("/logout", h.Logout).Methods("POST")
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,strong_password"`
	FullName *string `json:"fullName,omitempty" validate:"omitempty,min=2,max=50"`
	Avatar   *string `json:"avatar,omitempty" validate:"omitempty,max=2048,http_url_or_empty"`
}

// LoginRequest represents a password login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token to rotate
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// GoogleLoginRequest carries a Google ID token
type GoogleLoginRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// GithubLoginRequest carries a GitHub authorization code
type GithubLoginRequest struct {
	Code string `json:"code" validate:"required"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,strong_password"`
}

// UpdateProfileRequest changes only the fields that are present
type UpdateProfileRequest struct {
	FullName *string `json:"fullName,omitempty" validate:"omitempty,min=2,max=50"`
	Avatar   *string `json:"avatar,omitempty" validate:"omitempty,max=2048,http_url_or_empty"`
}

// MessageResponse is returned by operations without a result body
type MessageResponse struct {
	Message string `json:"message"`
}

// Register creates a password account and signs it in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		FullName: sanitizeOptional(req.FullName),
		Avatar:   req.Avatar,
	})
	if err != nil {
		respondServiceError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// Login authenticates an email and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		respondServiceError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Refresh exchanges the current refresh token for a new token pair
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GoogleLogin signs in with a Google ID token
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.GoogleLogin(r.Context(), req.Credential)
	if err != nil {
		respondServiceError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GithubLogin signs in with a GitHub authorization code
func (h *AuthHandler) GithubLogin(w http.ResponseWriter, r *http.Request) {
	var req GithubLoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.GithubLogin(r.Context(), req.Code)
	if err != nil {
		respondServiceError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetMe returns the caller's profile
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, user.View())
}

// UpdateMe changes the caller's display name and avatar
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), user, auth.ProfileUpdate{
		FullName: sanitizeOptional(req.FullName),
		Avatar:   req.Avatar,
	})
	if err != nil {
		respondServiceError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, updated.View())
}

// DeleteMe soft-deletes the caller's account
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), user); err != nil {
		respondServiceError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Account deleted"})
}

// ChangePassword replaces the caller's password and signs out every session
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Password changed"})
}

// Logout revokes the caller's tokens
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), user); err != nil {
		respondServiceError(w, r, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

func (h *AuthHandler) caller(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := request.CallerFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return nil, false
	}
	return user, true
}

func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := validation.SanitizeText(*s)
	return &clean
}
