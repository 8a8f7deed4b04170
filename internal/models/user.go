package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role of a user
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// Provider names an external identity provider
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// ProviderIdentity binds a user to one external identity provider account.
// A user either has both fields or no ProviderIdentity at all.
type ProviderIdentity struct {
	Provider  Provider `json:"provider"`
	SubjectID string   `json:"subject_id"`
}

// Status is the soft-delete lifecycle state of a user.
// It is either Active or Deleted; no other implementations exist.
type Status interface {
	isStatus()
}

// Active marks a live user
type Active struct{}

// Deleted marks a soft-deleted user and records when it happened
type Deleted struct {
	At time.Time
}

func (Active) isStatus()  {}
func (Deleted) isStatus() {}

// User represents a user in the system
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     *string
	Avatar       *string
	Role         Role
	Identity     *ProviderIdentity
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser builds an active user with a fresh id and explicit timestamps
func NewUser(email, passwordHash string, fullName, avatar *string, now time.Time) *User {
	now = now.UTC()
	return &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Avatar:       avatar,
		Role:         RoleUser,
		Status:       Active{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsActive reports whether the user has not been soft-deleted
func (u *User) IsActive() bool {
	if u == nil {
		return false
	}
	switch u.Status.(type) {
	case Active, nil:
		return true
	default:
		return false
	}
}

// DeletedAt returns the deletion time and true when the user is soft-deleted
func (u *User) DeletedAt() (time.Time, bool) {
	if d, ok := u.Status.(Deleted); ok {
		return d.At, true
	}
	return time.Time{}, false
}

// SoftDelete marks the user deleted at now
func (u *User) SoftDelete(now time.Time) {
	now = now.UTC()
	u.Status = Deleted{At: now}
	u.UpdatedAt = now
}

// Touch sets the update timestamp
func (u *User) Touch(now time.Time) {
	u.UpdatedAt = now.UTC()
}

// Provider returns the bound provider name, or "" for password-only accounts
func (u *User) Provider() Provider {
	if u.Identity == nil {
		return ""
	}
	return u.Identity.Provider
}

// View returns the read-only projection handed to clients
func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserView is the client-facing projection of a user.
// Password hash and provider binding are never included.
type UserView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"fullName"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
