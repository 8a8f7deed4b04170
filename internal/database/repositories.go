package database

import (
	"context"
	"errors"

	"github.com/benvon/smart-auth/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when no active user matches
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when another active user owns the email
	ErrDuplicateEmail = errors.New("email already in use")
)

// UserDirectory defines the user lookup and persistence operations the auth core needs.
// Finders only ever return active users.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
}

// Ensure concrete types implement the interface
var (
	_ UserDirectory = (*UserRepository)(nil)
	_ UserDirectory = (*MemoryUserRepository)(nil)
)
