package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/benvon/smart-auth/internal/models"
	"github.com/google/uuid"
)

// MemoryUserRepository is an in-process UserDirectory used by tests and local tooling
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
}

// NewMemoryUserRepository creates an empty in-memory user repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]*models.User)}
}

// Create stores a copy of user
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; exists {
		return fmt.Errorf("failed to create user: id %s already exists", user.ID)
	}
	if user.IsActive() && r.activeEmailTakenLocked(user.Email, user.ID) {
		return fmt.Errorf("failed to create user: %w", ErrDuplicateEmail)
	}

	r.users[user.ID] = cloneUser(user)
	return nil
}

// FindByID returns a copy of the active user with the given id
func (r *MemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok || !user.IsActive() {
		return nil, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	return cloneUser(user), nil
}

// FindByEmail returns a copy of the active user with the given email
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email && user.IsActive() {
			return cloneUser(user), nil
		}
	}
	return nil, fmt.Errorf("user by email: %w", ErrUserNotFound)
}

// Save replaces the stored copy of an existing user
func (r *MemoryUserRepository) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, ErrUserNotFound)
	}
	if user.IsActive() && r.activeEmailTakenLocked(user.Email, user.ID) {
		return fmt.Errorf("failed to update user: %w", ErrDuplicateEmail)
	}

	r.users[user.ID] = cloneUser(user)
	return nil
}

// Count returns the number of stored users, including soft-deleted ones
func (r *MemoryUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *MemoryUserRepository) activeEmailTakenLocked(email string, except uuid.UUID) bool {
	for id, existing := range r.users {
		if id != except && existing.Email == email && existing.IsActive() {
			return true
		}
	}
	return false
}

func cloneUser(user *models.User) *models.User {
	clone := *user
	if user.FullName != nil {
		name := *user.FullName
		clone.FullName = &name
	}
	if user.Avatar != nil {
		avatar := *user.Avatar
		clone.Avatar = &avatar
	}
	if user.Identity != nil {
		identity := *user.Identity
		clone.Identity = &identity
	}
	return &clone
}
