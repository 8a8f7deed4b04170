// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/benvon/smart-auth/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the longest password bcrypt accepts
const MaxLength = 72

// ErrTooLong is returned by Hash for passwords longer than MaxLength
var ErrTooLong = errors.New("password too long")

// BcryptHasher implements the password hashing collaborator with bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher; cost <= 0 selects bcrypt.DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of plaintext
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxLength {
		return "", fmt.Errorf("password exceeds %d bytes: %w", MaxLength, ErrTooLong)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the user's stored hash.
// A user without a hash never verifies.
func (h *BcryptHasher) Verify(user *models.User, plaintext string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(plaintext))
	return err == nil
}

// RandomSecret returns a hex-encoded secret of n random bytes
func RandomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
