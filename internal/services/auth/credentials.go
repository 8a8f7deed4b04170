package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-auth/internal/apperrors"
	"github.com/benvon/smart-auth/internal/database"
	"github.com/benvon/smart-auth/internal/logger"
	"github.com/benvon/smart-auth/internal/models"
	"github.com/benvon/smart-auth/internal/password"
	"go.uber.org/zap"
)

// PasswordHasher hashes and verifies user passwords
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(user *models.User, plaintext string) bool
}

// RegisterInput is the data needed to create a password account
type RegisterInput struct {
	Email    string
	Password string
	FullName *string
	Avatar   *string
}

// ProfileUpdate lists the profile fields to change; nil fields are left alone
type ProfileUpdate struct {
	FullName *string
	Avatar   *string
}

// CredentialAuthenticator orchestrates the password-based account flows
type CredentialAuthenticator struct {
	users  database.UserDirectory
	hasher PasswordHasher
	issuer *TokenIssuer
	now    func() time.Time
	logger *zap.Logger

	// decoy is verified against when the email is unknown so that both
	// login failures cost one hash comparison.
	decoy *models.User
}

// NewCredentialAuthenticator creates a credential authenticator
func NewCredentialAuthenticator(users database.UserDirectory, hasher PasswordHasher, issuer *TokenIssuer, log *zap.Logger) *CredentialAuthenticator {
	a := &CredentialAuthenticator{
		users:  users,
		hasher: hasher,
		issuer: issuer,
		now:    time.Now,
		logger: logger.OrNop(log),
		decoy:  &models.User{},
	}

	if hasher == nil {
		return a
	}

	secret, err := password.RandomSecret(placeholderSecretBytes)
	if err == nil {
		a.decoy.PasswordHash, err = hasher.Hash(secret)
	}
	if err != nil {
		a.logger.Warn("login_decoy_hash_failed", zap.Error(err))
	}
	return a
}

// WithClock replaces the time source used for timestamps
func (a *CredentialAuthenticator) WithClock(now func() time.Time) *CredentialAuthenticator {
	a.now = now
	return a
}

// Register creates a password account and issues its first token pair
func (a *CredentialAuthenticator) Register(ctx context.Context, in RegisterInput) (*models.AuthResult, error) {
	_, err := a.users.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, apperrors.ErrEmailTaken
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := a.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(in.Email, hash, in.FullName, in.Avatar, a.now())
	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, apperrors.Wrap(apperrors.CodeEmailTaken, "email already registered", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("user_registered", zap.String("user_id", logger.SanitizeUserID(user.ID.String())))

	return a.issuer.IssueTokens(ctx, user)
}

// Login verifies an email/password pair and issues a new token pair.
// An unknown email and a wrong password fail identically.
func (a *CredentialAuthenticator) Login(ctx context.Context, email, plaintext string) (*models.AuthResult, error) {
	user, err := a.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, database.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	target := user
	if target == nil {
		target = a.decoy
	}
	if !a.hasher.Verify(target, plaintext) || user == nil {
		a.logger.Info("login_failed", zap.String("email", logger.SanitizeEmail(email)))
		return nil, apperrors.ErrInvalidCredentials
	}

	return a.issuer.IssueTokens(ctx, user)
}

// ChangePassword replaces the password of user and revokes its tokens
func (a *CredentialAuthenticator) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if !a.hasher.Verify(user, current) {
		return apperrors.ErrWrongPassword
	}

	hash, err := a.hashPassword(next)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.Touch(a.now())
	if err := a.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save password: %w", err)
	}

	if err := a.issuer.Revoke(ctx, user); err != nil {
		return fmt.Errorf("failed to revoke tokens after password change: %w", err)
	}

	a.logger.Info("password_changed", zap.String("user_id", logger.SanitizeUserID(user.ID.String())))
	return nil
}

// Logout revokes both tokens of user
func (a *CredentialAuthenticator) Logout(ctx context.Context, user *models.User) error {
	return a.issuer.Revoke(ctx, user)
}

// UpdateProfile applies the non-nil fields of update to user and persists it
func (a *CredentialAuthenticator) UpdateProfile(ctx context.Context, user *models.User, update ProfileUpdate) (*models.User, error) {
	if update.FullName == nil && update.Avatar == nil {
		return user, nil
	}

	if update.FullName != nil {
		user.FullName = optional(*update.FullName)
	}
	if update.Avatar != nil {
		user.Avatar = optional(*update.Avatar)
	}
	user.Touch(a.now())

	if err := a.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// DeleteUser soft-deletes user and revokes its tokens
func (a *CredentialAuthenticator) DeleteUser(ctx context.Context, user *models.User) error {
	user.SoftDelete(a.now())
	if err := a.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := a.issuer.Revoke(ctx, user); err != nil {
		return fmt.Errorf("failed to revoke tokens of deleted user: %w", err)
	}

	a.logger.Info("user_deleted", zap.String("user_id", logger.SanitizeUserID(user.ID.String())))
	return nil
}

func (a *CredentialAuthenticator) hashPassword(plaintext string) (string, error) {
	hash, err := a.hasher.Hash(plaintext)
	if errors.Is(err, password.ErrTooLong) {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "password too long", err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}
