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

// placeholderSecretBytes is the entropy of the unusable password given to OAuth-created accounts
const placeholderSecretBytes = 32

// IdentityReconciler maps a verified external identity to exactly one local user.
// A user bound to one provider is never rebound to another.
type IdentityReconciler struct {
	users  database.UserDirectory
	hasher PasswordHasher
	now    func() time.Time
	logger *zap.Logger
}

// NewIdentityReconciler creates an identity reconciler
func NewIdentityReconciler(users database.UserDirectory, hasher PasswordHasher, log *zap.Logger) *IdentityReconciler {
	return &IdentityReconciler{
		users:  users,
		hasher: hasher,
		now:    time.Now,
		logger: logger.OrNop(log),
	}
}

// WithClock replaces the time source used for timestamps
func (r *IdentityReconciler) WithClock(now func() time.Time) *IdentityReconciler {
	r.now = now
	return r
}

// Reconcile finds or creates the user for identity and binds the provider to it
func (r *IdentityReconciler) Reconcile(ctx context.Context, identity models.ExternalIdentity) (*models.User, error) {
	if identity.Email == "" || identity.SubjectID == "" || identity.Provider == "" {
		return nil, apperrors.New(apperrors.CodeInvalidProviderToken, "provider identity incomplete")
	}

	user, err := r.users.FindByEmail(ctx, identity.Email)
	switch {
	case errors.Is(err, database.ErrUserNotFound):
		return r.create(ctx, identity)
	case err != nil:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.Identity != nil && user.Identity.Provider != identity.Provider {
		r.logger.Warn("provider_conflict",
			zap.String("user_id", logger.SanitizeUserID(user.ID.String())),
			zap.String("bound_provider", string(user.Identity.Provider)),
			zap.String("attempted_provider", string(identity.Provider)),
		)
		return nil, apperrors.New(apperrors.CodeProviderConflict,
			fmt.Sprintf("email already linked to provider %s", user.Identity.Provider))
	}

	// A placeholder address proves nothing about ownership of a password account.
	if user.Identity == nil && identity.EmailSynthesized {
		r.logger.Warn("placeholder_email_binding_refused",
			zap.String("user_id", logger.SanitizeUserID(user.ID.String())),
			zap.String("provider", string(identity.Provider)),
		)
		return nil, apperrors.New(apperrors.CodeProviderConflict,
			"email already registered with a password")
	}

	if user.Identity != nil && user.Identity.SubjectID != identity.SubjectID {
		r.logger.Warn("provider_subject_changed",
			zap.String("user_id", logger.SanitizeUserID(user.ID.String())),
			zap.String("provider", string(identity.Provider)),
		)
	}

	user.Identity = &models.ProviderIdentity{Provider: identity.Provider, SubjectID: identity.SubjectID}
	user.Touch(r.now())
	if err := r.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to bind provider: %w", err)
	}

	return user, nil
}

func (r *IdentityReconciler) create(ctx context.Context, identity models.ExternalIdentity) (*models.User, error) {
	secret, err := password.RandomSecret(placeholderSecretBytes)
	if err != nil {
		return nil, err
	}
	hash, err := r.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}

	user := models.NewUser(identity.Email, hash, optional(identity.Name), optional(identity.Avatar), r.now())
	user.Identity = &models.ProviderIdentity{Provider: identity.Provider, SubjectID: identity.SubjectID}

	if err := r.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, apperrors.Wrap(apperrors.CodeEmailTaken, "email already registered", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("user_created_from_provider",
		zap.String("user_id", logger.SanitizeUserID(user.ID.String())),
		zap.String("provider", string(identity.Provider)),
	)
	return user, nil
}

// optional returns nil for an empty string
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
