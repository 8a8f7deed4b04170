package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-auth/internal/apperrors"
	"github.com/benvon/smart-auth/internal/database"
	"github.com/benvon/smart-auth/internal/logger"
	"github.com/benvon/smart-auth/internal/models"
	"github.com/benvon/smart-auth/internal/tokenstore"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	accessKeyPrefix  = "access_token:"
	refreshKeyPrefix = "refresh_token:"
)

// AccessKey is the TokenStore key holding a user's current access token
func AccessKey(userID uuid.UUID) string {
	return accessKeyPrefix + userID.String()
}

// RefreshKey is the TokenStore key holding a user's current refresh token
func RefreshKey(userID uuid.UUID) string {
	return refreshKeyPrefix + userID.String()
}

// TokenIssuer creates, validates and revokes the access/refresh token pair of a user.
// Only the most recently issued pair is valid: the store holds the current
// token strings and every presented token must match them exactly.
type TokenIssuer struct {
	codec      TokenCodec
	store      tokenstore.Store
	users      database.UserDirectory
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewTokenIssuer creates a token issuer
func NewTokenIssuer(codec TokenCodec, store tokenstore.Store, users database.UserDirectory, accessTTL, refreshTTL time.Duration, log *zap.Logger) *TokenIssuer {
	return &TokenIssuer{
		codec:      codec,
		store:      store,
		users:      users,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		logger:     logger.OrNop(log),
	}
}

// WithClock replaces the time source used for refresh expiry
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

// IssueTokens signs a new pair for user, stores it, and returns it with the user view.
// Any previously issued pair for the user stops validating.
func (i *TokenIssuer) IssueTokens(ctx context.Context, user *models.User) (*models.AuthResult, error) {
	access, err := i.codec.SignAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := i.codec.EncodeRefresh(RefreshPayload{
		Sub:   user.ID.String(),
		Email: user.Email,
		Exp:   i.now().Add(i.refreshTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh token: %w", err)
	}

	if err := i.store.Set(ctx, AccessKey(user.ID), access, i.accessTTL); err != nil {
		return nil, fmt.Errorf("failed to store access token: %w", err)
	}
	if err := i.store.Set(ctx, RefreshKey(user.ID), refresh, i.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	i.logger.Debug("tokens_issued", zap.String("user_id", logger.SanitizeUserID(user.ID.String())))

	return &models.AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.View(),
	}, nil
}

// Refresh rotates the pair identified by refreshToken.
// A superseded or logged-out refresh token fails with ErrTokenRevoked.
func (i *TokenIssuer) Refresh(ctx context.Context, refreshToken string) (*models.AuthResult, error) {
	userID, err := i.subjectOf(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	if err := i.matchStored(ctx, RefreshKey(userID), refreshToken); err != nil {
		if errors.Is(err, apperrors.ErrTokenRevoked) {
			i.logger.Warn("refresh_token_reused", zap.String("user_id", logger.SanitizeUserID(userID.String())))
		}
		return nil, err
	}

	user, err := i.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return i.IssueTokens(ctx, user)
}

// ValidateAccessToken resolves the user owning a current access token
func (i *TokenIssuer) ValidateAccessToken(ctx context.Context, accessToken string) (*models.User, error) {
	userID, err := i.subjectOf(accessToken, models.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	if err := i.matchStored(ctx, AccessKey(userID), accessToken); err != nil {
		return nil, err
	}

	return i.loadUser(ctx, userID)
}

// Revoke deletes both stored tokens of user. Revoking twice is not an error.
func (i *TokenIssuer) Revoke(ctx context.Context, user *models.User) error {
	return i.RevokeID(ctx, user.ID)
}

// RevokeID is Revoke keyed by user id, for callers that do not hold a loaded user
func (i *TokenIssuer) RevokeID(ctx context.Context, userID uuid.UUID) error {
	if err := i.store.Delete(ctx, AccessKey(userID)); err != nil {
		return fmt.Errorf("failed to delete access token: %w", err)
	}
	if err := i.store.Delete(ctx, RefreshKey(userID)); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	i.logger.Debug("tokens_revoked", zap.String("user_id", logger.SanitizeUserID(userID.String())))
	return nil
}

func (i *TokenIssuer) subjectOf(token string, typ models.TokenType) (uuid.UUID, error) {
	claims, err := i.codec.Decode(token, typ)
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.Sub)
	if err != nil {
		return uuid.Nil, apperrors.Wrap(apperrors.CodeInvalidToken, "invalid token", err)
	}
	return userID, nil
}

func (i *TokenIssuer) matchStored(ctx context.Context, key, presented string) error {
	stored, err := i.store.Get(ctx, key)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return apperrors.ErrTokenRevoked
	}
	if err != nil {
		return fmt.Errorf("failed to read stored token: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return apperrors.ErrTokenRevoked
	}
	return nil
}

func (i *TokenIssuer) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := i.users.FindByID(ctx, userID)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeUserNotFound, "user not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
