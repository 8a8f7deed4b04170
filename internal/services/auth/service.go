// Package auth implements the token lifecycle, credential flows and
// OAuth identity reconciliation of the authentication service.
package auth

import (
	"context"
	"time"

	"github.com/benvon/smart-auth/internal/apperrors"
	"github.com/benvon/smart-auth/internal/database"
	"github.com/benvon/smart-auth/internal/logger"
	"github.com/benvon/smart-auth/internal/models"
	"github.com/benvon/smart-auth/internal/tokenstore"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/benvon/smart-auth/internal/services/auth"

// OAuthVerifier turns provider credentials into a verified external identity
type OAuthVerifier interface {
	VerifyGoogle(ctx context.Context, credential string) (*models.ExternalIdentity, error)
	ExchangeGitHub(ctx context.Context, code string) (*models.ExternalIdentity, error)
}

// Deps are the collaborators of Service
type Deps struct {
	Users      database.UserDirectory
	Store      tokenstore.Store
	Codec      TokenCodec
	Hasher     PasswordHasher
	Verifier   OAuthVerifier // nil disables OAuth login
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Logger     *zap.Logger
}

// Service is the boundary the HTTP layer and CLI call into
type Service struct {
	issuer      *TokenIssuer
	reconciler  *IdentityReconciler
	credentials *CredentialAuthenticator
	verifier    OAuthVerifier
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewService wires the auth components together
func NewService(deps Deps) *Service {
	log := logger.OrNop(deps.Logger)
	issuer := NewTokenIssuer(deps.Codec, deps.Store, deps.Users, deps.AccessTTL, deps.RefreshTTL, log)

	return &Service{
		issuer:      issuer,
		reconciler:  NewIdentityReconciler(deps.Users, deps.Hasher, log),
		credentials: NewCredentialAuthenticator(deps.Users, deps.Hasher, issuer, log),
		verifier:    deps.Verifier,
		tracer:      otel.Tracer(tracerName),
		logger:      log,
	}
}

// WithClock replaces the time source of every component
func (s *Service) WithClock(now func() time.Time) *Service {
	s.issuer.WithClock(now)
	s.reconciler.WithClock(now)
	s.credentials.WithClock(now)
	return s
}

// Register creates a password account
func (s *Service) Register(ctx context.Context, in RegisterInput) (result *models.AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer func() { endSpan(span, err) }()

	return s.credentials.Register(ctx, in)
}

// Login authenticates an email/password pair
func (s *Service) Login(ctx context.Context, email, password string) (result *models.AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer func() { endSpan(span, err) }()

	return s.credentials.Login(ctx, email, password)
}

// Refresh rotates a refresh token into a new pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (result *models.AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Refresh")
	defer func() { endSpan(span, err) }()

	return s.issuer.Refresh(ctx, refreshToken)
}

// ChangePassword changes the caller's password and ends all of its sessions
func (s *Service) ChangePassword(ctx context.Context, user *models.User, current, next string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.ChangePassword", trace.WithAttributes(userAttr(user.ID)))
	defer func() { endSpan(span, err) }()

	return s.credentials.ChangePassword(ctx, user, current, next)
}

// Logout revokes the caller's tokens
func (s *Service) Logout(ctx context.Context, user *models.User) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Logout", trace.WithAttributes(userAttr(user.ID)))
	defer func() { endSpan(span, err) }()

	return s.credentials.Logout(ctx, user)
}

// Revoke ends every session of the user with the given id
func (s *Service) Revoke(ctx context.Context, userID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Revoke", trace.WithAttributes(userAttr(userID)))
	defer func() { endSpan(span, err) }()

	return s.issuer.RevokeID(ctx, userID)
}

// UpdateProfile changes the caller's display name and avatar
func (s *Service) UpdateProfile(ctx context.Context, user *models.User, update ProfileUpdate) (result *models.User, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.UpdateProfile", trace.WithAttributes(userAttr(user.ID)))
	defer func() { endSpan(span, err) }()

	return s.credentials.UpdateProfile(ctx, user, update)
}

// DeleteUser soft-deletes the user and ends its sessions
func (s *Service) DeleteUser(ctx context.Context, user *models.User) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.DeleteUser", trace.WithAttributes(userAttr(user.ID)))
	defer func() { endSpan(span, err) }()

	return s.credentials.DeleteUser(ctx, user)
}

// GoogleLogin signs in with a Google ID token
func (s *Service) GoogleLogin(ctx context.Context, credential string) (result *models.AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.GoogleLogin")
	defer func() { endSpan(span, err) }()

	if s.verifier == nil {
		return nil, apperrors.ErrProviderDisabled
	}
	identity, err := s.verifier.VerifyGoogle(ctx, credential)
	if err != nil {
		return nil, providerError(err)
	}
	return s.oauthLogin(ctx, identity)
}

// GithubLogin signs in with a GitHub authorization code
func (s *Service) GithubLogin(ctx context.Context, code string) (result *models.AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.GithubLogin")
	defer func() { endSpan(span, err) }()

	if s.verifier == nil {
		return nil, apperrors.ErrProviderDisabled
	}
	identity, err := s.verifier.ExchangeGitHub(ctx, code)
	if err != nil {
		return nil, providerError(err)
	}
	return s.oauthLogin(ctx, identity)
}

// ResolveCallerFromBearerToken returns the user owning a current access token
func (s *Service) ResolveCallerFromBearerToken(ctx context.Context, token string) (user *models.User, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.ResolveCaller")
	defer func() { endSpan(span, err) }()

	return s.issuer.ValidateAccessToken(ctx, token)
}

func (s *Service) oauthLogin(ctx context.Context, identity *models.ExternalIdentity) (*models.AuthResult, error) {
	user, err := s.reconciler.Reconcile(ctx, *identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("oauth_login",
		zap.String("user_id", logger.SanitizeUserID(user.ID.String())),
		zap.String("provider", string(identity.Provider)),
	)
	return s.issuer.IssueTokens(ctx, user)
}

// providerError keeps coded verifier errors and classifies anything else as a provider token failure
func providerError(err error) error {
	if apperrors.CodeOf(err) != apperrors.CodeInternal {
		return err
	}
	return apperrors.Wrap(apperrors.CodeInvalidProviderToken, "invalid provider token", err)
}

func userAttr(id uuid.UUID) attribute.KeyValue {
	return attribute.String("user.id", id.String())
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
	}
	span.End()
}
