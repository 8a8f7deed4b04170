// Package oidc verifies identities asserted by external OAuth providers.
package oidc

import (
	"context"

	"github.com/benvon/smart-auth/internal/apperrors"
	"github.com/benvon/smart-auth/internal/config"
	"github.com/benvon/smart-auth/internal/models"
)

// Verifier combines the configured providers. A nil provider is disabled.
type Verifier struct {
	google *GoogleVerifier
	github *GitHubExchanger
}

// NewVerifier creates a verifier from explicit provider implementations
func NewVerifier(google *GoogleVerifier, github *GitHubExchanger) *Verifier {
	return &Verifier{google: google, github: github}
}

// NewVerifierFromConfig enables every provider cfg has credentials for
func NewVerifierFromConfig(cfg *config.Config, jwksManager *JWKSManager) *Verifier {
	v := &Verifier{}
	if cfg.GoogleEnabled() {
		v.google = NewGoogleVerifier(jwksManager, cfg.GoogleClientID)
	}
	if cfg.GitHubEnabled() {
		v.github = NewGitHubExchanger(cfg.GitHubClientID, cfg.GitHubClientSecret)
	}
	return v
}

// VerifyGoogle verifies a Google ID token credential
func (v *Verifier) VerifyGoogle(ctx context.Context, credential string) (*models.ExternalIdentity, error) {
	if v.google == nil {
		return nil, apperrors.ErrProviderDisabled
	}
	return v.google.Verify(ctx, credential)
}

// ExchangeGitHub exchanges a GitHub authorization code
func (v *Verifier) ExchangeGitHub(ctx context.Context, code string) (*models.ExternalIdentity, error) {
	if v.github == nil {
		return nil, apperrors.ErrProviderDisabled
	}
	return v.github.Exchange(ctx, code)
}

// Enabled lists the configured providers
func (v *Verifier) Enabled() []models.Provider {
	var providers []models.Provider
	if v.google != nil {
		providers = append(providers, models.ProviderGoogle)
	}
	if v.github != nil {
		providers = append(providers, models.ProviderGitHub)
	}
	return providers
}
