package oidc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/smart-auth/internal/apperrors"
	"github.com/benvon/smart-auth/internal/models"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// GoogleCertsURL serves the keys Google signs ID tokens with
const GoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// GoogleVerifier verifies Google ID tokens issued for one client id
type GoogleVerifier struct {
	jwksManager *JWKSManager
	clientID    string
	certsURL    string
	now         func() time.Time
}

// NewGoogleVerifier creates a verifier accepting tokens whose audience is clientID
func NewGoogleVerifier(jwksManager *JWKSManager, clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		jwksManager: jwksManager,
		clientID:    clientID,
		certsURL:    GoogleCertsURL,
		now:         time.Now,
	}
}

// WithCertsURL points the verifier at another JWKS endpoint
func (v *GoogleVerifier) WithCertsURL(url string) *GoogleVerifier {
	v.certsURL = url
	return v
}

// WithClock replaces the time source used for exp/iat validation
func (v *GoogleVerifier) WithClock(now func() time.Time) *GoogleVerifier {
	v.now = now
	return v
}

// Verify checks signature, audience, issuer and expiry and extracts the identity
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*models.ExternalIdentity, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, v.certsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google keys: %w", err)
	}

	// Google rotates its keys; a kid missing from the cached set means a stale cache.
	if kid := keyID(credential); kid != "" {
		if _, ok := keys.LookupKeyID(kid); !ok {
			v.jwksManager.Invalidate(v.certsURL)
			keys, err = v.jwksManager.GetJWKS(ctx, v.certsURL)
			if err != nil {
				return nil, fmt.Errorf("failed to refresh Google keys: %w", err)
			}
		}
	}

	token, err := jwt.Parse([]byte(credential),
		jwt.WithKeySet(keys, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithAudience(v.clientID),
		jwt.WithClock(jwt.ClockFunc(v.now)),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidProviderToken, "invalid Google token", err)
	}

	if !isGoogleIssuer(token.Issuer()) {
		return nil, apperrors.Wrap(apperrors.CodeInvalidProviderToken, "invalid Google token",
			fmt.Errorf("unexpected issuer %q", token.Issuer()))
	}

	email := stringClaim(token, "email")
	if email == "" {
		return nil, apperrors.New(apperrors.CodeInvalidProviderToken, "Google token has no email")
	}
	if verified, ok := token.Get("email_verified"); ok && !truthy(verified) {
		return nil, apperrors.New(apperrors.CodeInvalidProviderToken, "Google email not verified")
	}
	if token.Subject() == "" {
		return nil, apperrors.New(apperrors.CodeInvalidProviderToken, "Google token has no subject")
	}

	name := stringClaim(token, "name")
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	return &models.ExternalIdentity{
		Email:     email,
		Name:      name,
		SubjectID: token.Subject(),
		Avatar:    stringClaim(token, "picture"),
		Provider:  models.ProviderGoogle,
	}, nil
}

// keyID returns the kid of the first signature, or "" if credential is not a JWS
func keyID(credential string) string {
	msg, err := jws.Parse([]byte(credential))
	if err != nil || len(msg.Signatures()) == 0 {
		return ""
	}
	return msg.Signatures()[0].ProtectedHeaders().KeyID()
}

func isGoogleIssuer(iss string) bool {
	for _, allowed := range googleIssuers {
		if iss == allowed {
			return true
		}
	}
	return false
}

func stringClaim(token jwt.Token, name string) string {
	if v, ok := token.Get(name); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// truthy accepts both the boolean and the legacy string form of email_verified
func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true"
	default:
		return false
	}
}
