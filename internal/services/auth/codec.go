package auth

import (
	"fmt"
	"time"

	"github.com/benvon/smart-auth/internal/apperrors"
	"github.com/benvon/smart-auth/internal/models"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	claimType  = "typ"
	claimEmail = "email"
)

// RefreshPayload is the custom payload carried by a refresh token
type RefreshPayload struct {
	Sub   string
	Email string
	Exp   time.Time
}

// TokenCodec signs and decodes the tokens issued by this service
type TokenCodec interface {
	SignAccessToken(user *models.User) (string, error)
	EncodeRefresh(payload RefreshPayload) (string, error)
	Decode(token string, expected models.TokenType) (*models.JWTClaims, error)
}

// JWTCodec is an HS256 TokenCodec backed by jwx
type JWTCodec struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTCodec creates a codec. accessTTL is the lifetime embedded in access tokens.
func NewJWTCodec(secret, issuer string, accessTTL time.Duration) *JWTCodec {
	return &JWTCodec{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for iat/exp and validation
func (c *JWTCodec) WithClock(now func() time.Time) *JWTCodec {
	c.now = now
	return c
}

// SignAccessToken returns a signed access token whose subject is the user id
func (c *JWTCodec) SignAccessToken(user *models.User) (string, error) {
	now := c.now()
	tok, err := jwt.NewBuilder().
		Subject(user.ID.String()).
		Issuer(c.issuer).
		IssuedAt(now).
		Expiration(now.Add(c.accessTTL)).
		JwtID(uuid.NewString()).
		Claim(claimType, string(models.TokenTypeAccess)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build access token: %w", err)
	}
	return c.sign(tok)
}

// EncodeRefresh returns a signed refresh token carrying payload
func (c *JWTCodec) EncodeRefresh(payload RefreshPayload) (string, error) {
	tok, err := jwt.NewBuilder().
		Subject(payload.Sub).
		Issuer(c.issuer).
		IssuedAt(c.now()).
		Expiration(payload.Exp).
		JwtID(uuid.NewString()).
		Claim(claimEmail, payload.Email).
		Claim(claimType, string(models.TokenTypeRefresh)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build refresh token: %w", err)
	}
	return c.sign(tok)
}

func (c *JWTCodec) sign(tok jwt.Token) (string, error) {
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, c.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Decode verifies signature, expiry, issuer and token type.
// Every failure is reported as apperrors.ErrInvalidToken.
func (c *JWTCodec) Decode(token string, expected models.TokenType) (*models.JWTClaims, error) {
	tok, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, c.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(c.issuer),
		jwt.WithClock(jwt.ClockFunc(c.now)),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidToken, "invalid token", err)
	}

	claims := &models.JWTClaims{
		Sub: tok.Subject(),
		ID:  tok.JwtID(),
		Iss: tok.Issuer(),
		Exp: tok.Expiration().Unix(),
		Iat: tok.IssuedAt().Unix(),
	}

	if typ, ok := tok.Get(claimType); ok {
		if typStr, ok := typ.(string); ok {
			claims.Type = models.TokenType(typStr)
		}
	}
	if claims.Type != expected {
		return nil, apperrors.Wrap(apperrors.CodeInvalidToken, "invalid token",
			fmt.Errorf("token type %q, want %q", claims.Type, expected))
	}

	if email, ok := tok.Get(claimEmail); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}

	if claims.Sub == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidToken, "invalid token", fmt.Errorf("token missing subject"))
	}

	return claims, nil
}
