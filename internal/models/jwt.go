package models

// TokenType distinguishes access tokens from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// JWTClaims represents the claims extracted from a token issued by this service
type JWTClaims struct {
	Sub   string    `json:"sub"`   // Subject (user ID)
	Email string    `json:"email"` // Only present on refresh tokens
	Type  TokenType `json:"typ"`   // access or refresh
	ID    string    `json:"jti"`   // Unique per issuance
	Exp   int64     `json:"exp"`   // Expiration time
	Iat   int64     `json:"iat"`   // Issued at
	Iss   string    `json:"iss"`   // Issuer
}

// AuthResult is returned by every successful authentication event
type AuthResult struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         UserView `json:"user"`
}

// ExternalIdentity is a verified identity asserted by an OAuth provider
type ExternalIdentity struct {
	Email     string
	Name      string
	SubjectID string
	Avatar    string
	Provider  Provider

	// EmailSynthesized is set when the provider hid the email and a placeholder was derived
	EmailSynthesized bool
}
