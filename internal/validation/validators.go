// Package validation holds the shared request validator and its custom rules.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password strong_password accepts
const MinPasswordLength = 8

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("strong_password", validateStrongPassword); err != nil {
		panic(fmt.Sprintf("failed to register strong_password validator: %v", err))
	}
	if err := Validate.RegisterValidation("http_url_or_empty", validateHTTPURLOrEmpty); err != nil {
		panic(fmt.Sprintf("failed to register http_url_or_empty validator: %v", err))
	}
}

// validateStrongPassword requires upper, lower, digit and symbol characters
func validateStrongPassword(fl validator.FieldLevel) bool {
	return StrongPassword(fl.Field().String()) == nil
}

// validateHTTPURLOrEmpty accepts "" or an absolute http(s) URL
func validateHTTPURLOrEmpty(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return strings.HasPrefix(value, "https://") || strings.HasPrefix(value, "http://")
}

// StrongPassword explains why password fails the password policy, or returns nil
func StrongPassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	var missing []string
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if !digit {
		missing = append(missing, "a digit")
	}
	if !symbol {
		missing = append(missing, "a symbol")
	}
	if len(missing) > 0 {
		return fmt.Errorf("password must contain %s", strings.Join(missing, ", "))
	}
	return nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
