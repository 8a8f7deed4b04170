package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{name: "empty", input: "", maxLength: 10, want: ""},
		{name: "plain", input: "hello", maxLength: 10, want: "hello"},
		{name: "strips newline injection", input: "ok\nlevel=error msg=forged", maxLength: 100, want: "oklevel=error msg=forged"},
		{name: "strips control chars", input: "a\x00b\x1bc", maxLength: 100, want: "abc"},
		{name: "truncates", input: "abcdefghij", maxLength: 4, want: "abcd..."},
		{name: "invalid utf8", input: "ab\xffc", maxLength: 100, want: "abc"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeString(tt.input, tt.maxLength); got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.maxLength, got, tt.want)
			}
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "regular", input: "alice@example.com", want: "a***@example.com"},
		{name: "no at sign", input: "not-an-email", want: "***"},
		{name: "leading at sign", input: "@example.com", want: "***"},
		{name: "newline in local part", input: "bob\n@example.com", want: "b***@example.com"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeEmail(tt.input); got != tt.want {
				t.Errorf("SanitizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("Expected empty string for nil error, got %q", got)
	}

	long := errors.New(strings.Repeat("x", MaxErrorMessageLength+10))
	if got := SanitizeError(long); len(got) != MaxErrorMessageLength+3 {
		t.Errorf("Expected truncated length %d, got %d", MaxErrorMessageLength+3, len(got))
	}
}

func TestOrNop(t *testing.T) {
	t.Parallel()

	if OrNop(nil) == nil {
		t.Fatal("Expected a no-op logger for nil input")
	}
}
