package credential

import (
	"errors"
	"log/slog"
	"unicode/utf8"
)

// MinPasswordLength is the minimum password length in characters.
const MinPasswordLength = 8

// ErrInvalidPassword is returned by ParsePassword for passwords that are too short.
var ErrInvalidPassword = errors.New("credential: invalid password")

// Password is a plaintext password that satisfies the length policy.
// It is only ever held transiently and never persisted.
type Password struct {
	secret string
}

// ParsePassword accepts raw when it has at least MinPasswordLength characters.
func ParsePassword(raw string) (Password, error) {
	if utf8.RuneCountInString(raw) < MinPasswordLength {
		return Password{}, ErrInvalidPassword
	}
	return Password{secret: raw}, nil
}

// Reveal returns the plaintext for hashing or verification.
func (p Password) Reveal() string { return p.secret }

// String redacts the value so it cannot leak through fmt or slog.
func (p Password) String() string { return "[REDACTED]" }

// LogValue implements slog.LogValuer.
func (p Password) LogValue() slog.Value { return slog.StringValue("[REDACTED]") }
