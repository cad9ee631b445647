// Package store declares the storage contracts used by the authentication
// flows together with the errors implementations report.
//
// Implementations live in sub-packages: memory (process-local maps),
// redis (banned tokens and two-factor challenges) and postgres (users).
// Every implementation is safe for concurrent use.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authsvc/credential"
)

var (
	// ErrUserAlreadyExists is returned by AddUser when the email is taken.
	ErrUserAlreadyExists = errors.New("store: user already exists")
	// ErrUserNotFound is returned when no user has the given email.
	ErrUserNotFound = errors.New("store: user not found")
	// ErrInvalidCredentials is returned by ValidateUser on a password mismatch.
	ErrInvalidCredentials = errors.New("store: invalid credentials")
	// ErrCodeNotFound is returned by GetCode when no challenge is pending.
	ErrCodeNotFound = errors.New("store: 2fa code not found")
	// ErrBackend wraps failures of the underlying storage system.
	ErrBackend = errors.New("store: backend unavailable")
)

// User is an immutable registered account.
type User struct {
	Email        credential.Email
	PasswordHash string
	Requires2FA  bool
	CreatedAt    time.Time
}

// PasswordVerifier checks a plaintext against a stored hash.
// password.Argon2 satisfies it.
type PasswordVerifier interface {
	Verify(plain, encoded string) (bool, error)
}

// UserStore persists users keyed by email.
type UserStore interface {
	// AddUser inserts u atomically. Concurrent inserts of one email yield
	// exactly one success; the rest get ErrUserAlreadyExists.
	AddUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, email credential.Email) (User, error)
	// ValidateUser returns nil only when the user exists and password
	// matches the stored hash.
	ValidateUser(ctx context.Context, email credential.Email, password credential.Password) error
}

// BannedTokenStore records revoked session tokens.
type BannedTokenStore interface {
	// AddToken bans token until expiresAt. A zero expiresAt bans it
	// forever. Adding a banned token again is a no-op.
	AddToken(ctx context.Context, token string, expiresAt time.Time) error
	ContainsToken(ctx context.Context, token string) (bool, error)
}

// Challenge is a pending second-factor challenge.
type Challenge struct {
	LoginAttemptID credential.LoginAttemptID
	Code           credential.TwoFACode
}

// TwoFACodeStore holds at most one challenge per email.
type TwoFACodeStore interface {
	// AddCode stores a challenge, replacing any previous one for email.
	AddCode(ctx context.Context, email credential.Email, id credential.LoginAttemptID, code credential.TwoFACode) error
	GetCode(ctx context.Context, email credential.Email) (Challenge, error)
	// RemoveCode deletes the challenge for email; absent is not an error.
	RemoveCode(ctx context.Context, email credential.Email) error
}

// CodeConsumer is implemented by TwoFACodeStores that can remove a
// challenge conditionally. ConsumeCode deletes the challenge for email only
// when it still carries id, and reports whether it did. Exactly one of any
// number of concurrent calls for the same challenge returns true.
type CodeConsumer interface {
	ConsumeCode(ctx context.Context, email credential.Email, id credential.LoginAttemptID) (bool, error)
}
