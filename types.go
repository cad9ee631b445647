package authsvc

import (
	"context"
	"time"

	"github.com/MrEthical07/authsvc/credential"
	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/store"
)

// User is a registered account as persisted by a UserStore.
type User = store.User

// UserStore, BannedTokenStore and TwoFACodeStore are the storage contracts
// the Engine depends on. See package store for implementations.
type (
	UserStore        = store.UserStore
	BannedTokenStore = store.BannedTokenStore
	TwoFACodeStore   = store.TwoFACodeStore
)

// LoginResult is returned by Login and VerifyTwoFactor.
//
// When TwoFactorRequired is true the login is pending: Token is empty and
// LoginAttemptID must be presented to VerifyTwoFactor together with the code
// sent to the user. Otherwise Token holds a signed session token valid until
// ExpiresAt.
type LoginResult struct {
	Token             string
	ExpiresAt         time.Time
	TwoFactorRequired bool
	LoginAttemptID    string
}

// Claims are the verified contents of a session token.
type Claims struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func claimsFromJWT(c *jwt.Claims) *Claims {
	if c == nil {
		return nil
	}
	out := &Claims{Subject: c.Subject, Issuer: c.Issuer}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

// EmailClient delivers messages to users. The Engine uses it to send
// second-factor codes.
type EmailClient interface {
	SendEmail(ctx context.Context, recipient credential.Email, subject, content string) error
}
