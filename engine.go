package authsvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/authsvc/internal/audit"
	internalflows "github.com/MrEthical07/authsvc/internal/flows"
	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/password"
)

// Engine runs the authentication flows against the configured stores.
//
// Engine instances are created by [Builder.Build] and are safe for
// concurrent use. The zero value is not usable: every method returns
// ErrEngineNotReady.
type Engine struct {
	config       Config
	users        UserStore
	bannedTokens BannedTokenStore
	codes        TwoFACodeStore
	passwordHash *password.Argon2
	jwtManager   *jwt.Manager
	emailClient  EmailClient
	audit        *audit.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	now          func() time.Time
	flows        internalflows.Service
}

// Close flushes and stops the audit dispatcher. Stores are owned by the
// caller and are not closed.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID]HistogramSnapshot{},
		}
	}
	return e.metrics.Snapshot()
}

// TokenTTL returns the lifetime of issued session tokens.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil || e.jwtManager == nil {
		return 0
	}
	return e.jwtManager.TTL()
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

// Signup registers email with a hashed password. requires2FA makes every
// later login for the account go through an emailed code.
//
// It returns ErrInvalidCredentials for a malformed email or a password
// shorter than eight characters, ErrUserAlreadyExists when the email is
// taken and ErrUnexpected when the store fails.
func (e *Engine) Signup(ctx context.Context, email, password string, requires2FA bool) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.Signup(ctx, email, password, requires2FA)
}

// Login checks email and password. Accounts without a second factor get a
// session token. Accounts with one get a result with TwoFactorRequired set
// and a fresh LoginAttemptID; the matching code is stored and, when an
// EmailClient is configured, emailed. A new login supersedes any pending
// challenge for the same email.
//
// Unknown users and wrong passwords both yield ErrIncorrectCredentials.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	res, err := e.flows.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return loginResultFromFlow(res), nil
}

// VerifyTwoFactor completes a pending login. The attempt id and code must
// both match the latest challenge for email. A successful verification
// consumes the challenge, so replaying it yields ErrIncorrectCredentials.
func (e *Engine) VerifyTwoFactor(ctx context.Context, email, loginAttemptID, code string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	res, err := e.flows.VerifyTwoFactor(ctx, email, loginAttemptID, code)
	if err != nil {
		return nil, err
	}
	return loginResultFromFlow(res), nil
}

// Logout bans token until it expires. Only a currently valid token can be
// logged out: an empty token yields ErrMissingToken and an invalid, expired
// or already banned one ErrInvalidToken.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.Logout(ctx, token)
}

// VerifyToken checks signature, expiry and the banned list, returning the
// token claims. Every rejection is ErrInvalidToken.
func (e *Engine) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	claims, err := e.flows.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return claimsFromJWT(claims), nil
}

func loginResultFromFlow(res *internalflows.LoginResult) *LoginResult {
	if res == nil {
		return nil
	}
	return &LoginResult{
		Token:             res.Token,
		ExpiresAt:         res.ExpiresAt,
		TwoFactorRequired: res.TwoFactorRequired,
		LoginAttemptID:    res.LoginAttemptID,
	}
}
