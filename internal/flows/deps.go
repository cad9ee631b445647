package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/authsvc/credential"
	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/store"
)

// Metrics carries the host metric ids the flows increment.
type Metrics struct {
	SignupSuccess            int
	SignupDuplicate          int
	SignupInvalid            int
	LoginSuccess             int
	LoginFailure             int
	TwoFactorRequired        int
	TwoFactorSuccess         int
	TwoFactorFailure         int
	TwoFactorReplay          int
	TwoFactorDeliveryFailure int
	Logout                   int
	LogoutFailure            int
	TokenIssued              int
	TokenRejected            int
	TokenBanned              int
	StoreFailure             int
	VerifyTokenLatency       int
}

// Events carries the audit event names the flows emit.
type Events struct {
	SignupSuccess     string
	SignupFailure     string
	LoginSuccess      string
	LoginFailure      string
	TwoFactorRequired string
	TwoFactorSuccess  string
	TwoFactorFailure  string
	LogoutSuccess     string
	LogoutFailure     string
	TokenRejected     string
}

// Errors carries the host sentinel errors the flows return.
type Errors struct {
	EngineNotReady       error
	InvalidCredentials   error
	IncorrectCredentials error
	UserAlreadyExists    error
	MissingToken         error
	InvalidToken         error
	Unexpected           error
}

// AuditFunc emits one audit event. meta is called lazily.
type AuditFunc func(ctx context.Context, event string, success bool, subject, attemptID string, err error, meta func() map[string]string)

// Deps is the complete dependency set shared by all flows.
type Deps struct {
	Now func() time.Time

	Users        store.UserStore
	BannedTokens store.BannedTokenStore
	Codes        store.TwoFACodeStore

	HashPassword func(plain string) (string, error)
	IssueToken   func(subject string, now time.Time) (string, error)
	ParseToken   func(token string, now time.Time) (*jwt.Claims, error)
	TokenTTL     time.Duration
	// TokenLeeway is the clock skew ParseToken tolerates past exp. A ban
	// must outlive it.
	TokenLeeway time.Duration
	// SendCode delivers a second-factor code out of band. Nil disables
	// delivery; the code then only lives in the code store.
	SendCode func(ctx context.Context, email credential.Email, id credential.LoginAttemptID, code credential.TwoFACode) error

	MetricInc     func(int)
	MetricObserve func(int, time.Duration)
	EmitAudit     AuditFunc
	Warn          func(msg string, args ...any)

	Metrics Metrics
	Events  Events
	Errors  Errors
}

// withDefaults fills optional hooks with no-ops.
func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
	if d.MetricObserve == nil {
		d.MetricObserve = func(int, time.Duration) {}
	}
	if d.EmitAudit == nil {
		d.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if d.Warn == nil {
		d.Warn = func(string, ...any) {}
	}
	return d
}

// ready reports whether the dependencies every flow needs are wired.
func (d Deps) ready() bool {
	return d.Users != nil &&
		d.BannedTokens != nil &&
		d.Codes != nil &&
		d.HashPassword != nil &&
		d.IssueToken != nil &&
		d.ParseToken != nil
}

// storeFailure records a backend failure and returns the Unexpected sentinel.
func (d Deps) storeFailure(op string, err error) error {
	d.MetricInc(d.Metrics.StoreFailure)
	d.Warn("authsvc: store failure", "op", op, "error", err)
	return d.Errors.Unexpected
}

// issue signs a session token for email and returns it with its expiry.
func (d Deps) issue(email credential.Email) (string, time.Time, error) {
	now := d.Now()
	token, err := d.IssueToken(email.String(), now)
	if err != nil {
		d.Warn("authsvc: token issue failed", "error", err)
		return "", time.Time{}, d.Errors.Unexpected
	}
	d.MetricInc(d.Metrics.TokenIssued)
	return token, now.Add(d.TokenTTL), nil
}
