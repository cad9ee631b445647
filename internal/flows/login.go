package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authsvc/credential"
	"github.com/MrEthical07/authsvc/store"
)

// LoginResult is the flow-local login response. Exactly one of Token or
// TwoFactorRequired is set.
type LoginResult struct {
	Email             credential.Email
	Token             string
	ExpiresAt         time.Time
	TwoFactorRequired bool
	LoginAttemptID    string
}

// RunLogin checks credentials and either issues a token or opens a
// second-factor challenge that supersedes any pending one for the email.
func RunLogin(ctx context.Context, rawEmail, rawPassword string, deps Deps) (*LoginResult, error) {
	deps = deps.withDefaults()
	if !deps.ready() {
		return nil, deps.Errors.EngineNotReady
	}

	email, emailErr := credential.ParseEmail(rawEmail)
	password, passErr := credential.ParsePassword(rawPassword)
	if emailErr != nil || passErr != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", "", deps.Errors.InvalidCredentials, nil)
		return nil, deps.Errors.InvalidCredentials
	}

	if err := deps.Users.ValidateUser(ctx, email, password); err != nil {
		if errors.Is(err, store.ErrUserNotFound) || errors.Is(err, store.ErrInvalidCredentials) {
			deps.MetricInc(deps.Metrics.LoginFailure)
			deps.EmitAudit(ctx, deps.Events.LoginFailure, false, email.String(), "", deps.Errors.IncorrectCredentials, nil)
			return nil, deps.Errors.IncorrectCredentials
		}
		mapped := deps.storeFailure("validate_user", err)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, email.String(), "", mapped, nil)
		return nil, mapped
	}

	user, err := deps.Users.GetUser(ctx, email)
	if err != nil {
		mapped := deps.storeFailure("get_user", err)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, email.String(), "", mapped, nil)
		return nil, mapped
	}

	if user.Requires2FA {
		return startTwoFactor(ctx, email, deps)
	}

	token, expiresAt, err := deps.issue(email)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, email.String(), "", err, nil)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, email.String(), "", nil, nil)
	return &LoginResult{Email: email, Token: token, ExpiresAt: expiresAt}, nil
}

func startTwoFactor(ctx context.Context, email credential.Email, deps Deps) (*LoginResult, error) {
	id, err := credential.NewLoginAttemptID()
	if err != nil {
		deps.Warn("authsvc: login attempt id generation failed", "error", err)
		return nil, deps.Errors.Unexpected
	}
	code, err := credential.NewTwoFACode()
	if err != nil {
		deps.Warn("authsvc: 2fa code generation failed", "error", err)
		return nil, deps.Errors.Unexpected
	}

	if err := deps.Codes.AddCode(ctx, email, id, code); err != nil {
		mapped := deps.storeFailure("add_code", err)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, email.String(), id.String(), mapped, nil)
		return nil, mapped
	}

	if deps.SendCode != nil {
		if err := deps.SendCode(ctx, email, id, code); err != nil {
			deps.MetricInc(deps.Metrics.TwoFactorDeliveryFailure)
			deps.Warn("authsvc: 2fa code delivery failed", "error", err)
			// An undeliverable challenge is useless; drop it.
			if rmErr := deps.Codes.RemoveCode(ctx, email); rmErr != nil {
				deps.Warn("authsvc: remove undelivered 2fa code failed", "error", rmErr)
			}
			deps.EmitAudit(ctx, deps.Events.LoginFailure, false, email.String(), id.String(), deps.Errors.Unexpected, nil)
			return nil, deps.Errors.Unexpected
		}
	}

	deps.MetricInc(deps.Metrics.TwoFactorRequired)
	deps.EmitAudit(ctx, deps.Events.TwoFactorRequired, true, email.String(), id.String(), nil, nil)
	return &LoginResult{Email: email, TwoFactorRequired: true, LoginAttemptID: id.String()}, nil
}
