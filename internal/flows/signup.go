package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/authsvc/credential"
	"github.com/MrEthical07/authsvc/store"
)

// RunSignup registers a new user with a hashed password.
func RunSignup(ctx context.Context, rawEmail, rawPassword string, requires2FA bool, deps Deps) error {
	deps = deps.withDefaults()
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}

	email, emailErr := credential.ParseEmail(rawEmail)
	password, passErr := credential.ParsePassword(rawPassword)
	if emailErr != nil || passErr != nil {
		deps.MetricInc(deps.Metrics.SignupInvalid)
		deps.EmitAudit(ctx, deps.Events.SignupFailure, false, "", "", deps.Errors.InvalidCredentials, nil)
		return deps.Errors.InvalidCredentials
	}

	hash, err := deps.HashPassword(password.Reveal())
	if err != nil {
		deps.Warn("authsvc: password hash failed", "error", err)
		deps.EmitAudit(ctx, deps.Events.SignupFailure, false, email.String(), "", deps.Errors.Unexpected, nil)
		return deps.Errors.Unexpected
	}

	err = deps.Users.AddUser(ctx, store.User{
		Email:        email,
		PasswordHash: hash,
		Requires2FA:  requires2FA,
		CreatedAt:    deps.Now(),
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrUserAlreadyExists):
		deps.MetricInc(deps.Metrics.SignupDuplicate)
		deps.EmitAudit(ctx, deps.Events.SignupFailure, false, email.String(), "", deps.Errors.UserAlreadyExists, nil)
		return deps.Errors.UserAlreadyExists
	default:
		mapped := deps.storeFailure("add_user", err)
		deps.EmitAudit(ctx, deps.Events.SignupFailure, false, email.String(), "", mapped, nil)
		return mapped
	}

	deps.MetricInc(deps.Metrics.SignupSuccess)
	deps.EmitAudit(ctx, deps.Events.SignupSuccess, true, email.String(), "", nil, func() map[string]string {
		if requires2FA {
			return map[string]string{"requires_2fa": "true"}
		}
		return nil
	})
	return nil
}
