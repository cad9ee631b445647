package flows

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/MrEthical07/authsvc/credential"
	"github.com/MrEthical07/authsvc/store"
)

// RunVerifyTwoFactor completes a pending challenge. Both the attempt id and
// the code must match the stored challenge; the challenge is consumed on
// success so a replay fails with IncorrectCredentials.
func RunVerifyTwoFactor(ctx context.Context, rawEmail, rawAttemptID, rawCode string, deps Deps) (*LoginResult, error) {
	deps = deps.withDefaults()
	if !deps.ready() {
		return nil, deps.Errors.EngineNotReady
	}

	email, emailErr := credential.ParseEmail(rawEmail)
	id, idErr := credential.ParseLoginAttemptID(rawAttemptID)
	code, codeErr := credential.ParseTwoFACode(rawCode)
	if emailErr != nil || idErr != nil || codeErr != nil {
		deps.MetricInc(deps.Metrics.TwoFactorFailure)
		deps.EmitAudit(ctx, deps.Events.TwoFactorFailure, false, "", "", deps.Errors.InvalidCredentials, nil)
		return nil, deps.Errors.InvalidCredentials
	}

	fail := func(reason string) (*LoginResult, error) {
		deps.MetricInc(deps.Metrics.TwoFactorFailure)
		deps.EmitAudit(ctx, deps.Events.TwoFactorFailure, false, email.String(), id.String(), deps.Errors.IncorrectCredentials, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, deps.Errors.IncorrectCredentials
	}

	challenge, err := deps.Codes.GetCode(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrCodeNotFound) {
			deps.MetricInc(deps.Metrics.TwoFactorReplay)
			return fail("no_challenge")
		}
		mapped := deps.storeFailure("get_code", err)
		deps.EmitAudit(ctx, deps.Events.TwoFactorFailure, false, email.String(), id.String(), mapped, nil)
		return nil, mapped
	}

	idMatch := subtle.ConstantTimeCompare([]byte(challenge.LoginAttemptID.String()), []byte(id.String())) == 1
	codeMatch := subtle.ConstantTimeCompare([]byte(challenge.Code.String()), []byte(code.String())) == 1
	if !idMatch {
		// A different id means this attempt was superseded by a newer login.
		deps.MetricInc(deps.Metrics.TwoFactorReplay)
		return fail("attempt_mismatch")
	}
	if !codeMatch {
		return fail("code_mismatch")
	}

	if consumer, ok := deps.Codes.(store.CodeConsumer); ok {
		consumed, err := consumer.ConsumeCode(ctx, email, id)
		if err != nil {
			mapped := deps.storeFailure("consume_code", err)
			deps.EmitAudit(ctx, deps.Events.TwoFactorFailure, false, email.String(), id.String(), mapped, nil)
			return nil, mapped
		}
		if !consumed {
			// Lost a race with a concurrent verification or a new login.
			deps.MetricInc(deps.Metrics.TwoFactorReplay)
			return fail("already_consumed")
		}
	} else if err := deps.Codes.RemoveCode(ctx, email); err != nil {
		mapped := deps.storeFailure("remove_code", err)
		deps.EmitAudit(ctx, deps.Events.TwoFactorFailure, false, email.String(), id.String(), mapped, nil)
		return nil, mapped
	}

	token, expiresAt, err := deps.issue(email)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.TwoFactorFailure, false, email.String(), id.String(), err, nil)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.TwoFactorSuccess)
	deps.EmitAudit(ctx, deps.Events.TwoFactorSuccess, true, email.String(), id.String(), nil, nil)
	return &LoginResult{Email: email, Token: token, ExpiresAt: expiresAt}, nil
}
