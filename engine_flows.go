package authsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/authsvc/credential"
	internalflows "github.com/MrEthical07/authsvc/internal/flows"
)

func newFlowService(e *Engine) internalflows.Service {
	return internalflows.New(e.flowDeps())
}

func (e *Engine) flowDeps() internalflows.Deps {
	deps := internalflows.Deps{
		Now:          e.now,
		Users:        e.users,
		BannedTokens: e.bannedTokens,
		Codes:        e.codes,
		HashPassword: e.passwordHash.Hash,
		IssueToken:   e.jwtManager.Issue,
		ParseToken:   e.jwtManager.Parse,
		TokenTTL:     e.jwtManager.TTL(),
		TokenLeeway:  e.jwtManager.Leeway(),
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		MetricObserve: func(id int, d time.Duration) {
			e.metricObserve(MetricID(id), d)
		},
		EmitAudit: e.emitAudit,
		Warn: func(msg string, args ...any) {
			e.logger.Warn(msg, args...)
		},
		Metrics: internalflows.Metrics{
			SignupSuccess:            int(MetricSignupSuccess),
			SignupDuplicate:          int(MetricSignupDuplicate),
			SignupInvalid:            int(MetricSignupInvalid),
			LoginSuccess:             int(MetricLoginSuccess),
			LoginFailure:             int(MetricLoginFailure),
			TwoFactorRequired:        int(MetricTwoFactorRequired),
			TwoFactorSuccess:         int(MetricTwoFactorSuccess),
			TwoFactorFailure:         int(MetricTwoFactorFailure),
			TwoFactorReplay:          int(MetricTwoFactorReplay),
			TwoFactorDeliveryFailure: int(MetricTwoFactorDeliveryFailure),
			Logout:                   int(MetricLogout),
			LogoutFailure:            int(MetricLogoutFailure),
			TokenIssued:              int(MetricTokenIssued),
			TokenRejected:            int(MetricTokenRejected),
			TokenBanned:              int(MetricTokenBanned),
			StoreFailure:             int(MetricStoreFailure),
			VerifyTokenLatency:       int(MetricVerifyTokenLatency),
		},
		Events: internalflows.Events{
			SignupSuccess:     auditEventSignupSuccess,
			SignupFailure:     auditEventSignupFailure,
			LoginSuccess:      auditEventLoginSuccess,
			LoginFailure:      auditEventLoginFailure,
			TwoFactorRequired: auditEventMFARequired,
			TwoFactorSuccess:  auditEventMFASuccess,
			TwoFactorFailure:  auditEventMFAFailure,
			LogoutSuccess:     auditEventLogoutSuccess,
			LogoutFailure:     auditEventLogoutFailure,
			TokenRejected:     auditEventTokenRejected,
		},
		Errors: internalflows.Errors{
			EngineNotReady:       ErrEngineNotReady,
			InvalidCredentials:   ErrInvalidCredentials,
			IncorrectCredentials: ErrIncorrectCredentials,
			UserAlreadyExists:    ErrUserAlreadyExists,
			MissingToken:         ErrMissingToken,
			InvalidToken:         ErrInvalidToken,
			Unexpected:           ErrUnexpected,
		},
	}
	if e.emailClient != nil {
		deps.SendCode = e.sendTwoFactorCode
	}
	return deps
}

func (e *Engine) sendTwoFactorCode(ctx context.Context, email credential.Email, id credential.LoginAttemptID, code credential.TwoFACode) error {
	content := fmt.Sprintf("Your verification code is %s.\nLogin attempt: %s", code.String(), id.String())
	return e.emailClient.SendEmail(ctx, email, e.config.TwoFactor.EmailSubject, content)
}
