package authsvc

import (
	"context"
	"errors"

	"github.com/MrEthical07/authsvc/internal/audit"
)

const (
	auditEventSignupSuccess = "signup_success"
	auditEventSignupFailure = "signup_failure"
	auditEventLoginSuccess  = "login_success"
	auditEventLoginFailure  = "login_failure"
	auditEventMFARequired   = "mfa_required"
	auditEventMFASuccess    = "mfa_success"
	auditEventMFAFailure    = "mfa_failure"
	auditEventLogoutSuccess = "logout_success"
	auditEventLogoutFailure = "logout_failure"
	auditEventTokenRejected = "token_rejected"
)

// AuditErrorCode is the stable error label written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials   AuditErrorCode = "invalid_credentials"
	auditErrIncorrectCredentials AuditErrorCode = "incorrect_credentials"
	auditErrDuplicate            AuditErrorCode = "duplicate"
	auditErrMissingToken         AuditErrorCode = "missing_token"
	auditErrInvalidToken         AuditErrorCode = "invalid_token"
	auditErrInternal             AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	loginAttemptID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := audit.Event{
		Timestamp:      e.now().UTC(),
		EventType:      eventType,
		Subject:        subject,
		LoginAttemptID: loginAttemptID,
		IP:             clientIPFromContext(ctx),
		Success:        success,
		Metadata:       metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrIncorrectCredentials):
		return auditErrIncorrectCredentials
	case errors.Is(err, ErrUserAlreadyExists):
		return auditErrDuplicate
	case errors.Is(err, ErrMissingToken):
		return auditErrMissingToken
	case errors.Is(err, ErrInvalidToken):
		return auditErrInvalidToken
	default:
		return auditErrInternal
	}
}
