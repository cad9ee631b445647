package authsvc

import "errors"

var (
	// ErrInvalidCredentials is returned when an email, password, login
	// attempt id or 2FA code is malformed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIncorrectCredentials is returned when well-formed credentials do not
	// match: unknown user, wrong password, wrong code or a consumed or
	// superseded challenge.
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	// ErrUserAlreadyExists is returned by Signup when the email is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrMissingToken is returned by Logout when no token was supplied.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken is returned for any token that fails signature, expiry
	// or revocation checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnexpected is returned when a store or the token signer fails.
	ErrUnexpected = errors.New("unexpected error")
	// ErrEngineNotReady is returned by a zero or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
