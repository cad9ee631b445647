package flows

import (
	"context"

	"github.com/MrEthical07/authsvc/jwt"
)

// Service is the flow runner the Engine builds once.
type Service struct {
	deps Deps
}

// New returns a service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired.
func (s Service) Initialized() bool {
	return s.deps.ready()
}

func (s Service) Signup(ctx context.Context, email, password string, requires2FA bool) error {
	return RunSignup(ctx, email, password, requires2FA, s.deps)
}

func (s Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	return RunLogin(ctx, email, password, s.deps)
}

func (s Service) VerifyTwoFactor(ctx context.Context, email, attemptID, code string) (*LoginResult, error) {
	return RunVerifyTwoFactor(ctx, email, attemptID, code, s.deps)
}

func (s Service) Logout(ctx context.Context, token string) error {
	return RunLogout(ctx, token, s.deps)
}

func (s Service) VerifyToken(ctx context.Context, token string) (*jwt.Claims, error) {
	return RunVerifyToken(ctx, token, s.deps)
}
