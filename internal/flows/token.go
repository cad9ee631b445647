package flows

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/authsvc/jwt"
)

// RunLogout revokes token. The token must currently verify: a missing,
// invalid, expired or already banned token fails.
func RunLogout(ctx context.Context, token string, deps Deps) error {
	deps = deps.withDefaults()
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}

	token = strings.TrimSpace(token)
	if token == "" {
		deps.MetricInc(deps.Metrics.LogoutFailure)
		deps.EmitAudit(ctx, deps.Events.LogoutFailure, false, "", "", deps.Errors.MissingToken, nil)
		return deps.Errors.MissingToken
	}

	claims, err := verify(ctx, token, deps)
	if err != nil {
		deps.MetricInc(deps.Metrics.LogoutFailure)
		deps.EmitAudit(ctx, deps.Events.LogoutFailure, false, "", "", err, nil)
		return err
	}

	if err := deps.BannedTokens.AddToken(ctx, token, banExpiry(claims, deps)); err != nil {
		mapped := deps.storeFailure("add_token", err)
		deps.MetricInc(deps.Metrics.LogoutFailure)
		deps.EmitAudit(ctx, deps.Events.LogoutFailure, false, claims.Subject, "", mapped, nil)
		return mapped
	}

	deps.MetricInc(deps.Metrics.Logout)
	deps.EmitAudit(ctx, deps.Events.LogoutSuccess, true, claims.Subject, "", nil, nil)
	return nil
}

// banExpiry is when a ban on the token may lapse. ParseToken accepts the
// token up to and including exp+leeway, so the ban lasts a second longer.
func banExpiry(claims *jwt.Claims, deps Deps) time.Time {
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time.Add(deps.TokenLeeway + time.Second)
}

// RunVerifyToken returns the claims of a valid, unrevoked token.
func RunVerifyToken(ctx context.Context, token string, deps Deps) (*jwt.Claims, error) {
	deps = deps.withDefaults()
	if !deps.ready() {
		return nil, deps.Errors.EngineNotReady
	}

	start := deps.Now()
	claims, err := verify(ctx, strings.TrimSpace(token), deps)
	deps.MetricObserve(deps.Metrics.VerifyTokenLatency, deps.Now().Sub(start))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// verify checks signature, expiry and revocation. Parse failures and banned
// tokens both collapse to InvalidToken; a failing banned-token lookup is
// Unexpected.
func verify(ctx context.Context, token string, deps Deps) (*jwt.Claims, error) {
	if token == "" {
		deps.MetricInc(deps.Metrics.TokenRejected)
		return nil, deps.Errors.InvalidToken
	}

	claims, err := deps.ParseToken(token, deps.Now())
	if err != nil {
		deps.MetricInc(deps.Metrics.TokenRejected)
		deps.EmitAudit(ctx, deps.Events.TokenRejected, false, "", "", deps.Errors.InvalidToken, func() map[string]string {
			return map[string]string{"reason": "parse"}
		})
		return nil, deps.Errors.InvalidToken
	}

	banned, err := deps.BannedTokens.ContainsToken(ctx, token)
	if err != nil {
		return nil, deps.storeFailure("contains_token", err)
	}
	if banned {
		deps.MetricInc(deps.Metrics.TokenRejected)
		deps.MetricInc(deps.Metrics.TokenBanned)
		deps.EmitAudit(ctx, deps.Events.TokenRejected, false, claims.Subject, "", deps.Errors.InvalidToken, func() map[string]string {
			return map[string]string{"reason": "banned"}
		})
		return nil, deps.Errors.InvalidToken
	}
	return claims, nil
}
