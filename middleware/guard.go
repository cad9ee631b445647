package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/authsvc"
)

// TokenVerifier is satisfied by *authsvc.Engine.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*authsvc.Claims, error)
}

type claimsContextKey struct{}

// ClaimsFromContext returns the claims a Guard attached to ctx.
func ClaimsFromContext(ctx context.Context) (*authsvc.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*authsvc.Claims)
	return claims, ok
}

// Guard rejects requests without a valid session token with 401.
func Guard(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := TokenFromRequest(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
