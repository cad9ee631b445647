package middleware

import (
	"net/http"
	"strings"
)

// CookieName is the cookie that carries the session token.
const CookieName = "jwt"

// TokenFromRequest returns the session token from the "jwt" cookie, or from
// a Bearer Authorization header when no cookie is present.
func TokenFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
