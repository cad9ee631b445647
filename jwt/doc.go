// Package jwt issues and verifies session tokens.
//
// Tokens carry only sub, iat, exp and an optional iss. Verification pins the
// algorithm, checks expiry against a caller-supplied time and optionally the
// issuer and key id. Revocation is not handled here: callers consult a
// banned-token store after a successful Parse.
package jwt
