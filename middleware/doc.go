// Package middleware exposes HTTP middleware that admits only requests
// carrying a valid, unrevoked session token.
//
// # Guards
//
//   - [Guard] reads the token from the "jwt" cookie or a Bearer
//     Authorization header, calls Engine.VerifyToken and injects the
//     verified claims into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; every decision is delegated to
// Engine.VerifyToken.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access stores (Engine handles I/O).
package middleware
