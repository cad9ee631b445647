// Package flows contains the orchestrators behind every Engine operation:
// signup, login, second-factor verification, logout and token verification.
//
// Each Run function takes a [Deps] value built once by the Engine and
// returns host-level sentinel errors from Deps.Errors. Store errors are
// mapped here, exactly once, so none escape to callers. Flows hold no state
// between calls and never import the root package.
package flows
