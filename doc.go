// Package authsvc provides a credential-based authentication engine: signup,
// password login with an optional emailed second factor, stateless signed
// session tokens and logout through a banned-token list.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authsvc is the public surface. It exposes [Engine], [Builder], [Config],
// the sentinel errors and value types (LoginResult, Claims, MetricsSnapshot).
// Flow orchestration and audit dispatch live under internal/. Storage is
// pluggable through the contracts in package store, with in-memory, Redis and
// PostgreSQL implementations.
//
// # Error contract
//
// Every Engine method returns one of the package sentinels. Store errors are
// mapped exactly once and never escape: a failing backend is reported as
// [ErrUnexpected], and every rejected token as [ErrInvalidToken].
package authsvc
