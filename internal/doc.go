// Package internal holds helpers private to authsvc, currently secure code
// generation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: flow orchestrators behind every Engine operation
//   - logging: slog handler setup with trace correlation
//   - rate: per-key attempt limits backed by Redis or process memory
//
// Nothing here may appear in the public authsvc API.
package internal
