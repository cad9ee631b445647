// Package redisstore implements the banned-token and two-factor challenge
// stores on Redis.
//
// Banned tokens are stored under a SHA-256 digest of the token with a TTL
// equal to the token's remaining lifetime, so the set never outgrows the
// tokens it protects against. Challenges are versioned binary records
// keyed by email; conditional removal uses WATCH/MULTI with retry on
// contention.
//
// Backend failures are wrapped with store.ErrBackend. Plaintext codes are
// stored (they must be compared) but never logged.
package redisstore
