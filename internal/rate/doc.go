// Package rate throttles credential-bearing requests per key, usually the
// client IP.
//
// Two limiters share the Limiter contract. Redis is a fixed window: INCR
// the key, and set its TTL on the first hit of the window. Memory keeps a
// token bucket per key in process and suits single-instance deployments
// and tests.
package rate
