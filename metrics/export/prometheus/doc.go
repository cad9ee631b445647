// Package prometheus exposes authsvc engine metrics through
// client_golang.
//
// [Collector] implements prometheus.Collector over an Engine snapshot. Mount
// [Collector.Handler] directly, or register the collector in an existing
// registry. Counters are named authsvc_*_total; the verify-token latency
// histogram is authsvc_verify_token_latency_seconds. Nothing is registered
// globally.
package prometheus
