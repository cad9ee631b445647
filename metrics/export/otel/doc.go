// Package otel binds authsvc engine metrics to OpenTelemetry.
//
// [NewExporter] registers an Int64ObservableCounter per engine counter and
// Int64ObservableGauge instruments per latency bucket. A single callback
// reads the engine snapshot on each collection cycle. Callers own the
// MeterProvider.
package otel
