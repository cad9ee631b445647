package otel

import (
	"context"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrEthical07/authsvc"
)

type fakeSource struct {
	mu       sync.RWMutex
	counters map[authsvc.MetricID]uint64
	latency  authsvc.HistogramSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() authsvc.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := authsvc.MetricsSnapshot{
		Counters:   make(map[authsvc.MetricID]uint64, len(f.counters)),
		Histograms: map[authsvc.MetricID]authsvc.HistogramSnapshot{},
	}
	for k, v := range f.counters {
		out.Counters[k] = v
	}
	if f.latency.Buckets != nil {
		out.Histograms[authsvc.MetricVerifyTokenLatency] = authsvc.HistogramSnapshot{
			Buckets: append([]uint64(nil), f.latency.Buckets...),
			Sum:     f.latency.Sum,
		}
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findInt64(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				return data.DataPoints[0].Value, true
			case metricdata.Gauge[int64]:
				return data.DataPoints[0].Value, true
			}
		}
	}
	return 0, false
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader()
	src := &fakeSource{
		counters: map[authsvc.MetricID]uint64{authsvc.MetricLoginSuccess: 3},
		latency:  authsvc.HistogramSnapshot{Buckets: []uint64{1, 1, 1, 1, 1, 1, 1, 1}, Sum: time.Second},
		dropped:  1,
	}

	exp, err := NewExporterFromSource(provider.Meter("authsvc-test"), src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if v, ok := findInt64(rm, "authsvc_login_success_total"); !ok || v != 3 {
		t.Fatalf("login success = %d (found=%v)", v, ok)
	}
	if v, ok := findInt64(rm, "authsvc_verify_token_latency_seconds_count"); !ok || v != 8 {
		t.Fatalf("histogram count = %d (found=%v)", v, ok)
	}
	if v, ok := findInt64(rm, "authsvc_verify_token_latency_seconds_bucket_le_0_005"); !ok || v != 3 {
		t.Fatalf("0.005 bucket = %d (found=%v)", v, ok)
	}
	if v, ok := findInt64(rm, "authsvc_audit_dropped_total"); !ok || v != 1 {
		t.Fatalf("audit dropped = %d (found=%v)", v, ok)
	}
}

func TestExporterRejectsNil(t *testing.T) {
	_, provider := newReader()
	if _, err := NewExporterFromSource(provider.Meter("authsvc-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := NewExporter(provider.Meter("authsvc-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil engine, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader()
	src := &fakeSource{counters: map[authsvc.MetricID]uint64{authsvc.MetricLoginSuccess: 1}}

	exp, err := NewExporterFromSource(provider.Meter("authsvc-test"), src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.counters[authsvc.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
