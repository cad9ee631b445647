package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrEthical07/authsvc"
)

type fakeSource struct {
	snapshot authsvc.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() authsvc.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func TestCollectorGathers(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: authsvc.MetricsSnapshot{
			Counters: map[authsvc.MetricID]uint64{authsvc.MetricLoginSuccess: 7},
			Histograms: map[authsvc.MetricID]authsvc.HistogramSnapshot{
				authsvc.MetricVerifyTokenLatency: {Buckets: []uint64{1, 2, 3, 0, 0, 0, 0, 4}, Sum: time.Second},
			},
		},
		dropped: 2,
	})

	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]float64{}
	for _, mf := range families {
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			byName[mf.GetName()] = m.GetCounter().GetValue()
		case m.GetHistogram() != nil:
			byName[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
		}
	}

	if byName["authsvc_login_success_total"] != 7 {
		t.Fatalf("login success = %v", byName["authsvc_login_success_total"])
	}
	if byName["authsvc_audit_dropped_total"] != 2 {
		t.Fatalf("audit dropped = %v", byName["authsvc_audit_dropped_total"])
	}
	if byName["authsvc_verify_token_latency_seconds"] != 10 {
		t.Fatalf("histogram count = %v", byName["authsvc_verify_token_latency_seconds"])
	}
}

func TestCollectorWithoutHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{snapshot: authsvc.MetricsSnapshot{
		Counters:   map[authsvc.MetricID]uint64{},
		Histograms: map[authsvc.MetricID]authsvc.HistogramSnapshot{},
	}})

	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "authsvc_verify_token_latency_seconds" {
			t.Fatal("histogram must be omitted when latency is disabled")
		}
	}
}

func TestHandlerServesExposition(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{snapshot: authsvc.MetricsSnapshot{
		Counters: map[authsvc.MetricID]uint64{authsvc.MetricSignupSuccess: 3},
	}})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "authsvc_signup_success_total 3") {
		t.Fatalf("missing counter in output:\n%s", body)
	}
}
