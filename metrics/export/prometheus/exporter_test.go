package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goGrant "github.com/MrEthical07/goGrant"
)

type fakeSource struct {
	snapshot goGrant.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goGrant.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGrant.MetricsSnapshot{
			Counters:   map[goGrant.MetricID]uint64{},
			Histograms: map[goGrant.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGrant.MetricsSnapshot{
			Counters: map[goGrant.MetricID]uint64{
				goGrant.MetricGrantSuccess:  7,
				goGrant.MetricReuseDetected: 1,
			},
			Histograms: map[goGrant.MetricID][]uint64{
				goGrant.MetricAuthenticateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "gogrant_grant_success_total 7") {
		t.Fatalf("expected grant success counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gogrant_refresh_reuse_detected_total 1") {
		t.Fatalf("expected reuse counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gogrant_authenticate_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gogrant_authenticate_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gogrant_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

func TestHandlerServesTextFormat(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGrant.MetricsSnapshot{
			Counters: map[goGrant.MetricID]uint64{
				goGrant.MetricRefreshSuccess: 4,
			},
			Histograms: map[goGrant.MetricID][]uint64{},
		},
	})

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "gogrant_refresh_success_total 4") {
		t.Fatalf("expected refresh counter in body, got:\n%s", rec.Body.String())
	}
}
