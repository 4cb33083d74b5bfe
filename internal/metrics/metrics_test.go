package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c == nil {
		t.Fatal("NewCollector returned nil")
	}

	// 二重登録はpanicするはずなので、同じレジストリでの再登録を検証
	defer func() {
		if recover() == nil {
			t.Error("registering twice should panic")
		}
	}()
	NewCollector(reg)
}

func TestCollector_RecordAndServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)
	c.RecordRequestLatency(50 * time.Millisecond)
	c.RecordSeedCycleSuccess()
	c.RecordSeedsInserted(2)
	c.RecordDigestSent("pending")
	c.RecordDigestFailure("approved")

	handler := SetupMetricsRoute(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)
	for _, want := range []string{
		`foodsave_http_status_total{status_code="200"} 1`,
		`foodsave_http_status_total{status_code="404"} 1`,
		"foodsave_seed_cycle_success_total 1",
		"foodsave_seeds_inserted_total 2",
		`foodsave_digest_sent_total{category="pending"} 1`,
		`foodsave_digest_fail_total{category="approved"} 1`,
		"foodsave_request_latency_seconds",
	} {
		if !strings.Contains(bodyStr, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
