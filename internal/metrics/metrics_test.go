package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLogin(true)
	m.ReceiptRecorded()
	m.ObserveRefresh("manual", time.Second, true)
	m.ObservePublish(false)
	m.RegisterCacheStats("x", func() (uint64, uint64) { return 0, 0 })

	h := m.Middleware(func(*http.Request) string { return "/" })(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveLogin(true)
	m.ObserveLogin(false)
	m.ObserveLogin(false)
	m.ReceiptRecorded()
	m.ObserveRefresh("event", 200*time.Millisecond, true)

	if got := testutil.ToFloat64(m.logins.WithLabelValues(ResultFailure)); got != 2 {
		t.Fatalf("failed logins = %v", got)
	}
	if got := testutil.ToFloat64(m.receipts); got != 1 {
		t.Fatalf("receipts = %v", got)
	}
	if got := testutil.ToFloat64(m.refreshes.WithLabelValues("event", ResultSuccess)); got != 1 {
		t.Fatalf("refreshes = %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	m.RegisterCacheStats("materials", func() (uint64, uint64) { return 3, 1 })

	h := m.Middleware(func(*http.Request) string { return "/admin/allocations/{mosque}" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/allocations/x", nil))

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/admin/allocations/{mosque}", "201")); got != 1 {
		t.Fatalf("requests = %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"mosques_http_requests_total", `mosques_cache_hits_total{cache="materials"} 3`, "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
