package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.BillsCreated.Inc()
	m.UploadsRejected.Add(2)

	if got := testutil.ToFloat64(m.BillsCreated); got != 1 {
		t.Fatalf("bills created = %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"billed_bills_created_total 1", "billed_uploads_rejected_total 2"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMiddlewareObservesRoute(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /employee/bills", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := m.Middleware(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/employee/bills", nil))

	if n := testutil.CollectAndCount(m.RequestDuration); n != 1 {
		t.Fatalf("expected one observed series, got %d", n)
	}
}

func TestFuncCollectors(t *testing.T) {
	m := New()
	hits := 3.0
	m.RegisterCounterFunc("billed_rate_limited_total", "Requests refused by the rate limiter.", func() float64 { return hits })
	m.RegisterGaugeFunc("billed_staged_receipts", "Sessions holding a staged receipt.", func() float64 { return 2 })
	// second registration is ignored
	m.RegisterGaugeFunc("billed_staged_receipts", "Sessions holding a staged receipt.", func() float64 { return 9 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"billed_rate_limited_total 3", "billed_staged_receipts 2"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
