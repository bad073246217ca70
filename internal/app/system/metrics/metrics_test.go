package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/propertyhub/internal/app/system/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounterDrift(t *testing.T) {
	m := metrics.New()
	m.CounterDrift.WithLabelValues("create").Inc()
	m.CounterDrift.WithLabelValues("create").Inc()

	if got := testutil.ToFloat64(m.CounterDrift.WithLabelValues("create")); got != 2 {
		t.Errorf("counter_drift_total{op=create}: got %v, want 2", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/properties/{id}/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method("GET", "/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/properties/abc/", nil))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: got %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `propertyhub_http_request_duration_seconds_count{method="GET",route="/properties/{id}/",status="404"} 1`) {
		t.Errorf("expected request histogram sample in output:\n%s", body)
	}
}
