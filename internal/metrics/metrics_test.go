package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"":                               "other",
		"/api/":                          "/api/",
		"GET /api/demands":               "/api/demands",
		"GET /api/demands/{id}":          "/api/demands/{id}",
		"POST /api/demands/{id}/respond": "/api/demands/{id}/respond",
	}
	for pattern, want := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		r.Pattern = pattern
		if got := routeLabel(r); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", pattern, got, want)
		}
	}
}

func seriesCount(t *testing.T, name string) int {
	t.Helper()
	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return 0
}

func TestInstrumentHandlerBoundsPathLabels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/demands/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	h := InstrumentHandler(mux)

	before := seriesCount(t, "trznica_http_requests_total")
	for i := 0; i < 500; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", fmt.Sprintf("/api/demands/bad-%d", i), nil))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", fmt.Sprintf("/no/such/path/%d", i), nil))
	}
	after := seriesCount(t, "trznica_http_requests_total")

	// One series for the matched route, one for everything unmatched.
	if grown := after - before; grown > 2 {
		t.Errorf("expected at most 2 new series, got %d", grown)
	}
	if got := counterValue(t, httpRequests.WithLabelValues("GET", "/api/demands/{id}", "400")); got < 500 {
		t.Errorf("expected matched route counted under its pattern, got %v", got)
	}
	if got := counterValue(t, httpRequests.WithLabelValues("GET", unmatchedRoute, "404")); got < 500 {
		t.Errorf("expected unmatched paths counted as %q, got %v", unmatchedRoute, got)
	}
}

func TestRecordTransition(t *testing.T) {
	before := counterValue(t, demandTransitions.WithLabelValues("accepted"))
	RecordTransition("accepted")
	after := counterValue(t, demandTransitions.WithLabelValues("accepted"))
	if after-before != 1 {
		t.Errorf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestRecordNotification(t *testing.T) {
	before := counterValue(t, notifications.WithLabelValues("email", "error"))
	RecordNotification("email", errors.New("smtp down"))
	after := counterValue(t, notifications.WithLabelValues("email", "error"))
	if after-before != 1 {
		t.Errorf("expected error counter to grow by 1, got %v", after-before)
	}
}

func TestInstrumentHandlerAndExposition(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/demands", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := InstrumentHandler(mux)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/demands", nil))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `trznica_http_requests_total{method="GET",path="/api/demands",status="418"}`) {
		t.Error("expected instrumented request in exposition")
	}
}
