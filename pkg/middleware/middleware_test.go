package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/sylph-dev/sylph/pkg/router"
)

// =============================================================================
// Test Helpers
// =============================================================================

func newTestContext(method, pattern, path string) (*router.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	return router.NewContext(rec, req, method, pattern, nil), rec
}

func resetGlobalMetricsForTest() {
	globalMetricsMu.Lock()
	globalMetrics = nil
	globalMetricsMu.Unlock()
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

// =============================================================================
// Prometheus Tests
// =============================================================================

func TestMetricsConfig(t *testing.T) {
	config := defaultMetricsConfig()
	if config.Namespace != "sylph" {
		t.Errorf("Namespace = %q, want sylph", config.Namespace)
	}
	if config.Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should default to prometheus.DefaultRegisterer")
	}

	reg := prometheus.NewRegistry()
	for _, opt := range []MetricsOption{
		WithNamespace("app"),
		WithSubsystem("http"),
		WithBuckets([]float64{0.1, 1}),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithRegistry(reg),
	} {
		opt(&config)
	}
	if config.Namespace != "app" || config.Subsystem != "http" || len(config.Buckets) != 2 {
		t.Errorf("options not applied: %+v", config)
	}
	if config.ConstLabels["env"] != "test" || config.Registry != reg {
		t.Errorf("options not applied: %+v", config)
	}
}

func TestPrometheusMiddleware_RecordsRequest(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()
	mw := Prometheus(WithRegistry(reg))

	c, _ := newTestContext(http.MethodGet, "/users/:id", "/users/7")
	err := mw.Handle(c, func() {
		_ = c.String(http.StatusCreated, "hello")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := GetMetrics()
	if m == nil {
		t.Fatal("expected GetMetrics to return collector after initialization")
	}
	if got := metricCounterValue(t, m.requestsTotal.WithLabelValues("GET", "/users/:id", "201")); got != 1 {
		t.Errorf("requests_total(201) = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.requestDuration.WithLabelValues("GET", "/users/:id")); got != 1 {
		t.Errorf("request_duration_seconds count = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.responseSize.WithLabelValues("GET", "/users/:id")); got != 1 {
		t.Errorf("response_size_bytes count = %v, want 1", got)
	}
	if got := metricGaugeValue(t, m.requestsInFlight); got != 0 {
		t.Errorf("requests_in_flight = %v, want 0 after request", got)
	}
}

func TestPrometheusMiddleware_FailedRouteCounts500(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	ch := &router.Chain{
		Method:     http.MethodGet,
		Pattern:    "/boom",
		Middleware: []router.Ref{router.Inline(Prometheus(WithRegistry(reg)))},
		Handler: router.HandlerFunc(func(c *router.Context) error {
			return errors.New("boom")
		}),
	}
	rec := httptest.NewRecorder()
	ch.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	m := GetMetrics()
	if got := metricCounterValue(t, m.requestsTotal.WithLabelValues("GET", "/boom", "500")); got != 1 {
		t.Errorf("requests_total(500) = %v, want 1", got)
	}
}

func TestPrometheusMiddleware_SharedCollectors(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	a := Prometheus(WithRegistry(reg))
	// A second call must not register the collectors again.
	b := Prometheus(WithRegistry(reg))

	for _, mw := range []router.Middleware{a, b} {
		c, _ := newTestContext(http.MethodGet, "/", "/")
		_ = mw.Handle(c, func() {})
	}
	if got := metricCounterValue(t, GetMetrics().requestsTotal.WithLabelValues("GET", "/", "200")); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{0, "200"},
		{200, "200"},
		{404, "404"},
		{503, "503"},
	}
	for _, tt := range tests {
		if got := statusLabel(tt.status); got != tt.want {
			t.Errorf("statusLabel(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestGetMetrics(t *testing.T) {
	resetGlobalMetricsForTest()
	if GetMetrics() != nil {
		t.Error("GetMetrics should be nil before initialization")
	}

	reg := prometheus.NewRegistry()
	_ = Prometheus(WithRegistry(reg))
	collector := GetMetrics()
	if collector == nil {
		t.Fatal("GetMetrics should not be nil after initialization")
	}

	custom := prometheus.NewRegistry()
	if err := custom.Register(collector); err != nil {
		t.Errorf("registering collector: %v", err)
	}
}

// =============================================================================
// OpenTelemetry Tests
// =============================================================================

func TestOpenTelemetryConfig(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		config := defaultOTelConfig()
		if config.TracerName != "sylph" {
			t.Errorf("TracerName = %q, want sylph", config.TracerName)
		}
		if !config.IncludeRequestID {
			t.Error("IncludeRequestID should default to true")
		}
		if config.Filter != nil {
			t.Error("Filter should default to nil")
		}
	})

	t.Run("options", func(t *testing.T) {
		config := defaultOTelConfig()
		WithTracerName("custom")(&config)
		WithIncludeRequestID(false)(&config)
		WithRequestFilter(func(*router.Context) bool { return false })(&config)
		WithAttributeExtractor(func(*router.Context) []attribute.KeyValue { return nil })(&config)

		if config.TracerName != "custom" || config.IncludeRequestID {
			t.Errorf("options not applied: %+v", config)
		}
		if config.Filter == nil || config.AttributeExtractor == nil {
			t.Error("function options not applied")
		}
	})
}

func TestOpenTelemetryMiddleware_StoresTraceContext(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/projects/:id", "/projects/1")
	original := c.StdContext()

	mw := OpenTelemetry(
		WithTracerProvider(noop.NewTracerProvider()),
		WithAttributeExtractor(func(*router.Context) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)

	ran := false
	err := mw.Handle(c, func() {
		ran = true
		if SpanFromContext(c) == nil {
			t.Error("expected SpanFromContext to return a span during execution")
		}
		if TraceContext(c) != c.StdContext() {
			t.Error("expected request context to carry the span")
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("next was not called")
	}

	stored, ok := c.Value(spanContextKey{}).(context.Context)
	if !ok || stored == nil {
		t.Fatalf("expected span context to be stored on ctx, got %T", c.Value(spanContextKey{}))
	}
	if c.StdContext() == original {
		t.Error("expected request context to be replaced")
	}
	_ = trace.SpanContextFromContext(TraceContext(c))
}

func TestOpenTelemetryMiddleware_Filter(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/healthz", "/healthz")
	mw := OpenTelemetry(WithRequestFilter(func(c *router.Context) bool {
		return c.Pattern() != "/healthz"
	}))

	ran := false
	_ = mw.Handle(c, func() { ran = true })
	if !ran {
		t.Fatal("filtered request must still reach the handler")
	}
	if SpanFromContext(c) != nil {
		t.Error("filtered request should not be traced")
	}
	if TraceContext(c) != c.StdContext() {
		t.Error("TraceContext should fall back to the request context")
	}
}

func TestFormatSpanName(t *testing.T) {
	tests := []struct {
		method  string
		pattern string
		want    string
	}{
		{"GET", "/users/:id", "GET /users/:id"},
		{"POST", "/login", "POST /login"},
		{"GET", "", "GET /"},
	}
	for _, tt := range tests {
		c, _ := newTestContext(tt.method, tt.pattern, "/")
		if got := formatSpanName(c); got != tt.want {
			t.Errorf("formatSpanName(%s %q) = %q, want %q", tt.method, tt.pattern, got, tt.want)
		}
	}
}
