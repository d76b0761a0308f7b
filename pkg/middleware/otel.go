package middleware

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sylph-dev/sylph/pkg/router"
)

// Default tracer name for sylph applications.
const defaultTracerName = "sylph"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "sylph").
	TracerName string

	// IncludeRequestID adds the request ID as a span attribute.
	// Enabled by default.
	IncludeRequestID bool

	// Filter determines which requests to trace.
	// Return true to trace the request, false to skip.
	// If nil, all requests are traced.
	Filter func(c *router.Context) bool

	// AttributeExtractor extracts custom attributes from the context.
	// Called for each traced request.
	AttributeExtractor func(c *router.Context) []attribute.KeyValue

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeRequestID enables/disables the request ID attribute.
func WithIncludeRequestID(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeRequestID = include
	}
}

// WithRequestFilter sets a filter function for requests.
func WithRequestFilter(filter func(c *router.Context) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(c *router.Context) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:       defaultTracerName,
		IncludeRequestID: true,
	}
}

// OpenTelemetry creates middleware that traces every routed request.
//
// The middleware:
//   - Starts a server span named "METHOD /pattern"
//   - Replaces the request context so c.StdContext() carries the span
//   - Marks the span as failed for 5xx responses
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) router.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.TracerProvider != nil {
		config.tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		config.tracer = otel.Tracer(config.TracerName)
	}

	return router.MiddlewareFunc(func(c *router.Context, next func()) error {
		if config.Filter != nil && !config.Filter(c) {
			next()
			return nil
		}

		attrs := []attribute.KeyValue{
			attribute.String("http.request.method", c.Method()),
			attribute.String("http.route", c.Pattern()),
			attribute.String("url.path", c.Request.URL.Path),
		}
		if config.IncludeRequestID {
			attrs = append(attrs, attribute.String("sylph.request_id", c.ID()))
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(c)...)
		}

		spanCtx, span := config.tracer.Start(
			c.StdContext(),
			formatSpanName(c),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		c.Request = c.Request.WithContext(spanCtx)
		c.Set(spanContextKey{}, spanCtx)

		next()

		status := c.Writer.Status()
		if status == 0 {
			status = http.StatusOK
		}
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return nil
	})
}

// spanContextKey is the key for storing the span context in Context values.
type spanContextKey struct{}

// SpanFromContext retrieves the current trace span from the context.
// Returns nil if no span is available.
//
//	func Handler(c *router.Context) error {
//	    if span := middleware.SpanFromContext(c); span != nil {
//	        span.SetAttributes(attribute.Int("my.count", 42))
//	    }
//	    return nil
//	}
func SpanFromContext(c *router.Context) trace.Span {
	if spanCtx, ok := c.Value(spanContextKey{}).(context.Context); ok {
		return trace.SpanFromContext(spanCtx)
	}
	return nil
}

// TraceContext returns the context carrying the request span, for
// propagation to outgoing calls.
func TraceContext(c *router.Context) context.Context {
	if spanCtx, ok := c.Value(spanContextKey{}).(context.Context); ok {
		return spanCtx
	}
	return c.StdContext()
}

func formatSpanName(c *router.Context) string {
	pattern := c.Pattern()
	if pattern == "" {
		pattern = "/"
	}
	return fmt.Sprintf("%s %s", c.Method(), pattern)
}
