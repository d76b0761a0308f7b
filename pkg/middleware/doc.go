// Package middleware provides observability middleware for routed requests.
//
// This package includes:
//   - OpenTelemetry distributed tracing middleware
//   - Prometheus request metrics middleware
//
// Both return router.Middleware values, so they can be used inline on a
// route, registered under a name, or applied to every route:
//
//	app.Use(router.Inline(middleware.OpenTelemetry()))
//	app.Middleware("metrics", middleware.Prometheus())
//
// # OpenTelemetry Middleware
//
// Every request gets a server span named after the matched route, such as
// "GET /users/:id". The span context replaces the request context, so
// database drivers and HTTP clients called with c.StdContext() inherit it:
//
//	func showUser(c *router.Context) error {
//	    row := db.QueryRowContext(c.StdContext(), "SELECT ...")
//	    ...
//	}
//
// # Prometheus Metrics
//
// Request counts, durations, sizes and in-flight requests are labelled by
// method and route pattern. Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
