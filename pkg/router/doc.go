// Package router discovers handler modules by convention and dispatches
// requests through their middleware chains.
//
// The package provides:
//   - Route discovery from a module provider (Engine.Scan, Engine.Watch)
//   - A named middleware registry resolved lazily at dispatch time
//   - A route table that binds static routes before dynamic ones
//   - A per-request dispatch chain with short-circuiting middleware
//   - Two binders: a bind-order Mux and a chi adapter
//
// # File Structure Convention
//
// The first directory selects the method; the rest of the path is the URL:
//
//	server/
//	├── get/
//	│   ├── index.go          → GET /
//	│   └── users/
//	│       ├── admin.go      → GET /users/admin
//	│       └── _id/
//	│           └── index.go  → GET /users/:id
//	├── post/
//	│   └── login.go          → POST /login
//	└── middleware/
//	    └── auth/
//	        └── admin.go      → middleware "auth/admin"
//
// # Ordering
//
// Binders match in bind order, so every pass binds all static routes first
// and dynamic routes afterwards, each group in discovery order. A literal
// path such as /users/admin therefore always wins over /users/:id.
//
// # Middleware
//
// A middleware receives a continuation. Calling it advances the chain;
// returning without calling it stops the chain, and the middleware is
// assumed to have written the response:
//
//	func Auth(c *router.Context, next func()) error {
//	    if c.Request.Header.Get("Authorization") == "" {
//	        return c.String(http.StatusUnauthorized, "unauthorized")
//	    }
//	    next()
//	    return nil
//	}
//
// # Usage
//
//	mux := router.NewMux()
//	engine := router.NewEngine(router.Options{
//	    Provider: catalog,
//	    Binder:   mux,
//	})
//	if _, err := engine.Scan(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":3000", mux)
package router
