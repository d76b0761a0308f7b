// Package sylph serves HTTP routes discovered from a directory of handler
// modules, without route registration code.
//
// Modules live under a base directory. The first directory is the method
// and the rest of the path is the URL; "_name" segments are parameters:
//
//	server/
//	├── get/users/_id/index.go   → GET /users/:id
//	├── post/login.go            → POST /login
//	├── middleware/auth.go       → middleware "auth"
//	└── public/                  → static files
//
// Each module file registers its exports in init:
//
//	func init() {
//	    provider.Register("get/users/_id/index.go", router.Module{
//	        Handler:    router.HandlerFunc(showUser),
//	        Middleware: []router.Ref{router.Named("auth")},
//	    })
//	}
//
// and the program starts an App over the directory:
//
//	app, err := sylph.New(sylph.Config{Dir: "server"},
//	    sylph.WithCatalog(provider.Default))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(app.Start(ctx, 0))
//
// Modules built with -buildmode=plugin are loaded with
// sylph.WithLoader(provider.PluginLoader{Root: "server"}.Load).
package sylph
