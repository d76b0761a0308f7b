// Package provider supplies router.Provider implementations.
//
// Catalog holds modules registered from Go code. Handler packages usually
// register themselves from init:
//
//	func init() {
//	    provider.Register("get/users/_id.go", router.Module{
//	        Handler:    router.HandlerFunc(showUser),
//	        Middleware: []router.Ref{router.Named("auth")},
//	    })
//	}
//
// Dir walks a directory for module paths and delegates loading to a
// LoadFunc, either a Catalog or a PluginLoader for modules built with
// -buildmode=plugin. Dir also implements router.Watcher for live reload.
package provider
