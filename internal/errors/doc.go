// Package errors provides coded, actionable errors for the route engine.
//
// Every diagnostic the engine emits carries a code (e.g. "E103") that maps
// to a short message, a longer explanation and a documentation URL:
//
//	E101-E109  discovery (load failures, missing handlers, duplicates)
//	E105       middleware references that cannot be resolved at dispatch
//	E110-E119  request-time failures (errors and recovered panics)
//	E120-E129  configuration
//	E130-E149  CLI and dev tooling
//
// # Usage
//
//	err := errors.New(errors.CodeDuplicateStatic).
//	    WithRoute("GET", "/users/admin").
//	    WithFile("get/users/admin.go")
//
//	fmt.Println(err.Format())
//	// ERROR E103: Duplicate static route
//	//
//	//   GET /users/admin
//	//   get/users/admin.go
//	//
//	//   Two modules resolved to the same method and literal path. ...
package errors
