package routepath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind distinguishes request routes from middleware modules.
type Kind int

const (
	// KindRoute is a module bound as a request route.
	KindRoute Kind = iota

	// KindMiddleware is a module under the reserved middleware namespace.
	KindMiddleware
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindMiddleware {
		return "middleware"
	}
	return "route"
}

// Method selectors recognized as the first path segment.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
	MethodPatch  = "PATCH"

	// MiddlewareMarker is the Method of a middleware descriptor.
	MiddlewareMarker = "MW"

	// MiddlewareDir is the reserved first segment for middleware modules.
	MiddlewareDir = "middleware"
)

var selectors = map[string]string{
	"get":         MethodGet,
	"post":        MethodPost,
	"put":         MethodPut,
	"delete":      MethodDelete,
	"patch":       MethodPatch,
	MiddlewareDir: MiddlewareMarker,
}

// DefaultExtensions are the module extensions recognized when a Resolver has
// none configured: Go source files (catalog-registered modules) and Go
// plugins.
var DefaultExtensions = []string{".go", ".so"}

// Resolution errors.
var (
	// ErrNotRoutable is returned for paths whose first segment is not a
	// method selector or the middleware namespace.
	ErrNotRoutable = errors.New("path has no method selector")

	// ErrUnknownExtension is returned for paths without a recognized module
	// extension.
	ErrUnknownExtension = errors.New("unrecognized module extension")
)

// Descriptor is the normalized description of one discovered module.
type Descriptor struct {
	// Kind is KindRoute or KindMiddleware.
	Kind Kind

	// Method is the HTTP method, or MiddlewareMarker for middleware.
	Method string

	// RawPath is the path as handed to Resolve.
	RawPath string

	// Pattern is the URL pattern (e.g. "/users/:id"). Empty for middleware.
	Pattern string

	// Dynamic reports whether Pattern contains a ":param" segment.
	Dynamic bool

	// Name is the registry name of a middleware module (e.g. "auth/admin").
	Name string
}

// Key identifies a bound route.
type Key struct {
	Method  string
	Pattern string
}

// String returns "METHOD /pattern".
func (k Key) String() string {
	return k.Method + " " + k.Pattern
}

// Key returns the (method, pattern) key of a route descriptor.
func (d Descriptor) Key() Key {
	return Key{Method: d.Method, Pattern: d.Pattern}
}

// IsMiddleware reports whether d describes a middleware module.
func (d Descriptor) IsMiddleware() bool {
	return d.Kind == KindMiddleware
}

// String returns a one-line label used in diagnostics.
func (d Descriptor) String() string {
	if d.IsMiddleware() {
		return "middleware " + d.Name
	}
	return d.Key().String()
}

// Resolver turns module paths relative to the discovery root into
// descriptors. The zero value resolves with DefaultExtensions and no API
// prefix.
type Resolver struct {
	// APIBase is inserted ahead of every route pattern ("api" → "/api/...").
	APIBase string

	// Extensions lists recognized module extensions, dot included.
	Extensions []string
}

// Resolve converts a relative module path into a Descriptor.
//
//	get/users/_id/index.go  → GET /users/:id
//	post/login.go           → POST /login
//	get/index.go            → GET /
//	middleware/auth/admin.go → middleware "auth/admin"
//
// Resolve is pure: the same input always yields the same Descriptor.
func (r Resolver) Resolve(path string) (Descriptor, error) {
	slashed := toSlash(path)

	ext := r.matchExtension(slashed)
	if ext == "" {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownExtension, path)
	}
	slashed = strings.TrimSuffix(slashed, ext)

	segments := splitSegments(slashed)
	if len(segments) == 0 {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNotRoutable, path)
	}
	method, ok := selectors[strings.ToLower(segments[0])]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNotRoutable, path)
	}

	body := collapseIndex(segments[1:])

	if method == MiddlewareMarker {
		if len(body) == 0 {
			return Descriptor{}, fmt.Errorf("%w: %s: middleware module needs a name", ErrNotRoutable, path)
		}
		return Descriptor{
			Kind:    KindMiddleware,
			Method:  MiddlewareMarker,
			RawPath: path,
			Name:    strings.Join(dashSpaces(body), "/"),
		}, nil
	}

	dynamic := false
	out := make([]string, 0, len(body)+1)
	if base := strings.Trim(r.APIBase, "/"); base != "" {
		out = append(out, base)
	}
	for _, seg := range dashSpaces(body) {
		if len(seg) > 1 && seg[0] == '_' {
			seg = ":" + seg[1:]
			dynamic = true
		}
		out = append(out, seg)
	}

	return Descriptor{
		Kind:    KindRoute,
		Method:  method,
		RawPath: path,
		Pattern: "/" + strings.Join(out, "/"),
		Dynamic: dynamic,
	}, nil
}

func (r Resolver) matchExtension(path string) string {
	exts := r.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	for _, ext := range exts {
		if ext != "" && strings.HasSuffix(path, ext) {
			return ext
		}
	}
	return ""
}

// toSlash converts both the host separator and backslashes to "/", so paths
// recorded on Windows resolve identically elsewhere.
func toSlash(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), "\\", "/")
}

func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}

// collapseIndex drops a trailing "index" segment so users/index → users and
// a lone index → root.
func collapseIndex(segments []string) []string {
	if n := len(segments); n > 0 && segments[n-1] == "index" {
		return segments[:n-1]
	}
	return segments
}

func dashSpaces(segments []string) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = strings.ReplaceAll(s, " ", "-")
	}
	return out
}
