package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryDiscovery  Category = "discovery"
	CategoryResolution Category = "resolution"
	CategoryRequest    Category = "request"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// RouteError is a structured error carrying the route it happened on, a
// suggestion, and a documentation link.
type RouteError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (discovery, request, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Method and Route locate the failure ("GET", "/users/:id").
	Method string
	Route  string

	// File is the module path the error originated from, if any.
	File string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Method != "" || e.Route != "" {
		msg = fmt.Sprintf("%s [%s %s]", msg, e.Method, e.Route)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RouteError) Unwrap() error {
	return e.Wrapped
}

// WithRoute records the method and pattern the error belongs to.
func (e *RouteError) WithRoute(method, route string) *RouteError {
	e.Method = method
	e.Route = route
	return e
}

// WithFile records the module path the error belongs to.
func (e *RouteError) WithFile(file string) *RouteError {
	e.File = file
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *RouteError) WithSuggestion(s string) *RouteError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *RouteError) WithDetail(d string) *RouteError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *RouteError) Wrap(err error) *RouteError {
	e.Wrapped = err
	return e
}

// New creates a RouteError from a registered error code.
func New(code string) *RouteError {
	template, ok := registry[code]
	if !ok {
		return &RouteError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &RouteError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new RouteError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *RouteError {
	return &RouteError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a RouteError.
func FromError(err error, code string) *RouteError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*RouteError); ok {
		return re
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first RouteError in err's chain, or "".
func CodeOf(err error) string {
	for err != nil {
		if re, ok := err.(*RouteError); ok {
			return re.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
