package router

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
	"github.com/sylph-dev/sylph/pkg/routepath"
)

func newTestEngine(p Provider, b Binder) *Engine {
	return NewEngine(Options{
		Provider: p,
		Binder:   b,
		Logger:   discardLogger(),
	})
}

func TestEngineScan(t *testing.T) {
	p := newFakeProvider()
	p.add("get/index.go", Module{Handler: text("home")})
	p.add("get/users/_id/index.go", Module{Handler: HandlerFunc(func(c *Context) error {
		return c.String(http.StatusOK, "user "+c.Param("id"))
	})})
	p.add("post/login.go", Module{Handler: text("login")})
	p.add("README.md", Module{})

	mux := NewMux()
	e := newTestEngine(p, mux)
	report, err := e.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !report.OK() {
		t.Errorf("failures: %v", report.Failures)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "README.md" {
		t.Errorf("Skipped = %v, want [README.md]", report.Skipped)
	}

	if rec := get(t, mux, "/users/42"); rec.Body.String() != "user 42" {
		t.Errorf("GET /users/42 = %q", rec.Body.String())
	}
	if rec := get(t, mux, "/"); rec.Body.String() != "home" {
		t.Errorf("GET / = %q", rec.Body.String())
	}

	rec := httptestPost(t, mux, "/login")
	if rec.Body.String() != "login" {
		t.Errorf("POST /login = %q", rec.Body.String())
	}
}

func TestEngineStaticBeatsDynamic(t *testing.T) {
	for _, order := range [][]string{
		{"get/users/_id.go", "get/users/admin.go"},
		{"get/users/admin.go", "get/users/_id.go"},
	} {
		p := newFakeProvider()
		p.add("get/users/_id.go", Module{Handler: text("dynamic")})
		p.add("get/users/admin.go", Module{Handler: text("static")})
		p.paths = order

		mux := NewMux()
		if _, err := newTestEngine(p, mux).Scan(context.Background()); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if rec := get(t, mux, "/users/admin"); rec.Body.String() != "static" {
			t.Errorf("order %v: GET /users/admin = %q, want static", order, rec.Body.String())
		}
		if rec := get(t, mux, "/users/7"); rec.Body.String() != "dynamic" {
			t.Errorf("order %v: GET /users/7 = %q, want dynamic", order, rec.Body.String())
		}
	}
}

func TestEngineStaticAddedLive(t *testing.T) {
	p := newFakeProvider()
	p.add("get/users/_id.go", Module{Handler: text("dynamic")})

	mux := NewMux()
	e := newTestEngine(p, mux)
	if _, err := e.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	p.add("get/users/admin.go", Module{Handler: text("static")})
	report, err := e.Apply(context.Background(), []Event{{Op: OpAdd, Path: "get/users/admin.go"}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(report.Bound) != 1 {
		t.Errorf("Bound = %v, want the new route only", report.Bound)
	}
	if rec := get(t, mux, "/users/admin"); rec.Body.String() != "static" {
		t.Errorf("GET /users/admin = %q, want static", rec.Body.String())
	}

	want := []routepath.Key{
		{Method: "GET", Pattern: "/users/admin"},
		{Method: "GET", Pattern: "/users/:id"},
	}
	if got := mux.Routes(); !reflect.DeepEqual(got, want) {
		t.Errorf("mux routes = %v, want %v", got, want)
	}
}

func TestEngineRescanIdempotent(t *testing.T) {
	p := newFakeProvider()
	p.add("get/a.go", Module{Handler: text("a")})
	p.add("get/_id.go", Module{Handler: text("id")})
	p.add("middleware/auth.go", Module{Use: MiddlewareFunc(func(c *Context, next func()) error { next(); return nil })})

	mux := NewMux()
	e := newTestEngine(p, mux)

	first, err := e.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Bound, second.Bound) {
		t.Errorf("rescan bound %v, first scan %v", second.Bound, first.Bound)
	}
	if got := len(mux.Routes()); got != 2 {
		t.Errorf("mux has %d routes after rescan, want 2", got)
	}
	if !reflect.DeepEqual(e.Routes(), mux.Routes()) {
		t.Errorf("engine routes %v != mux routes %v", e.Routes(), mux.Routes())
	}
}

func TestEngineFailuresDoNotAbort(t *testing.T) {
	p := newFakeProvider()
	p.fail("get/broken.go", errors.New("syntax error"))
	p.add("get/empty.go", Module{})
	p.add("middleware/nouse.go", Module{})
	p.add("get/ok.go", Module{Handler: text("ok")})

	mux := NewMux()
	report, err := newTestEngine(p, mux).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	codes := make([]string, 0, len(report.Failures))
	for _, f := range report.Failures {
		codes = append(codes, rerrors.CodeOf(f.Err))
	}
	sort.Strings(codes)
	want := []string{rerrors.CodeLoadFailed, rerrors.CodeNoHandler, rerrors.CodeNoMiddlewareFunc}
	if !reflect.DeepEqual(codes, want) {
		t.Errorf("failure codes = %v, want %v", codes, want)
	}
	if rec := get(t, mux, "/ok"); rec.Body.String() != "ok" {
		t.Errorf("GET /ok = %q", rec.Body.String())
	}
}

func TestEngineLoadPanic(t *testing.T) {
	e := newTestEngine(panicProvider{}, NewMux())
	report, err := e.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(report.Failures) != 1 || rerrors.CodeOf(report.Failures[0].Err) != rerrors.CodeLoadFailed {
		t.Errorf("Failures = %v, want one E101", report.Failures)
	}
}

type panicProvider struct{}

func (panicProvider) Paths(ctx context.Context) ([]string, error) {
	return []string{"get/x.go"}, nil
}

func (panicProvider) Load(ctx context.Context, path string) (Module, error) {
	panic("init failed")
}

func TestEngineMiddlewareModules(t *testing.T) {
	p := newFakeProvider()
	p.add("middleware/auth/admin.go", Module{Use: MiddlewareFunc(func(c *Context, next func()) error {
		if c.Request.Header.Get("X-Admin") == "" {
			return c.String(http.StatusForbidden, "forbidden")
		}
		next()
		return nil
	})})
	p.add("get/admin.go", Module{
		Handler:    text("panel"),
		Middleware: []Ref{Named("auth/admin")},
	})

	mux := NewMux()
	e := newTestEngine(p, mux)
	report, err := e.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(report.Middleware, []string{"auth/admin"}) {
		t.Errorf("Middleware = %v", report.Middleware)
	}

	if rec := get(t, mux, "/admin"); rec.Code != http.StatusForbidden {
		t.Errorf("GET /admin without header = %d, want 403", rec.Code)
	}

	req := newRequest(http.MethodGet, "/admin")
	req.Header.Set("X-Admin", "1")
	rec := serve(mux, req)
	if rec.Body.String() != "panel" {
		t.Errorf("GET /admin with header = %q", rec.Body.String())
	}
}

func TestEngineGlobalMiddleware(t *testing.T) {
	p := newFakeProvider()
	p.add("get/a.go", Module{Handler: HandlerFunc(func(c *Context) error {
		return c.String(http.StatusOK, c.Value("global").(string))
	})})

	mux := NewMux()
	e := newTestEngine(p, mux)
	e.Use(InlineFunc(func(c *Context, next func()) error {
		c.Set("global", "yes")
		next()
		return nil
	}))
	if _, err := e.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rec := get(t, mux, "/a"); rec.Body.String() != "yes" {
		t.Errorf("GET /a = %q, want yes", rec.Body.String())
	}
}

func TestEngineApplyIgnoresRemove(t *testing.T) {
	p := newFakeProvider()
	p.add("get/a.go", Module{Handler: text("a")})

	mux := NewMux()
	e := newTestEngine(p, mux)
	if _, err := e.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}

	report, err := e.Apply(context.Background(), []Event{{Op: OpRemove, Path: "get/a.go"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Bound) != 0 {
		t.Errorf("remove bound %v", report.Bound)
	}
	if rec := get(t, mux, "/a"); rec.Body.String() != "a" {
		t.Errorf("route removed: GET /a = %q", rec.Body.String())
	}
}

func TestEngineRequiresCollaborators(t *testing.T) {
	if _, err := NewEngine(Options{Binder: NewMux()}).Scan(context.Background()); !errors.Is(err, ErrNoProvider) {
		t.Errorf("Scan without provider = %v", err)
	}
	if _, err := NewEngine(Options{Provider: newFakeProvider()}).Scan(context.Background()); !errors.Is(err, ErrNoBinder) {
		t.Errorf("Scan without binder = %v", err)
	}
	if err := newTestEngine(newFakeProvider(), NewMux()).Watch(context.Background()); !errors.Is(err, ErrWatchUnsupported) {
		t.Errorf("Watch without watcher = %v", err)
	}
}

// watchingProvider emits the events sent on its channel.
type watchingProvider struct {
	*fakeProvider
	events chan Event
}

func (w watchingProvider) Watch(ctx context.Context, emit func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-w.events:
			emit(ev)
		}
	}
}

func TestEngineWatch(t *testing.T) {
	p := watchingProvider{fakeProvider: newFakeProvider(), events: make(chan Event)}
	passes := make(chan *Report, 4)

	mux := NewMux()
	e := NewEngine(Options{
		Provider: p,
		Binder:   mux,
		Logger:   discardLogger(),
		OnPass:   func(r *Report) { passes <- r },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Watch(ctx) }()

	p.add("get/live.go", Module{Handler: text("live")})
	p.events <- Event{Op: OpAdd, Path: "get/live.go"}

	select {
	case r := <-passes:
		if len(r.Bound) != 1 || r.Bound[0].Pattern != "/live" {
			t.Errorf("Bound = %v", r.Bound)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for live pass")
	}
	if rec := get(t, mux, "/live"); rec.Body.String() != "live" {
		t.Errorf("GET /live = %q", rec.Body.String())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestEngineDuplicateAcrossPasses(t *testing.T) {
	p := newFakeProvider()
	p.add("get/users/admin.go", Module{Handler: text("old")})

	logger, buf := bufferLogger()
	mux := NewMux()
	e := NewEngine(Options{Provider: p, Binder: mux, Logger: logger})
	if _, err := e.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}

	p.add("get/users/admin/index.go", Module{Handler: text("new")})
	if _, err := e.Apply(context.Background(), []Event{{Op: OpAdd, Path: "get/users/admin/index.go"}}); err != nil {
		t.Fatal(err)
	}

	if rec := get(t, mux, "/users/admin"); rec.Body.String() != "new" {
		t.Errorf("GET /users/admin = %q, want new", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "duplicate static route") {
		t.Errorf("cross-pass duplicate not logged:\n%s", buf.String())
	}

	// Reloading the module that owns the route is not a conflict.
	buf.Reset()
	if _, err := e.Apply(context.Background(), []Event{{Op: OpChange, Path: "get/users/admin/index.go"}}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "duplicate") {
		t.Errorf("reload logged a conflict:\n%s", buf.String())
	}
}

func TestEngineUseAfterScanRebinds(t *testing.T) {
	p := newFakeProvider()
	p.add("get/a.go", Module{Handler: HandlerFunc(func(c *Context) error {
		v, _ := c.Value("global").(string)
		return c.String(http.StatusOK, "a"+v)
	})})

	mux := NewMux()
	e := newTestEngine(p, mux)
	if _, err := e.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rec := get(t, mux, "/a"); rec.Body.String() != "a" {
		t.Fatalf("GET /a = %q, want a", rec.Body.String())
	}

	e.Use(InlineFunc(func(c *Context, next func()) error {
		c.Set("global", "+mw")
		next()
		return nil
	}))
	if rec := get(t, mux, "/a"); rec.Body.String() != "a+mw" {
		t.Errorf("GET /a after Use = %q, want a+mw", rec.Body.String())
	}
}

func TestEngineUseAfterScanWarnsWithoutRebind(t *testing.T) {
	p := newFakeProvider()
	p.add("get/a.go", Module{Handler: text("a")})

	logger, buf := bufferLogger()
	e := NewEngine(Options{Provider: p, Binder: &recordingBinder{}, Logger: logger})
	if _, err := e.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	e.Use(InlineFunc(func(c *Context, next func()) error {
		next()
		return nil
	}))
	if !strings.Contains(buf.String(), "existing routes keep their chains") {
		t.Errorf("no warning for late Use:\n%s", buf.String())
	}
}

// stoppingProvider's watcher returns at once, as fsnotify does when its
// channels close.
type stoppingProvider struct {
	*fakeProvider
}

func (stoppingProvider) Watch(ctx context.Context, emit func(Event)) error {
	return nil
}

func TestEngineWatchStopped(t *testing.T) {
	e := newTestEngine(stoppingProvider{newFakeProvider()}, NewMux())

	done := make(chan error, 1)
	go func() { done <- e.Watch(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, ErrWatchStopped) {
			t.Errorf("Watch = %v, want ErrWatchStopped", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after the provider stopped")
	}
}
