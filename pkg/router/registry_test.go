package router

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistryResolveNamed(t *testing.T) {
	reg := NewRegistry(discardLogger())
	first := MiddlewareFunc(func(c *Context, next func()) error { return errors.New("first") })
	second := MiddlewareFunc(func(c *Context, next func()) error { return errors.New("second") })

	if replaced := reg.Register("auth", first); replaced {
		t.Error("first Register should not report a replacement")
	}
	if replaced := reg.Register("auth", second); !replaced {
		t.Error("second Register should report a replacement")
	}

	mw, err := reg.Resolve(Named("auth"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := mw.Handle(nil, nil); got == nil || got.Error() != "second" {
		t.Errorf("resolved middleware returned %v, want the newest registration", got)
	}
}

func TestRegistryResolveInline(t *testing.T) {
	reg := NewRegistry(discardLogger())
	called := false
	ref := InlineFunc(func(c *Context, next func()) error {
		called = true
		return nil
	})

	mw, err := reg.Resolve(ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	_ = mw.Handle(nil, func() {})
	if !called {
		t.Error("inline middleware was not the resolved value")
	}
	if ref.IsNamed() {
		t.Error("inline ref reports IsNamed")
	}
}

func TestRegistryResolveMissing(t *testing.T) {
	reg := NewRegistry(discardLogger())

	_, err := reg.Resolve(Named("nope"))
	if !errors.Is(err, ErrMiddlewareNotFound) {
		t.Errorf("Resolve missing = %v, want ErrMiddlewareNotFound", err)
	}

	_, err = reg.Resolve(Ref{})
	if !errors.Is(err, ErrEmptyRef) {
		t.Errorf("Resolve zero ref = %v, want ErrEmptyRef", err)
	}
}

func TestRegistryLateRegistration(t *testing.T) {
	reg := NewRegistry(discardLogger())
	ref := Named("late")

	if _, err := reg.Resolve(ref); err == nil {
		t.Fatal("expected error before registration")
	}
	reg.Register("late", MiddlewareFunc(func(c *Context, next func()) error { return nil }))
	if _, err := reg.Resolve(ref); err != nil {
		t.Errorf("Resolve after registration: %v", err)
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry(discardLogger())
	noop := MiddlewareFunc(func(c *Context, next func()) error { next(); return nil })
	reg.Register("zeta", noop)
	reg.Register("auth/admin", noop)
	reg.Register("auth", noop)

	want := []string{"auth", "auth/admin", "zeta"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if reg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", reg.Len())
	}
	if !reg.Has("auth/admin") || reg.Has("admin") {
		t.Error("Has reports wrong membership")
	}
}
