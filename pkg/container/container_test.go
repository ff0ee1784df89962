// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
)

type (
	greeter interface{ Greet() string }

	english struct{}

	recordingCloser struct {
		name string
		log  *[]string
	}

	staticForwarder map[string]any
)

func (english) Greet() string { return "hello" }

func (r *recordingCloser) Close() error {
	*r.log = append(*r.log, r.name)
	return nil
}

func (f staticForwarder) Deref(_ context.Context, h Handle) (any, error) {
	v, ok := f[h.Key()]
	if !ok {
		return nil, fmt.Errorf("no component %s", h)
	}
	return v, nil
}

func TestContainer_ProvideBuildsOnce(t *testing.T) {
	t.Parallel()

	c := New("core")
	var calls atomic.Int32
	err := Provide(c, "greeter", func(context.Context, Resolver) (greeter, error) {
		calls.Add(1)
		return english{}, nil
	})
	if err != nil {
		t.Fatalf("Provide() unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	instances := make([]any, 32)
	for i := range instances {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(t.Context(), "greeter")
			if err != nil {
				t.Errorf("Get() unexpected error: %v", err)
				return
			}
			instances[i] = v
		}(i)
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("factory called %d times, want 1", n)
	}
	for i := range instances {
		if instances[i] != instances[0] {
			t.Fatalf("instance %d differs from first", i)
		}
	}
	if _, ok := c.Instantiated("greeter"); !ok {
		t.Error("Instantiated() should report the built instance")
	}
}

func TestContainer_AliasesAndDuplicates(t *testing.T) {
	t.Parallel()

	c := New("core")
	if err := ProvideValue(c, "port", 8080, WithAliases("http.port")); err != nil {
		t.Fatalf("ProvideValue() unexpected error: %v", err)
	}

	v, err := GetAs[int](t.Context(), c, "http.port")
	if err != nil || v != 8080 {
		t.Fatalf("GetAs(alias) = %d, %v", v, err)
	}

	err = ProvideValue(c, "http.port", 1)
	var dup *DuplicateComponentError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateComponentError, got %T: %v", err, err)
	}
	if dup.Name != "http.port" {
		t.Errorf("Name = %q", dup.Name)
	}
}

func TestContainer_FinalizeRejectsRegistration(t *testing.T) {
	t.Parallel()

	c := New("core")
	c.Finalize()
	if c.State() != StateFinalized {
		t.Fatalf("State() = %v, want finalized", c.State())
	}
	if err := ProvideValue(c, "late", "x"); !errors.Is(err, ErrFinalized) {
		t.Errorf("expected ErrFinalized, got %v", err)
	}
}

func TestContainer_InvalidDefinitions(t *testing.T) {
	t.Parallel()

	c := New("core")
	tests := []struct {
		name string
		def  Definition
	}{
		{"empty name", Definition{Value: 1}},
		{"factory without type", Definition{Name: "f", Factory: func(context.Context, Resolver) (any, error) { return 1, nil }}},
		{"value and factory", Definition{Name: "vf", Type: TypeOf[int](), Value: 1, Factory: func(context.Context, Resolver) (any, error) { return 1, nil }}},
		{"local target", Definition{Name: "t", Type: TypeOf[int](), Target: Local("x", "y")}},
		{"type mismatch", Definition{Name: "m", Type: TypeOf[string](), Value: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := c.Register(tt.def)
			if err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestContainer_CircularReference(t *testing.T) {
	t.Parallel()

	c := New("core")
	_ = Provide(c, "a", func(ctx context.Context, r Resolver) (int, error) {
		v, err := r.ByName(ctx, "b")
		if err != nil {
			return 0, err
		}
		return v.(int) + 1, nil
	})
	_ = Provide(c, "b", func(ctx context.Context, r Resolver) (int, error) {
		v, err := r.ByName(ctx, "a")
		if err != nil {
			return 0, err
		}
		return v.(int) + 1, nil
	})

	_, err := c.Get(t.Context(), "a")
	if !errors.Is(err, ErrCircularReference) {
		t.Fatalf("expected ErrCircularReference, got %v", err)
	}
}

func TestContainer_LocalResolverByType(t *testing.T) {
	t.Parallel()

	c := New("core")
	_ = ProvideValue[greeter](c, "greeter", english{})
	_ = Provide(c, "message", func(ctx context.Context, r Resolver) (string, error) {
		g, err := r.ByType(ctx, TypeOf[greeter]())
		if err != nil {
			return "", err
		}
		return g.(greeter).Greet() + " world", nil
	})

	msg, err := GetAs[string](t.Context(), c, "message")
	if err != nil {
		t.Fatalf("GetAs() unexpected error: %v", err)
	}
	if msg != "hello world" {
		t.Errorf("message = %q", msg)
	}
}

func TestContainer_Forwarding(t *testing.T) {
	t.Parallel()

	shared := &english{}
	c := New("web", WithForwarder(staticForwarder{"core@greeter": shared}))
	if err := c.Forward("greeter", Remote("core", "greeter"), TypeOf[greeter]()); err != nil {
		t.Fatalf("Forward() unexpected error: %v", err)
	}

	v, err := c.Get(t.Context(), "greeter")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if v != shared {
		t.Error("forwarded lookup must return the owner's instance")
	}
	if targets := c.ForwardTargets(); len(targets) != 1 || targets[0].Key() != "core@greeter" {
		t.Errorf("ForwardTargets() = %v", targets)
	}

	bare := New("api")
	_ = bare.Forward("greeter", Remote("core", "greeter"), TypeOf[greeter]())
	var noFwd *NoForwarderError
	if _, err := bare.Get(t.Context(), "greeter"); !errors.As(err, &noFwd) {
		t.Errorf("expected *NoForwarderError, got %v", err)
	}
}

func TestContainer_CloseReverseCreationOrder(t *testing.T) {
	t.Parallel()

	var closed []string
	c := New("core")
	for _, name := range []string{"first", "second", "third"} {
		_ = Provide(c, name, func(context.Context, Resolver) (*recordingCloser, error) {
			return &recordingCloser{name: name, log: &closed}, nil
		})
	}
	var destroyed []string
	_ = ProvideValue(c, "value", "v", WithDestroy(func(_ context.Context, instance any) error {
		destroyed = append(destroyed, instance.(string))
		return nil
	}))

	for _, name := range []string{"second", "first", "third"} {
		if _, err := c.Get(t.Context(), name); err != nil {
			t.Fatalf("Get(%s) unexpected error: %v", name, err)
		}
	}

	if err := c.Close(t.Context()); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if want := []string{"third", "first", "second"}; !slices.Equal(closed, want) {
		t.Errorf("close order = %v, want %v", closed, want)
	}
	if !slices.Equal(destroyed, []string{"v"}) {
		t.Errorf("destroyed = %v", destroyed)
	}
	if _, err := c.Get(t.Context(), "first"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close: expected ErrClosed, got %v", err)
	}
	if err := c.Close(t.Context()); err != nil {
		t.Errorf("second Close() should be a no-op, got %v", err)
	}
}

func TestContainer_CloseJoinsErrors(t *testing.T) {
	t.Parallel()

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	c := New("core")
	for name, e := range map[string]error{"a": errA, "b": errB} {
		_ = Provide(c, name, func(context.Context, Resolver) (int, error) { return 1, nil },
			WithDestroy(func(context.Context, any) error { return e }))
		if _, err := c.Get(t.Context(), name); err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
	}

	err := c.Close(t.Context())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Close() should join both errors, got %v", err)
	}
}

func TestDefinitions_DeclarationOrder(t *testing.T) {
	t.Parallel()

	c := New("core")
	_ = ProvideValue(c, "b", 2, AsPrimary(), WithPriority(1), WithMetadata("tier", "gold"))
	_ = ProvideValue(c, "a", 1, WithOrder(3), WithGlobalOrder(-1))

	defs := c.Definitions()
	if got := []string{defs[0].Name, defs[1].Name}; !slices.Equal(got, []string{"b", "a"}) {
		t.Fatalf("declaration order = %v", got)
	}
	if !defs[0].Primary || *defs[0].Priority != 1 || defs[0].Metadata["tier"] != "gold" {
		t.Errorf("options not applied: %+v", defs[0])
	}
	if *defs[1].Order != 3 || *defs[1].GlobalOrder != -1 {
		t.Errorf("order options not applied: %+v", defs[1])
	}
	if defs[0].Type != reflect.TypeOf(0) {
		t.Errorf("Type = %v, want int", defs[0].Type)
	}
	defs[0].Metadata["tier"] = "mutated"
	if d, _ := c.Definition("b"); d.Metadata["tier"] != "gold" {
		t.Error("Definitions() must return copies")
	}
}
