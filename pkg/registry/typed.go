// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"fmt"

	"github.com/bootkit/bootkit/pkg/container"
	"github.com/bootkit/bootkit/pkg/exposure"
)

// Get resolves the single component of type T visible to v.
func Get[T any](ctx context.Context, v *View) (T, error) {
	var zero T
	inst, err := v.ByType(ctx, container.TypeOf[T]())
	if err != nil {
		return zero, err
	}
	return cast[T](inst, container.TypeOf[T]().String())
}

// Optional resolves the component of type T if one is visible.
func Optional[T any](ctx context.Context, v *View) (T, bool, error) {
	var zero T
	inst, ok, err := v.OptionalByType(ctx, container.TypeOf[T]())
	if err != nil || !ok {
		return zero, ok, err
	}
	typed, err := cast[T](inst, container.TypeOf[T]().String())
	return typed, err == nil, err
}

// All resolves every component of type T visible to v in collection order.
func All[T any](ctx context.Context, v *View) ([]T, error) {
	insts, err := v.AllByType(ctx, container.TypeOf[T]())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(insts))
	for _, inst := range insts {
		typed, err := cast[T](inst, container.TypeOf[T]().String())
		if err != nil {
			return nil, err
		}
		out = append(out, typed)
	}
	return out, nil
}

// Named resolves name through v and converts it to T.
func Named[T any](ctx context.Context, v *View, name string) (T, error) {
	var zero T
	inst, err := v.ByName(ctx, name)
	if err != nil {
		return zero, err
	}
	return cast[T](inst, name)
}

// Import registers a forwarding definition for d in the view's container so
// the module can re-export a component it does not own. It returns an error
// for the root view.
func (v *View) Import(name string, d *exposure.Descriptor, opts ...container.ComponentOption) error {
	if v.c == nil {
		return fmt.Errorf("import %q: the root view has no container", name)
	}
	return v.c.Forward(name, d.Handle(), d.Type(), opts...)
}

func cast[T any](inst any, component string) (T, error) {
	typed, ok := inst.(T)
	if !ok {
		var zero T
		return zero, &container.TypeMismatchError{
			Component: component,
			Expected:  container.TypeOf[T]().String(),
			Actual:    fmt.Sprintf("%T", inst),
		}
	}
	return typed, nil
}
