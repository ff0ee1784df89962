// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"slices"
	"testing"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"", RoleCustom, false},
		{"custom", RoleCustom, false},
		{"Infrastructure", RoleInfrastructure, false},
		{"infra", RoleInfrastructure, false},
		{"post_processor", RolePostProcessor, false},
		{"postprocessor", RolePostProcessor, false},
		{"plugin", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRole) {
					t.Fatalf("ParseRole(%q) error = %v, want ErrInvalidRole", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	d := New("web", Requires("core"), Uses("security"))
	if !d.Enabled {
		t.Error("New() should produce an enabled module")
	}
	if d.Role != RoleCustom {
		t.Errorf("Role = %q, want %q", d.Role, RoleCustom)
	}
	if !slices.Equal(d.Required, []string{"core"}) || !slices.Equal(d.Optional, []string{"security"}) {
		t.Errorf("unexpected deps: required=%v optional=%v", d.Required, d.Optional)
	}

	if New("x", Disabled()).Enabled {
		t.Error("Disabled() should clear the enabled flag")
	}
	if !New("x", Infrastructure()).IsInfrastructure() {
		t.Error("Infrastructure() should set the role")
	}
	if !New("x", PostProcessor()).IsPostProcessor() {
		t.Error("PostProcessor() should set the role")
	}
}

func TestDescriptor_Normalized(t *testing.T) {
	t.Parallel()

	d := Descriptor{Name: "a", Required: []string{"b", "c", "b"}, Optional: []string{"d", "d"}}
	n := d.Normalized()
	if n.Role != RoleCustom {
		t.Errorf("Role = %q, want custom", n.Role)
	}
	if !slices.Equal(n.Required, []string{"b", "c"}) {
		t.Errorf("Required = %v", n.Required)
	}
	if !slices.Equal(n.Optional, []string{"d"}) {
		t.Errorf("Optional = %v", n.Optional)
	}
}

func TestDescriptor_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    Descriptor
		want error
	}{
		{"valid", New("core"), nil},
		{"empty name", Descriptor{}, ErrInvalidDescriptor},
		{"whitespace name", Descriptor{Name: "a b"}, ErrInvalidDescriptor},
		{"key separator in name", Descriptor{Name: "core@v2"}, ErrInvalidDescriptor},
		{"bad role", Descriptor{Name: "a", Role: "weird"}, ErrInvalidRole},
		{"empty required", New("a", Requires("")), ErrInvalidDescriptor},
		{"empty optional", New("a", Uses(" ")), ErrInvalidDescriptor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.d.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateSet_Duplicate(t *testing.T) {
	t.Parallel()

	err := ValidateSet([]Descriptor{New("a"), New("b"), New("a")})
	var dupErr *DuplicateModuleError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected *DuplicateModuleError, got %T: %v", err, err)
	}
	if dupErr.Name != "a" {
		t.Errorf("Name = %q, want a", dupErr.Name)
	}
}
