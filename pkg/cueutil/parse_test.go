// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Service: {
	name:     string & =~"^[a-z]+$"
	replicas: int & >=1
	tags?: [...string]
}
`

type service struct {
	Name     string   `json:"name"`
	Replicas int      `json:"replicas"`
	Tags     []string `json:"tags,omitempty"`
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		opts    []Option
		want    service
		wantErr string
	}{
		{
			name: "valid document",
			data: "name: \"web\"\nreplicas: 3\ntags: [\"edge\"]\n",
			want: service{Name: "web", Replicas: 3, Tags: []string{"edge"}},
		},
		{
			name: "optional field omitted",
			data: "name: \"web\"\nreplicas: 1\n",
			want: service{Name: "web", Replicas: 1},
		},
		{
			name:    "constraint violated",
			data:    "name: \"web\"\nreplicas: 0\n",
			wantErr: "replicas",
		},
		{
			name:    "unknown field rejected",
			data:    "name: \"web\"\nreplicas: 1\nextra: true\n",
			wantErr: "extra",
		},
		{
			name:    "syntax error",
			data:    "name: \"web\n",
			wantErr: "svc.cue",
		},
		{
			name:    "file too large",
			data:    "name: \"web\"\nreplicas: 1\n",
			opts:    []Option{WithMaxFileSize(4)},
			wantErr: "exceeds maximum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := append([]Option{WithFilename("svc.cue")}, tt.opts...)
			got, err := Decode[service]([]byte(testSchema), []byte(tt.data), "#Service", opts...)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Decode() = %+v, want error containing %q", got, tt.wantErr)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Decode() error = %v, want ErrValidation", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Decode() error = %q, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}
			if got.Name != tt.want.Name || got.Replicas != tt.want.Replicas || len(got.Tags) != len(tt.want.Tags) {
				t.Errorf("Decode() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestDecode_MissingDefinition(t *testing.T) {
	t.Parallel()

	_, err := Decode[service]([]byte(testSchema), []byte("name: \"web\"\n"), "#Nope")
	if err == nil {
		t.Fatal("Decode() with unknown definition succeeded")
	}
	if errors.Is(err, ErrValidation) {
		t.Errorf("schema error reported as document validation: %v", err)
	}
}
