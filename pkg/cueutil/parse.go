// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize bounds the size of decoded documents (1 MiB).
const DefaultMaxFileSize int64 = 1 << 20

type (
	options struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures Decode.
	Option func(*options)
)

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(o *options) {
		o.maxFileSize = size
	}
}

// WithConcrete controls whether every value must be concrete after
// unification. The default is true.
func WithConcrete(concrete bool) Option {
	return func(o *options) {
		o.concrete = concrete
	}
}

// WithFilename names the document in error messages.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

// Decode unifies data with the schema definition at path and decodes the
// result into a T. Document errors are reported as *ValidationError.
func Decode[T any](schema, data []byte, path string, opts ...Option) (*T, error) {
	o := options{maxFileSize: DefaultMaxFileSize, concrete: true, filename: "<input>"}
	for _, opt := range opts {
		opt(&o)
	}
	if int64(len(data)) > o.maxFileSize {
		return nil, &ValidationError{
			File:    o.filename,
			Message: fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", len(data), o.maxFileSize),
		}
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileBytes(schema)
	if err := schemaValue.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := schemaValue.LookupPath(cue.ParsePath(path))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("schema definition %s: %w", path, err)
	}

	doc := ctx.CompileBytes(data, cue.Filename(o.filename))
	if err := doc.Err(); err != nil {
		return nil, FormatError(err, o.filename)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, o.filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return &out, nil
}
