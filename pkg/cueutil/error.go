// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrValidation is the sentinel wrapped by ValidationError.
var ErrValidation = errors.New("document validation failed")

// ValidationError reports why a document did not match its schema. Each
// entry of Problems is one "path: message" line.
type ValidationError struct {
	File     string
	Message  string
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch len(e.Problems) {
	case 0:
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	case 1:
		return fmt.Sprintf("%s: %s", e.File, e.Problems[0])
	default:
		return fmt.Sprintf("%s: validation failed:\n  %s", e.File, strings.Join(e.Problems, "\n  "))
	}
}

// Unwrap returns ErrValidation so callers can use errors.Is.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// FormatError converts a CUE error into a *ValidationError whose problems
// carry JSON-style paths such as modules[1].requires.
func FormatError(err error, file string) error {
	if err == nil {
		return nil
	}
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return &ValidationError{File: file, Message: err.Error()}
	}

	problems := make([]string, 0, len(list))
	for _, e := range list {
		path := FormatPath(cueerrors.Path(e))
		msg := e.Error()
		if path == "" {
			problems = append(problems, msg)
			continue
		}
		msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		problems = append(problems, path+": "+msg)
	}
	return &ValidationError{File: file, Problems: problems}
}

// FormatPath renders a CUE selector path, writing numeric elements as
// indices: ["modules", "0", "name"] becomes modules[0].name.
func FormatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
