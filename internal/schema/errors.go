package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is matched by every *ValidationError via errors.Is.
var ErrInvalid = errors.New("value does not match schema")

// ErrUnsupportedShape is returned by Define when T cannot be described as a
// provider-facing object schema.
var ErrUnsupportedShape = errors.New("unsupported shape")

// Violation is a single mismatch between a value and a shape.
type Violation struct {
	// Path locates the offending value, e.g. "flashcards[2].front".
	// Empty for the root value.
	Path    string
	Message string
}

// String renders the violation as "path: message".
func (v Violation) String() string {
	if v.Path == "" {
		return "(root): " + v.Message
	}
	return v.Path + ": " + v.Message
}

// ValidationError collects every violation found in a value.
type ValidationError struct {
	Shape      string
	Violations []Violation
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema %q: %s", e.Shape, strings.Join(e.Messages(), "; "))
}

// Messages returns the rendered violations in path order.
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.String()
	}
	return out
}

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}
