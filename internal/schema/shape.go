package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
)

// Descriptor is the provider-facing view of a shape.
type Descriptor interface {
	Name() string
	JSONSchema() json.RawMessage
}

// Option configures Define.
type Option func(*options)

type options struct {
	allowAdditional bool
	checks          []func(any) []Violation
}

// AllowAdditionalProperties makes unknown object keys legal. They are dropped
// when the value is re-typed into T.
func AllowAdditionalProperties() Option {
	return func(o *options) {
		o.allowAdditional = true
	}
}

// WithCheck adds a rule that runs on the typed value after the schema
// accepted it. Use it for constraints that must not appear in the
// provider-facing schema. Its violations are reported together with the
// schema's.
func WithCheck[T any](check func(T) []Violation) Option {
	return func(o *options) {
		o.checks = append(o.checks, func(v any) []Violation {
			return check(v.(T))
		})
	}
}

// Shape pairs the JSON Schema generated from T with a compiled validator for it.
type Shape[T any] struct {
	name     string
	raw      json.RawMessage
	compiled *validator.Schema
	checks   []func(any) []Violation
}

var _ Descriptor = (*Shape[struct{}])(nil)

// Define reflects T into a self-contained JSON Schema named name.
// Fields are required unless their json tag carries omitempty, and objects are
// closed to unknown keys unless AllowAdditionalProperties is given.
func Define[T any](name string, opts ...Option) (*Shape[T], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrUnsupportedShape)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: o.allowAdditional,
	}
	reflected := r.Reflect(new(T))
	if reflected.Type != "object" {
		return nil, fmt.Errorf("%w: %q must describe an object, got %q", ErrUnsupportedShape, name, reflected.Type)
	}
	reflected.Version = ""
	reflected.ID = ""

	raw, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", name, err)
	}

	doc, err := validator.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode schema %q: %w", name, err)
	}
	location := name + ".json"
	c := validator.NewCompiler()
	if err := c.AddResource(location, doc); err != nil {
		return nil, fmt.Errorf("add schema %q: %w", name, err)
	}
	compiled, err := c.Compile(location)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", name, err)
	}

	return &Shape[T]{name: name, raw: raw, compiled: compiled, checks: o.checks}, nil
}

// MustDefine is like Define but panics on error. Intended for package-level shapes.
func MustDefine[T any](name string, opts ...Option) *Shape[T] {
	s, err := Define[T](name, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name sent to the provider.
func (s *Shape[T]) Name() string {
	return s.name
}

// JSONSchema returns a copy of the generated schema document.
func (s *Shape[T]) JSONSchema() json.RawMessage {
	out := make(json.RawMessage, len(s.raw))
	copy(out, s.raw)
	return out
}

// Validate checks value against the shape and, when it conforms, returns it
// re-typed as T. value is usually the result of decoding JSON into an any,
// but any JSON-marshalable value is accepted. All violations are reported
// together in a *ValidationError, ordered by path.
func (s *Shape[T]) Validate(value any) (T, error) {
	var zero T

	generic, err := normalize(value)
	if err != nil {
		return zero, err
	}

	if err := s.compiled.Validate(generic); err != nil {
		var verr *validator.ValidationError
		if !errors.As(err, &verr) {
			return zero, fmt.Errorf("validate %q: %w", s.name, err)
		}
		return zero, s.invalid(violationsOf(verr, generic))
	}

	data, err := json.Marshal(generic)
	if err != nil {
		return zero, fmt.Errorf("re-encode %q: %w", s.name, err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("decode %q: %w", s.name, err)
	}

	var violations []Violation
	for _, check := range s.checks {
		violations = append(violations, check(out)...)
	}
	if len(violations) > 0 {
		return zero, s.invalid(violations)
	}
	return out, nil
}

func (s *Shape[T]) invalid(violations []Violation) *ValidationError {
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Path < violations[j].Path
	})
	return &ValidationError{Shape: s.name, Violations: violations}
}

// ValidateJSON decodes data and validates the result.
func (s *Shape[T]) ValidateJSON(data []byte) (T, error) {
	var zero T
	generic, err := Decode(data)
	if err != nil {
		return zero, err
	}
	return s.Validate(generic)
}

// Decode parses a single JSON document into generic values, keeping numbers
// as json.Number so integer checks are exact. Anything after the first value,
// including stray closing brackets, is an error.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func normalize(value any) (any, error) {
	switch value.(type) {
	case nil, bool, string, json.Number, map[string]any, []any:
		return value, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON-encodable: %w", err)
	}
	return Decode(data)
}
