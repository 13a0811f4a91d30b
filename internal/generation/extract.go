package generation

import (
	"errors"
	"strings"

	"github.com/phrazzld/flashforge/internal/schema"
)

// Messages recorded for extraction failures.
const (
	MsgEmptyContent          = "Response content is empty or in an invalid format."
	msgSchemaPrefix          = "Schema validation failed: "
	msgParseOrValidatePrefix = "Failed to parse or validate response: "
)

// Extract reads choices[0].message.content from raw, parses it as JSON and
// validates it against shape. Any failure is a *ResponseError matching
// ErrSchemaValidation; no partial result is ever returned.
func Extract[T any](raw *RawCompletion, shape *schema.Shape[T]) (T, error) {
	var zero T

	content, ok := raw.TextContent()
	if !ok || strings.TrimSpace(content) == "" {
		return zero, &ResponseError{Message: MsgEmptyContent}
	}

	decoded, err := schema.Decode([]byte(content))
	if err != nil {
		return zero, &ResponseError{Message: msgParseOrValidatePrefix + err.Error(), Err: err}
	}

	value, err := shape.Validate(decoded)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			return zero, &ResponseError{
				Message: msgSchemaPrefix + strings.Join(verr.Messages(), ", "),
				Err:     err,
			}
		}
		return zero, &ResponseError{Message: msgParseOrValidatePrefix + err.Error(), Err: err}
	}

	return value, nil
}
