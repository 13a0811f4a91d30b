package generation

import (
	"errors"
	"fmt"
)

// Failure kinds reported by model clients and the extractor.
// Match them with errors.Is.
var (
	// ErrConfiguration is returned when a client cannot be constructed, e.g.
	// because the provider credential is missing.
	ErrConfiguration = errors.New("model client misconfigured")

	// ErrAuthentication is returned when the provider rejects the credential (HTTP 401).
	ErrAuthentication = errors.New("model provider authentication failed")

	// ErrRateLimit is returned when the provider throttles the request (HTTP 429).
	ErrRateLimit = errors.New("model provider rate limit exceeded")

	// ErrServer is returned for provider-side failures (HTTP 5xx).
	ErrServer = errors.New("model provider server error")

	// ErrAPI is returned for any other non-success response.
	ErrAPI = errors.New("model provider API error")

	// ErrNetwork is returned when the provider could not be reached or its
	// response could not be read.
	ErrNetwork = errors.New("model provider unreachable")

	// ErrSchemaValidation is returned by Extract when the response content is
	// missing, not JSON, or does not match the requested shape.
	ErrSchemaValidation = errors.New("model response failed schema validation")
)

// DefaultErrorMessage is used when a failed response carries no message.
const DefaultErrorMessage = "An unknown API error occurred."

// ProviderError describes a failed call to a model provider.
type ProviderError struct {
	// Kind is one of the sentinel errors above.
	Kind error
	// StatusCode is the HTTP status returned by the provider, or 0 when no
	// response was received.
	StatusCode int
	// Message is the provider-supplied error message.
	Message string
	// Err is the underlying transport or decode error, if any.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%v (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *ProviderError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ResponseError is returned by Extract. Message is suitable for the
// generation error log.
type ResponseError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return e.Message
}

// Unwrap exposes ErrSchemaValidation and the underlying cause.
func (e *ResponseError) Unwrap() []error {
	errs := []error{ErrSchemaValidation}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ErrorCode returns a short stable code for a generation failure, used in the
// error_code column of the generation error log.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrRateLimit):
		return "rate_limit"
	case errors.Is(err, ErrServer):
		return "server"
	case errors.Is(err, ErrAPI):
		return "api"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrSchemaValidation):
		return "schema_validation"
	default:
		return "unknown"
	}
}
