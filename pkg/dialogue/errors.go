package dialogue

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPayload  = errors.New("malformed resume payload")
	ErrUnexpectedPayload = errors.New("resume payload given but nothing is pending")
	ErrUnknownStep       = errors.New("unknown step")
	ErrInvariant         = errors.New("conversation state invariant violated")
	ErrStepLimit         = errors.New("step limit exceeded")
	ErrInvalidDefinition = errors.New("invalid workflow definition")
)

// PayloadError describes why a resume payload was rejected.
type PayloadError struct {
	Kind   string
	Reason string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s for %q: %s", ErrMalformedPayload, e.Kind, e.Reason)
}

func (e *PayloadError) Unwrap() error {
	return ErrMalformedPayload
}

func payloadError(kind, format string, args ...interface{}) error {
	return &PayloadError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func invariantError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvariant, reason)
}

// NewPayloadError lets a step reject a payload whose shape was valid but
// whose content is not.
func NewPayloadError(kind, reason string) error {
	return &PayloadError{Kind: kind, Reason: reason}
}
