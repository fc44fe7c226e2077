package types

import (
	"errors"
	"fmt"
	"strings"
)

// Session lifecycle errors.
var (
	ErrSessionDetached = errors.New("session is detached")
	ErrAlreadyAttached = errors.New("session is already attached")
)

// Configuration errors. These indicate programmer mistakes and are not retried.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrUnknownEntity    = errors.New("unknown entity type")
	ErrMissingEndpoint  = errors.New("missing required endpoint")
	ErrDuplicateEntity  = errors.New("entity type registered twice")
	ErrInvalidMergeRule = errors.New("invalid merge rule")
	ErrUnknownRule      = errors.New("unknown validation rule")
)

// Operation errors.
var (
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrTransport            = errors.New("transport error")
	ErrValidation           = errors.New("validation failed")
	ErrInvalidID            = errors.New("invalid entity ID")
)

// ConfigurationError reports an unknown entity type or a descriptor that is
// missing a required field.
type ConfigurationError struct {
	EntityType string
	Err        error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.EntityType)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrConfiguration for any configuration failure.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// TransportError is a normalized request failure. Message holds the server
// provided message when there is one, otherwise the transport message.
type TransportError struct {
	Status  int // HTTP status, 0 when no response arrived.
	Message string
	Err     error // underlying cause, never stored in collection state
}

func (e *TransportError) Error() string { return e.Message }

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// FieldError is a single failed rule for a field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries every field-level failure found before submission.
type ValidationError struct {
	EntityType string
	Fields     []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.EntityType, ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ByField groups messages by field name, in rule order.
func (e *ValidationError) ByField() map[string][]string {
	out := make(map[string][]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = append(out[f.Field], f.Message)
	}
	return out
}

// UnsupportedOperationError reports an operation the entity type does not declare.
type UnsupportedOperationError struct {
	EntityType string
	Operation  string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s %q for entity type %q", ErrUnsupportedOperation, e.Operation, e.EntityType)
}

func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}

// Message extracts the string that is safe to store in state or show to a
// caller. It never returns an empty string for a non-nil error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "unknown error"
}
