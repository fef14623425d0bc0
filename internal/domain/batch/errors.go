package batch

import (
	"errors"
	"fmt"
)

// Sentinel kinds for batch validation. Callers match them with errors.Is.
var (
	ErrEmptyBatch      = errors.New("batch is empty")
	ErrBatchTooLarge   = errors.New("batch too large")
	ErrOutOfRange      = errors.New("experience out of range")
	ErrUnknownCategory = errors.New("unknown category")
	ErrLengthMismatch  = errors.New("field lengths differ")
)

// Error describes which element of a batch failed validation.
// Index is -1 when the failure concerns the batch as a whole.
type Error struct {
	Kind  error
	Field string
	Index int
	Value string
	cause error
}

func (e *Error) Error() string {
	switch {
	case e.Index < 0 && e.Value != "":
		return fmt.Sprintf("%s: %s: %s", e.Field, e.Kind, e.Value)
	case e.Index < 0:
		return fmt.Sprintf("%s: %s", e.Field, e.Kind)
	case e.cause != nil:
		return fmt.Sprintf("%s[%d]: %v", e.Field, e.Index, e.cause)
	default:
		return fmt.Sprintf("%s[%d]: %s: %q", e.Field, e.Index, e.Kind, e.Value)
	}
}

// Unwrap exposes both the kind and the underlying cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}
