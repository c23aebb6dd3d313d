package errs

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrFormat     = errors.New("format error")
	ErrValidation = errors.New("validation error")
	ErrSubmission = errors.New("submission error")
)

// FormatError reports an input file that is not JSON or lacks its expected top-level key.
type FormatError struct {
	Source string // file name or logical input ("event", "privacy policy")
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error        { return e.Err }
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// ValidationError reports user input that was rejected. The mutation or
// finalize step that produced it did not change any state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// SubmissionError reports a failed delivery to the transformer service.
// StatusCode is 0 when no response was received.
type SubmissionError struct {
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("submission failed with status %d: %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("submission failed: %v", e.Err)
	default:
		return fmt.Sprintf("submission failed with status %d", e.StatusCode)
	}
}

func (e *SubmissionError) Unwrap() error        { return e.Err }
func (e *SubmissionError) Is(target error) bool { return target == ErrSubmission }

// Invalid is shorthand for a ValidationError.
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
