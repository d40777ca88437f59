package render

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for per-row render failures.
var (
	ErrMalformedRow     = errors.New("malformed row")
	ErrRenderValidation = errors.New("render validation failed")
	ErrUnresolvedToken  = errors.New("unresolved placeholder")
	ErrMissingCodeCell  = errors.New("structured template has no code cell")
	ErrUnknownCategory  = errors.New("no templates for category")
)

// MalformedRowError reports required fields missing from a row.
type MalformedRowError struct {
	Key     string
	Missing []string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("%s: %s missing %s", ErrMalformedRow, e.Key, strings.Join(e.Missing, ", "))
}

func (e *MalformedRowError) Unwrap() error {
	return ErrMalformedRow
}

// ValidationError reports a rendered document that failed its checks.
type ValidationError struct {
	Key      string
	Family   string
	Template string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s, %s): %v", ErrRenderValidation, e.Key, e.Family, e.Template, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrRenderValidation, e.Err}
}
