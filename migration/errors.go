package migration

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatch is the cause of an ActionError when a strict target matches nothing.
var ErrNoMatch = errors.New("target matched no nodes")

// ValidationError represents an error in the migration document structure.
type ValidationError struct {
	// Path is the location in the document (e.g., "steps[0].forward[1].target").
	Path string

	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("migration: validation error at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("migration: validation error: %s", e.Message)
}

// ValidationErrors collects every problem found in a document.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// ActionError represents a failure applying one action of a step.
type ActionError struct {
	// From and To identify the step edge being applied.
	From, To string

	// ActionIndex is the zero-based index of the failing action.
	ActionIndex int

	// Target is the JSONPath expression that was being evaluated.
	Target string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	return fmt.Sprintf("migration: step %s -> %s action[%d] target=%q: %v", e.From, e.To, e.ActionIndex, e.Target, e.Cause)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ActionError) Unwrap() error {
	return e.Cause
}

// ParseError represents an error during migration document parsing.
type ParseError struct {
	// Path is the file path or source identifier.
	Path string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("migration: failed to parse %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("migration: failed to parse: %v", e.Cause)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
