// Package verserrors provides structured error types for vers.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to tell a missing converter chain apart from
// a failing converter or a bad configuration.
//
// # Error Categories
//
//   - PathNotFoundError: no chain of registered converters links two versions
//   - VersionDetectionError: the version detector could not name a record's version
//   - ConversionStepError: a converter failed part way along a path
//   - ConfigError: invalid configuration, including an uninferable latest version
//
// # Usage with errors.Is
//
//	rec, err := v.To(ctx, vers.Num(4), record)
//	if errors.Is(err, verserrors.ErrPathNotFound) {
//	    // register the missing converter or pick another target
//	}
//
// # Usage with errors.As
//
//	var stepErr *verserrors.ConversionStepError
//	if errors.As(err, &stepErr) {
//	    log.Printf("step %d (%v -> %v) failed", stepErr.Step, stepErr.From, stepErr.To)
//	}
package verserrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrPathNotFound indicates the target version is unreachable from the source.
	ErrPathNotFound = errors.New("path not found")

	// ErrVersionDetection indicates the current version of a record could not be determined.
	ErrVersionDetection = errors.New("version detection failed")

	// ErrConversionStep indicates a converter failed mid-path.
	ErrConversionStep = errors.New("conversion step failed")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// PathNotFoundError reports that no directed chain of converters links From to To.
type PathNotFoundError struct {
	// From is the resolved source version
	From any
	// To is the resolved target version
	To any
	// Message provides additional context, such as an unknown source version
	Message string
}

// Error returns a human-readable error message.
func (e *PathNotFoundError) Error() string {
	msg := fmt.Sprintf("path not found: %v -> %v", e.From, e.To)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound
}

// VersionDetectionError represents a failure of the version detector.
type VersionDetectionError struct {
	// Message describes the detection failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *VersionDetectionError) Error() string {
	msg := "version detection failed"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *VersionDetectionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *VersionDetectionError) Is(target error) bool {
	return target == ErrVersionDetection
}

// ConversionStepError represents a converter failing part way along a path.
// Steps after the failing one are never run.
type ConversionStepError struct {
	// From is the source version of the failing edge
	From any
	// To is the target version of the failing edge
	To any
	// Step is the zero-based position of the failing edge in the path
	Step int
	// Cause is the underlying error
	Cause error
}

// Error returns a human-readable error message.
func (e *ConversionStepError) Error() string {
	msg := fmt.Sprintf("conversion step %d (%v -> %v) failed", e.Step, e.From, e.To)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConversionStepError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConversionStepError) Is(target error) bool {
	return target == ErrConversionStep
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, incomplete converter registrations and a
// latest version that cannot be inferred.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
