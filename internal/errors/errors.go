package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ParseFailure indicates a source unit could not be parsed
	ParseFailure ErrorCode = "PARSE_FAILURE"
	// ResolutionAmbiguity indicates a call site matched several definitions
	ResolutionAmbiguity ErrorCode = "RESOLUTION_AMBIGUITY"
	// EmbeddingUnavailable indicates the embedding provider failed or timed out
	EmbeddingUnavailable ErrorCode = "EMBEDDING_UNAVAILABLE"
	// ConfigurationError indicates invalid analysis options
	ConfigurationError ErrorCode = "CONFIGURATION_ERROR"
	// MetricSkipped indicates a definition could not be scored
	MetricSkipped ErrorCode = "METRIC_SKIPPED"
	// Cancelled indicates the caller cancelled the run
	Cancelled ErrorCode = "CANCELLED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Severity tells consumers whether a failure aborts the run or only
// degrades part of the report.
type Severity string

const (
	SeverityFatal    Severity = "fatal"
	SeverityDegraded Severity = "degraded"
	SeverityInfo     Severity = "info"
)

// Fix is a short human hint attached to an error code.
type Fix struct {
	Description string `json:"description"`
	Command     string `json:"command,omitempty"`
}

// AnalysisError represents an engine error with code, message, and suggestions
type AnalysisError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []Fix       `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new AnalysisError with the default fixes for its code.
func New(code ErrorCode, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *AnalysisError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AnalysisError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *AnalysisError) WithDetails(details interface{}) *AnalysisError {
	e.Details = details
	return e
}

// Severity reports how the error affects a run.
func (e *AnalysisError) Severity() Severity {
	return SeverityOf(e.Code)
}

// SeverityOf maps an error code to its run-level severity.
func SeverityOf(code ErrorCode) Severity {
	switch code {
	case ConfigurationError, Cancelled, InternalError:
		return SeverityFatal
	case ResolutionAmbiguity:
		return SeverityInfo
	default:
		return SeverityDegraded
	}
}

// CodeOf extracts the ErrorCode from err, or "" if err carries none.
func CodeOf(err error) ErrorCode {
	var ae *AnalysisError
	if stderrors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Is reports whether err is an AnalysisError with the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]Fix{
	ParseFailure: {
		{Description: "Fix the syntax error or exclude the file with --exclude"},
	},
	EmbeddingUnavailable: {
		{Description: "Check the embedding provider", Command: "codeintel analyze --provider local"},
	},
	ConfigurationError: {
		{Description: "Inspect the effective configuration", Command: "codeintel config show"},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []Fix {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
