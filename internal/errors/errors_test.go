package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("unexpected token")

	err := New(ParseFailure, "cannot parse a.py", cause)

	if err.Code != ParseFailure {
		t.Errorf("Code = %v, want %v", err.Code, ParseFailure)
	}
	if err.Message != "cannot parse a.py" {
		t.Errorf("Message = %q, want %q", err.Message, "cannot parse a.py")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestAnalysisError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      EmbeddingUnavailable,
			message:   "provider failed",
			cause:     errors.New("connection refused"),
			wantParts: []string{"EMBEDDING_UNAVAILABLE", "provider failed", "connection refused"},
		},
		{
			name:      "without cause",
			code:      ConfigurationError,
			message:   "similarity_threshold must be in (0, 1]",
			cause:     nil,
			wantParts: []string{"CONFIGURATION_ERROR", "similarity_threshold"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestAnalysisError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}

	if Newf(Cancelled, "run cancelled at %s", "resolve").Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestAnalysisError_WithDetails(t *testing.T) {
	err := New(MetricSkipped, "inverted range", nil)

	if err.WithDetails(map[string]int{"start": 9, "end": 3}) != err {
		t.Error("WithDetails should return the same error for chaining")
	}
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestCodeOfWrapped(t *testing.T) {
	base := New(Cancelled, "stopped", nil)
	wrapped := fmt.Errorf("run: %w", base)

	if got := CodeOf(wrapped); got != Cancelled {
		t.Errorf("CodeOf() = %q, want %q", got, Cancelled)
	}
	if !Is(wrapped, Cancelled) {
		t.Error("Is(wrapped, Cancelled) = false")
	}
	if Is(errors.New("plain"), Cancelled) {
		t.Error("plain error should not match a code")
	}
	if Is(nil, Cancelled) {
		t.Error("nil should not match a code")
	}
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want Severity
	}{
		{ConfigurationError, SeverityFatal},
		{Cancelled, SeverityFatal},
		{InternalError, SeverityFatal},
		{ParseFailure, SeverityDegraded},
		{EmbeddingUnavailable, SeverityDegraded},
		{MetricSkipped, SeverityDegraded},
		{ResolutionAmbiguity, SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := SeverityOf(tt.code); got != tt.want {
				t.Errorf("SeverityOf(%v) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		wantNil bool
		wantLen int
	}{
		{ParseFailure, false, 1},
		{EmbeddingUnavailable, false, 1},
		{ConfigurationError, false, 1},
		{Cancelled, true, 0},
		{ResolutionAmbiguity, true, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			fixes := GetSuggestedFixes(tt.code)

			if tt.wantNil && fixes != nil {
				t.Errorf("GetSuggestedFixes(%v) = %v, want nil", tt.code, fixes)
			}
			if !tt.wantNil && len(fixes) != tt.wantLen {
				t.Errorf("GetSuggestedFixes(%v) len = %d, want %d", tt.code, len(fixes), tt.wantLen)
			}
		})
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		ParseFailure,
		ResolutionAmbiguity,
		EmbeddingUnavailable,
		ConfigurationError,
		MetricSkipped,
		Cancelled,
		InternalError,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %v", code)
		}
		seen[code] = true
		if string(code) == "" {
			t.Error("Error code should not be empty")
		}
	}
}

func TestErrorActionsMap(t *testing.T) {
	for code, fixes := range ErrorActions {
		if len(fixes) == 0 {
			t.Errorf("ErrorActions[%v] has no fix actions", code)
		}
		for i, fix := range fixes {
			if fix.Description == "" {
				t.Errorf("ErrorActions[%v][%d].Description is empty", code, i)
			}
		}
	}
}
