package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestBenchError_Error(t *testing.T) {
	err := New(ErrCategoryStorage, CodeUploadFailed, "upload failed")
	expected := "[STORAGE:UPLOAD_FAILED] upload failed"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestBenchError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCategoryStorage, CodeUploadFailed, "upload failed", cause)
	expected := "[STORAGE:UPLOAD_FAILED] upload failed: connection refused"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestBenchError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryReport, CodePersistFailed, "cannot persist", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestBenchError_Is(t *testing.T) {
	err1 := New(ErrCategoryValidation, CodeInvalidConfiguration, "first")
	err2 := New(ErrCategoryValidation, CodeInvalidConfiguration, "second")
	err3 := New(ErrCategoryValidation, CodeUnknownScenario, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrCategoryStorage, CodeUploadFailed, true},
		{ErrCategoryStorage, CodeDownloadFailed, true},
		{ErrCategoryStorage, CodeObjectNotFound, false},
		{ErrCategoryReport, CodePersistFailed, true},
		{ErrCategoryReport, CodeExportFailed, false},
		{ErrCategoryValidation, CodeInvalidConfiguration, false},
		{ErrCategoryExecution, CodeItemFailed, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("%s:%s retryable=%v, want %v", tt.category, tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestGetCategory(t *testing.T) {
	err := New(ErrCategoryExecution, CodeItemFailed, "item blew up")
	if GetCategory(err) != ErrCategoryExecution {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryExecution)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-BenchError should return empty category")
	}
}

func TestGetCode(t *testing.T) {
	err := New(ErrCategoryExecution, CodeItemFailed, "item blew up")
	if GetCode(err) != CodeItemFailed {
		t.Errorf("got %q, want %q", GetCode(err), CodeItemFailed)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-BenchError should return empty code")
	}
}

func TestIsInvalidConfiguration(t *testing.T) {
	if !IsInvalidConfiguration(NewInvalidConfiguration("cycles must be positive")) {
		t.Error("expected validation error to be recognized")
	}
	if IsInvalidConfiguration(NewExecutionError(CodeItemFailed, "boom")) {
		t.Error("execution error should not be a configuration error")
	}
	if IsInvalidConfiguration(fmt.Errorf("plain")) {
		t.Error("plain error should not be a configuration error")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrCategoryValidation, CodeInvalidConfiguration, "bad workers")
	detailed := err.WithDetails(map[string]interface{}{"field": "workers"})

	if detailed.Details["field"] != "workers" {
		t.Error("WithDetails should set details")
	}
	// Original should be unmodified
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	v := NewInvalidConfiguration("batch size")
	if v.Category != ErrCategoryValidation || v.Code != CodeInvalidConfiguration {
		t.Error("NewInvalidConfiguration mismatch")
	}

	s := NewStorageError(CodeUploadFailed, "s3 down", cause)
	if s.Category != ErrCategoryStorage || !errors.Is(s, cause) {
		t.Error("NewStorageError mismatch")
	}

	r := NewReportError(CodePersistFailed, "db locked", cause)
	if r.Category != ErrCategoryReport || !r.Retryable {
		t.Error("NewReportError mismatch")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}
