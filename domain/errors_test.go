package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	// Without cause
	err := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
	}
	expected := "[TEST_ERROR] Test message"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}

	// With cause
	cause := errors.New("underlying error")
	errWithCause := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
		Cause:   cause,
	}
	expectedWithCause := "[TEST_ERROR] Test message: underlying error"
	if errWithCause.Error() != expectedWithCause {
		t.Errorf("Expected '%s', got '%s'", expectedWithCause, errWithCause.Error())
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
		Cause:   cause,
	}

	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	errNoCause := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
	}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap should return nil when no cause")
	}
}

func TestNewDomainError(t *testing.T) {
	cause := errors.New("cause")
	err := NewDomainError("CODE", "message", cause)

	domainErr, ok := err.(DomainError)
	if !ok {
		t.Fatal("Should return DomainError type")
	}
	if domainErr.Code != "CODE" {
		t.Errorf("Expected code 'CODE', got '%s'", domainErr.Code)
	}
	if domainErr.Message != "message" {
		t.Errorf("Expected message 'message', got '%s'", domainErr.Message)
	}
	if domainErr.Cause != cause {
		t.Error("Cause should be set")
	}
}

func TestErrorConstructors_Codes(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"InvalidInput", NewInvalidInputError("bad input", cause), ErrCodeInvalidInput},
		{"FileNotFound", NewFileNotFoundError("/path/to/file", nil), ErrCodeFileNotFound},
		{"Parse", NewParseError("test.ts", cause), ErrCodeParseError},
		{"Analysis", NewAnalysisError("analysis failed", nil), ErrCodeAnalysisError},
		{"Config", NewConfigError("invalid config", nil), ErrCodeConfigError},
		{"Output", NewOutputError("write failed", nil), ErrCodeOutputError},
		{"UnsupportedFormat", NewUnsupportedFormatError("xml"), ErrCodeUnsupportedFormat},
		{"Validation", NewValidationError("validation failed"), ErrCodeInvalidInput},
		{"Storage", NewStorageError("open failed", cause), ErrCodeStorageError},
		{"EngineFault", NewEngineFaultError("typescript", cause), ErrCodeEngineFault},
		{"ValidationFault", NewValidationFaultError("missing file path"), ErrCodeValidationFault},
		{"CrossoverConflict", NewCrossoverConflictError(2), ErrCodeCrossoverConflict},
		{"PersistenceFault", NewPersistenceFaultError(cause), ErrCodePersistenceFault},
		{"InvalidTransition", NewInvalidTransitionError(PhaseShutdown, PhaseRunning), ErrCodeInvalidTransition},
		{"SchedulerFault", NewSchedulerFaultError("no-console", "eslint", cause), ErrCodeSchedulerFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domainErr, ok := tt.err.(DomainError)
			if !ok {
				t.Fatal("Should return DomainError type")
			}
			if domainErr.Code != tt.code {
				t.Errorf("Expected code '%s', got '%s'", tt.code, domainErr.Code)
			}
		})
	}
}

func TestNewFileNotFoundError_Message(t *testing.T) {
	err := NewFileNotFoundError("/path/to/file", nil)
	domainErr := err.(DomainError)
	if domainErr.Message != "file not found: /path/to/file" {
		t.Errorf("Unexpected message: %s", domainErr.Message)
	}
}

func TestNewUnsupportedFormatError_Message(t *testing.T) {
	err := NewUnsupportedFormatError("xml")
	domainErr := err.(DomainError)
	if domainErr.Message != "unsupported format: xml" {
		t.Errorf("Unexpected message: %s", domainErr.Message)
	}
}

func TestNewInvalidTransitionError_Message(t *testing.T) {
	err := NewInvalidTransitionError(PhaseShutdown, PhaseRunning)
	domainErr := err.(DomainError)
	if domainErr.Message != "invalid transition: shutdown -> running" {
		t.Errorf("Unexpected message: %s", domainErr.Message)
	}
}

func TestHasErrorCode_WrappedChain(t *testing.T) {
	inner := NewCrossoverConflictError(3)
	wrapped := fmt.Errorf("cycle failed: %w", inner)

	if !HasErrorCode(wrapped, ErrCodeCrossoverConflict) {
		t.Error("HasErrorCode should find codes through wrapping")
	}
	if HasErrorCode(wrapped, ErrCodeEngineFault) {
		t.Error("HasErrorCode should not match a different code")
	}
	if HasErrorCode(errors.New("plain"), ErrCodeEngineFault) {
		t.Error("HasErrorCode should be false for non-domain errors")
	}
}

func TestCrossoverConflictAndTransitionHelpers(t *testing.T) {
	if !IsCrossoverConflict(NewCrossoverConflictError(1)) {
		t.Error("IsCrossoverConflict should match")
	}
	if IsCrossoverConflict(NewEngineFaultError("eslint", nil)) {
		t.Error("IsCrossoverConflict should not match engine faults")
	}
	if !IsInvalidTransition(NewInvalidTransitionError(PhaseReady, PhaseReady)) {
		t.Error("IsInvalidTransition should match")
	}
}
