package domain

import (
	"errors"
	"fmt"
)

// Error codes for domain errors
const (
	// ErrCodeInvalidInput marks malformed request input (paths, options)
	ErrCodeInvalidInput = "INVALID_INPUT"

	// ErrCodeFileNotFound marks a missing target file or directory
	ErrCodeFileNotFound = "FILE_NOT_FOUND"

	// ErrCodeParseError marks a source file that could not be parsed
	ErrCodeParseError = "PARSE_ERROR"

	// ErrCodeAnalysisError marks a failed analysis cycle
	ErrCodeAnalysisError = "ANALYSIS_ERROR"

	// ErrCodeConfigError marks invalid or unloadable configuration
	ErrCodeConfigError = "CONFIG_ERROR"

	// ErrCodeOutputError marks a failed result write
	ErrCodeOutputError = "OUTPUT_ERROR"

	// ErrCodeUnsupportedFormat marks an unknown output format
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"

	// ErrCodeStorageError marks a storage open/migrate/query failure
	ErrCodeStorageError = "STORAGE_ERROR"

	// ErrCodeEngineFault marks a single engine failure; the cycle continues
	ErrCodeEngineFault = "ENGINE_FAULT"

	// ErrCodeValidationFault marks a malformed violation record; the record
	// is excluded and reported, the cycle continues
	ErrCodeValidationFault = "VALIDATION_FAULT"

	// ErrCodeCrossoverConflict marks a critical overlap between sources;
	// fatal only when the cycle is configured to fail on it
	ErrCodeCrossoverConflict = "CROSSOVER_CONFLICT"

	// ErrCodePersistenceFault marks a failed storage write; the cycle still
	// succeeds and the fault is surfaced as a warning
	ErrCodePersistenceFault = "PERSISTENCE_FAULT"

	// ErrCodeInvalidTransition marks a rejected watch state transition
	ErrCodeInvalidTransition = "INVALID_TRANSITION"

	// ErrCodeSchedulerFault marks a failed scheduled rule check; isolated
	// per rule, the scheduler keeps running
	ErrCodeSchedulerFault = "SCHEDULER_FAULT"
)

// DomainError represents a domain-specific error with a stable code
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e DomainError) Unwrap() error {
	return e.Cause
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) error {
	return DomainError{Code: code, Message: message, Cause: cause}
}

// NewInvalidInputError creates an error for malformed request input
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewFileNotFoundError creates an error for a missing file or directory
func NewFileNotFoundError(path string, cause error) error {
	return NewDomainError(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path), cause)
}

// NewParseError creates an error for a file that could not be parsed
func NewParseError(file string, cause error) error {
	return NewDomainError(ErrCodeParseError, fmt.Sprintf("failed to parse file: %s", file), cause)
}

// NewAnalysisError creates an error for a failed analysis cycle
func NewAnalysisError(message string, cause error) error {
	return NewDomainError(ErrCodeAnalysisError, message, cause)
}

// NewConfigError creates an error for invalid configuration
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewOutputError creates an error for a failed result write
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError creates an error for an unknown output format
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported format: %s", format), nil)
}

// NewValidationError creates an error for failed request validation
func NewValidationError(message string) error {
	return NewDomainError(ErrCodeInvalidInput, message, nil)
}

// NewStorageError creates an error for a storage failure
func NewStorageError(message string, cause error) error {
	return NewDomainError(ErrCodeStorageError, message, cause)
}

// NewEngineFaultError creates an error for a single engine failure
func NewEngineFaultError(engine string, cause error) error {
	return NewDomainError(ErrCodeEngineFault, fmt.Sprintf("engine %s failed", engine), cause)
}

// NewValidationFaultError creates an error for a malformed violation record
func NewValidationFaultError(message string) error {
	return NewDomainError(ErrCodeValidationFault, message, nil)
}

// NewCrossoverConflictError creates an error for critical overlap between sources
func NewCrossoverConflictError(locations int) error {
	return NewDomainError(ErrCodeCrossoverConflict,
		fmt.Sprintf("critical crossover conflict in %d location(s)", locations), nil)
}

// NewPersistenceFaultError creates an error for a failed storage write
func NewPersistenceFaultError(cause error) error {
	return NewDomainError(ErrCodePersistenceFault, "failed to persist violations", cause)
}

// NewInvalidTransitionError creates an error for a rejected watch state transition
func NewInvalidTransitionError(from, to WatchPhase) error {
	return NewDomainError(ErrCodeInvalidTransition,
		fmt.Sprintf("invalid transition: %s -> %s", from, to), nil)
}

// NewSchedulerFaultError creates an error for a failed scheduled rule check
func NewSchedulerFaultError(rule, engine string, cause error) error {
	return NewDomainError(ErrCodeSchedulerFault,
		fmt.Sprintf("rule check %s (%s) failed", rule, engine), cause)
}

// HasErrorCode reports whether err carries the given domain error code
// anywhere in its chain
func HasErrorCode(err error, code string) bool {
	var domainErr DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsCrossoverConflict reports whether err is a crossover conflict error
func IsCrossoverConflict(err error) bool {
	return HasErrorCode(err, ErrCodeCrossoverConflict)
}

// IsInvalidTransition reports whether err is an invalid transition error
func IsInvalidTransition(err error) bool {
	return HasErrorCode(err, ErrCodeInvalidTransition)
}
