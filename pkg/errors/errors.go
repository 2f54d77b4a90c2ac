package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyAllocated = errors.New("payment already allocated")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrPersistence      = errors.New("persistence failure")
	ErrConfiguration    = errors.New("configuration missing")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyAllocated = "ALREADY_ALLOCATED"
	ErrCodeAlreadyProcessed = "ALREADY_PROCESSED"
	ErrCodeDatabaseError    = "DATABASE_ERROR"
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
)

// WrapValidation reports bad input. The message is shown to callers verbatim.
func WrapValidation(message string) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, ErrValidation)
}

// WrapValidationf is WrapValidation with formatting.
func WrapValidationf(format string, args ...any) *BusinessError {
	return WrapValidation(fmt.Sprintf(format, args...))
}

// WrapNotFound reports a missing entity of the given kind.
func WrapNotFound(entity, id string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("%s with ID %s not found", entity, id),
		ErrNotFound,
	)
}

func WrapAlreadyAllocated(reference string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyAllocated,
		fmt.Sprintf("Payment %s has already been allocated", reference),
		ErrAlreadyAllocated,
	)
}

func WrapAlreadyProcessed(entity, reference, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyProcessed,
		fmt.Sprintf("%s %s is already %s", entity, reference, status),
		ErrAlreadyProcessed,
	)
}

// WrapConfiguration describes missing fee configuration. Fee computation
// logs it and treats the fee as zero.
func WrapConfiguration(message string) *BusinessError {
	return NewBusinessError(ErrCodeConfiguration, message, ErrConfiguration)
}

// WrapDatabaseError marks a storage failure. The wrapped error keeps the
// driver detail for logs; callers match it with errors.Is(err, ErrPersistence).
func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		fmt.Errorf("%w: %w", ErrPersistence, err),
	)
}

// Code returns the business code of err, or "" when err carries none.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Message returns the caller-facing message of err.
func Message(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}

// Lift returns err unchanged when it already is a BusinessError and wraps it
// as a database error otherwise.
func Lift(err error) error {
	if err == nil {
		return nil
	}
	var be *BusinessError
	if errors.As(err, &be) {
		return err
	}
	return WrapDatabaseError(err)
}
