package service

import "fmt"

// Error handling in this package:
//  1. Pipeline stages return domain sentinels wrapped with detail.
//  2. GetBalance wraps the first failure in a BalanceServiceError naming the stage.
//  3. Callers use errors.Is against the domain sentinels; the API layer maps
//     them to HTTP status codes.

// BalanceServiceError records which pipeline stage failed.
type BalanceServiceError struct {
	// Stage is the pipeline stage that failed (e.g., "resolve", "poll")
	Stage string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for BalanceServiceError.
func (e *BalanceServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("balance service %s failed: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("balance service %s failed: %s", e.Stage, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *BalanceServiceError) Unwrap() error {
	return e.Err
}

// NewBalanceServiceError creates a new BalanceServiceError, or returns nil
// when err is nil.
func NewBalanceServiceError(stage, message string, err error) error {
	if err == nil {
		return nil
	}
	return &BalanceServiceError{Stage: stage, Message: message, Err: err}
}
