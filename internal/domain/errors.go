package domain

import "errors"

// Errors returned by the pipeline stages. Callers wrap them with detail;
// the HTTP layer maps them to status codes with errors.Is.
var (
	// ErrInvalidInput is returned when the inbound request body is missing,
	// malformed, or carries neither a user name nor a user ID.
	ErrInvalidInput = errors.New("invalid request input")

	// ErrUnauthorized is returned when a required session credential is
	// missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrLookupFailed is returned when the identity service could not be
	// reached or answered with a non-success status.
	ErrLookupFailed = errors.New("user lookup failed")

	// ErrMalformedResponse is returned when the identity service answered
	// with a success status but the body is not valid JSON.
	ErrMalformedResponse = errors.New("malformed lookup response")

	// ErrNameNotFound is returned when the lookup response carries no name.
	ErrNameNotFound = errors.New("user name not found")

	// ErrSubmissionFailed is returned when the automation task could not be
	// started, including when the service accepted the call but returned no handle.
	ErrSubmissionFailed = errors.New("task submission failed")

	// ErrTaskFailed is returned when the automation service reports the task failed.
	ErrTaskFailed = errors.New("automation task failed")

	// ErrTimedOut is returned when the poll budget is exhausted before the
	// task reaches a terminal status.
	ErrTimedOut = errors.New("automation task timed out")

	// ErrInvalidResult is returned when a completed task's output holds no
	// usable balance.
	ErrInvalidResult = errors.New("invalid task result")
)
