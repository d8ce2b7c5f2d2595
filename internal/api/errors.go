package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/balance-proxy/internal/domain"
	"github.com/phrazzld/balance-proxy/internal/service/auth"
)

// Client-facing error messages. Upstream detail never reaches the client.
const (
	MsgInvalidRequest   = "Invalid request body or missing userName."
	MsgAuthRequired     = "Authentication required"
	MsgLookupFailed     = "Failed to look up user name."
	MsgAutomationFailed = "Automation process failed."
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest

	case isAuthError(err):
		return http.StatusUnauthorized

	// Every downstream or automation failure, known or not
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return MsgInvalidRequest

	case isAuthError(err):
		return MsgAuthRequired

	case errors.Is(err, domain.ErrLookupFailed),
		errors.Is(err, domain.ErrMalformedResponse),
		errors.Is(err, domain.ErrNameNotFound):
		return MsgLookupFailed

	default:
		return MsgAutomationFailed
	}
}

func isAuthError(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrExpiredToken) ||
		errors.Is(err, auth.ErrTokenNotYetValid) ||
		errors.Is(err, auth.ErrMissingToken)
}
