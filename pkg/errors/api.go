package errors

import (
	"fmt"
	"net/http"
)

/*
APIError is a client-visible error with an HTTP status. The memory store
itself never produces errors; everything here originates in the HTTP layer
or in provider configuration.
*/
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Data    any    `json:"data,omitempty"`
}

/*
Error implements the error interface for APIError.
*/
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Sentinel errors for the three user-visible failure classes: bad
// configuration, not-found, and everything else.
var (
	ErrInvalidRequest   = &APIError{Status: http.StatusBadRequest, Message: "Invalid request"}
	ErrMissingAPIKey    = &APIError{Status: http.StatusBadRequest, Message: "Missing API key for the configured provider"}
	ErrSessionNotFound  = &APIError{Status: http.StatusNotFound, Message: "Session not found"}
	ErrHistoryNotFound  = &APIError{Status: http.StatusNotFound, Message: "No conversation history for session"}
	ErrUnknownProvider  = &APIError{Status: http.StatusBadRequest, Message: "Unknown provider"}
	ErrInternal         = &APIError{Status: http.StatusInternalServerError, Message: "Internal server error"}
)

// WithMessagef creates a *copy* of an APIError with a formatted message.
// It does not modify the original error variable.
func (e *APIError) WithMessagef(format string, args ...any) *APIError {
	newErr := *e
	newErr.Message = fmt.Sprintf(format, args...)
	return &newErr
}
