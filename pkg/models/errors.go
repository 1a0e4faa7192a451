package models

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned by staff-only operations without a usable token.
var ErrUnauthenticated = errors.New("staff login required")

// ValidationError is a missing or invalid input caught before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// NetworkError means the collaborator gave no response at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is an error payload returned by the collaborator. Message is shown verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Message extracts the text that should be shown to the user for err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "network error, please try again"
	}
	return err.Error()
}
