package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// APIError is a non-2xx backend response. Body holds the raw response text.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// TransportError is a network-level failure before any backend response
// was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }
