package jelu

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized indicates the server rejected the credentials.
var ErrUnauthorized = errors.New("jelu rejected the credentials")

// ErrEmptyIdentifier is returned when a lookup or import has no ASIN to work with.
var ErrEmptyIdentifier = errors.New("record has no identifier")

// StatusError represents a non-2xx response from the library server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("jelu request failed: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("jelu request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrUnauthorized) match a 401 response.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// TransportError wraps a request that never produced a response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("jelu %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError wraps a response body that could not be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode jelu response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
