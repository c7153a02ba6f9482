package helpers

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type PusherError struct {
	Message string
	Cause   error
}

func (e *PusherError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PusherError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As checks
type ConfigurationError struct{ PusherError }
type NetworkError struct{ PusherError }
type DataSourceError struct{ PusherError }
type ProtocolError struct{ PusherError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewNetworkError(message string, cause error) error {
	return &NetworkError{PusherError{Message: message, Cause: cause}}
}

func NewDataSourceError(message string, cause error) error {
	return &DataSourceError{PusherError{Message: message, Cause: cause}}
}

func NewProtocolError(format string, args ...interface{}) error {
	return &ProtocolError{PusherError{Message: fmt.Sprintf(format, args...)}}
}

func NewConfigurationError(format string, args ...interface{}) error {
	return &ConfigurationError{PusherError{Message: fmt.Sprintf(format, args...)}}
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// IsTransient reports whether err is a recoverable upstream failure:
// network errors, malformed payloads and timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr *NetworkError
	var srcErr *DataSourceError
	var opErr net.Error
	switch {
	case errors.As(err, &netErr), errors.As(err, &srcErr):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.As(err, &opErr):
		return true
	}
	return false
}

// IsProtocolError reports whether err was caused by a malformed client frame.
func IsProtocolError(err error) bool {
	var pErr *ProtocolError
	return errors.As(err, &pErr)
}
