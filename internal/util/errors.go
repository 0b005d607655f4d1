// Package util provides shared error helpers for proxyconf.
package util

import (
	"errors"
	"fmt"
)

// Common error types for proxyconf.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidProxyType = errors.New("invalid proxy type")
	ErrClosed           = errors.New("already closed")
	ErrUnsupported      = errors.New("not supported on this platform")
)

// MultiError collects the failures of several independent steps.
type MultiError struct {
	Errors []error
}

// Add appends err unless it is nil.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Err returns nil if nothing was collected, or the MultiError itself.
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// Error implements the error interface.
func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return ""
	case 1:
		return m.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors occurred: %v", len(m.Errors), m.Errors)
	}
}

// Unwrap returns the underlying errors for errors.Is/As support.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}
