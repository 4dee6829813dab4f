// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Simulation errors.
	ErrNoCustomers  = errors.New("no eligible customers")
	ErrNoProducts   = errors.New("no available products")
	ErrNoMatches    = errors.New("no matching products")
	ErrTerminal     = errors.New("position already in terminal state")
	ErrInvalidRange = errors.New("invalid date range")
)

// ComputationError wraps a failure while scoring, sizing or evaluating a
// single unit. The batch layer logs it and continues; it never aborts a run.
type ComputationError struct {
	Err  error
	Unit string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed for %s: %v", e.Unit, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// NewComputationError tags an error with the identifier of the unit that
// produced it.
func NewComputationError(unit string, err error) error {
	return &ComputationError{Unit: unit, Err: err}
}
