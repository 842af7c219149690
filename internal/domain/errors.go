package domain

import "errors"

// Pipeline errors. Both abort the operation that raised them; implausible
// values (negative durations, extreme ages) are never errors.
var (
	// ErrMalformedInput is returned when a record lacks a required field.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInvalidConfiguration is returned for out-of-range parameters,
	// before any computation starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
