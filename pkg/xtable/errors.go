package xtable

import "errors"

var (
	// ErrResourceExhausted is returned when no free id exists in the requested range.
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrNotFound is returned when an id, or an id/mark combination, is not present.
	ErrNotFound = errors.New("not found")
)
