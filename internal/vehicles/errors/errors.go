package errors

import "errors"

var (
	ErrNotFound = errors.New("vehicle not found")

	ErrInvalidID = errors.New("invalid vehicle ID format")

	// ErrStaleReading means a travelled-distance advance lost to a concurrent
	// writer that already moved the watermark past the reading.
	ErrStaleReading = errors.New("odometer reading is behind the vehicle's travelled distance")
)
