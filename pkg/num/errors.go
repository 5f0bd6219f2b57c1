package num

import "errors"

// Sentinel errors returned by numeric operations.
var (
	// ErrOverflow is returned when a result exceeds the representable range.
	ErrOverflow = errors.New("num: overflow")

	// ErrUnderflow is returned when a subtraction goes below zero.
	ErrUnderflow = errors.New("num: underflow")

	// ErrZero is returned when a non-zero value is required.
	ErrZero = errors.New("num: zero value")

	// ErrInvalidLength is returned when an encoding has the wrong byte length.
	ErrInvalidLength = errors.New("num: invalid encoded length")
)
