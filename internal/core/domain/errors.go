package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business error with a structured error code.
// Codes have the form VL-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "VL-BAL-4220")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Balance Errors (BAL)
// ============================================================================

var (
	// ErrInsufficientBalance indicates a burn or transfer exceeds the balance.
	ErrInsufficientBalance = NewDomainError("VL-BAL-4220", "insufficient balance")

	// ErrBelowMinimum indicates a resulting balance is under the minimum balance.
	ErrBelowMinimum = NewDomainError("VL-BAL-4221", "balance below minimum")

	// ErrNumericOverflow indicates a balance, supply or conversion overflow.
	ErrNumericOverflow = NewDomainError("VL-BAL-4222", "numeric overflow")
)

// ============================================================================
// Allowance Errors (ALW)
// ============================================================================

var (
	// ErrInsufficientAllowance indicates a spend exceeds the allowance.
	ErrInsufficientAllowance = NewDomainError("VL-ALW-4220", "insufficient allowance")

	// ErrAllowanceNotFound indicates no allowance exists for the pair.
	ErrAllowanceNotFound = NewDomainError("VL-ALW-4040", "allowance not found")

	// ErrAllowanceNotExpired indicates the allowance cannot be purged yet.
	ErrAllowanceNotExpired = NewDomainError("VL-ALW-4090", "allowance not expired")
)

// ============================================================================
// Validation Errors (VAL)
// ============================================================================

var (
	// ErrInvalidAccount indicates an account identifier could not be parsed.
	ErrInvalidAccount = NewDomainError("VL-VAL-4000", "invalid account")

	// ErrZeroAccount indicates the burn account was used where a real account is required.
	ErrZeroAccount = NewDomainError("VL-VAL-4001", "zero account not allowed")

	// ErrInvalidAmount indicates an amount could not be parsed or was zero.
	ErrInvalidAmount = NewDomainError("VL-VAL-4002", "invalid amount")

	// ErrInvalidMetadata indicates token metadata with an empty name or
	// symbol, or too many decimals.
	ErrInvalidMetadata = NewDomainError("VL-VAL-4003", "invalid metadata")
)

// ============================================================================
// Storage Errors (STO)
// ============================================================================

var (
	// ErrCapacityOverflow indicates no shard has room for a new entry.
	ErrCapacityOverflow = NewDomainError("VL-STO-5070", "storage capacity exhausted")

	// ErrInvalidCapacity indicates a shard capacity violates the shape rule.
	ErrInvalidCapacity = NewDomainError("VL-STO-4000", "invalid shard capacity")

	// ErrBorrowConflict indicates the storage handle is already borrowed.
	ErrBorrowConflict = NewDomainError("VL-STO-4090", "storage busy, please retry")

	// ErrStorageError indicates a persistence failure.
	ErrStorageError = NewDomainError("VL-STO-5001", "storage error")
)

// ============================================================================
// Access Errors (ACC)
// ============================================================================

var (
	// ErrPermissionDenied indicates the caller lacks the required role.
	ErrPermissionDenied = NewDomainError("VL-ACC-4030", "permission denied")

	// ErrPaused indicates mutations are disabled by the pause switch.
	ErrPaused = NewDomainError("VL-ACC-5030", "ledger paused")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternal indicates an unexpected internal error.
	ErrInternal = NewDomainError("VL-SYS-5000", "internal error")
)
