package ledger

import (
	"errors"
	"fmt"

	"github.com/yndnr/vftledger-go/pkg/num"
)

var (
	// ErrBelowMinimum is returned when a new or grown balance would be
	// under the minimum balance.
	ErrBelowMinimum = errors.New("ledger: balance below minimum")

	// ErrInsufficientBalance is returned when a burn or transfer exceeds
	// the balance. It matches num.ErrUnderflow.
	ErrInsufficientBalance = fmt.Errorf("ledger: insufficient balance: %w", num.ErrUnderflow)

	// ErrInsufficientAllowance is returned when a spend exceeds the
	// allowance. It matches num.ErrUnderflow.
	ErrInsufficientAllowance = fmt.Errorf("ledger: insufficient allowance: %w", num.ErrUnderflow)

	// ErrOverflow is returned when a balance, the total supply or the
	// unused amount would exceed its range. It matches num.ErrOverflow.
	ErrOverflow = fmt.Errorf("ledger: %w", num.ErrOverflow)

	// ErrCorruptState is returned by restore functions when state breaks
	// a ledger invariant.
	ErrCorruptState = errors.New("ledger: corrupt state")
)

// mapError wraps a shardmap error so both the ledger context and the
// shardmap sentinel are visible to errors.Is.
func mapError(op string, err error) error {
	return fmt.Errorf("ledger: %s: %w", op, err)
}
