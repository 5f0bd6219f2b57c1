package domain

import (
	"github.com/holiman/uint256"

	"github.com/yndnr/vftledger-go/pkg/num"
)

// Deployment widths.
type (
	// BalanceWidth is the stored width of a balance: 80 bits.
	BalanceWidth = num.W80
	// AllowanceWidth is the stored width of an allowance: 72 bits.
	AllowanceWidth = num.W72
)

// Balance is a stored account balance.
type Balance = num.Uint[BalanceWidth]

// Allowance is a stored allowance amount. Max is the infinite allowance.
type Allowance = num.Uint[AllowanceWidth]

// BlockNumber is a position on the host's block clock.
type BlockNumber = uint32

// ParseAmount parses a decimal amount into a wide integer.
func ParseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, ErrInvalidAmount.WithDetails(s).WithCause(err)
	}
	return v, nil
}

// AllowanceFromBalance converts a balance amount into an allowance
// amount, saturating to the infinite allowance.
func AllowanceFromBalance(b Balance) Allowance {
	a, err := num.Resize[AllowanceWidth](b)
	if err != nil {
		return num.Max[AllowanceWidth]()
	}
	return a
}

// AllowanceToWide widens an allowance for the public boundary. The
// infinite allowance is reported as the largest 256-bit value.
func AllowanceToWide(a Allowance) *uint256.Int {
	if a.IsMax() {
		return new(uint256.Int).SetAllOne()
	}
	return a.Uint256()
}
