package domain

import "fmt"

// Default token metadata.
const (
	DefaultName     = "Unit"
	DefaultSymbol   = "UNIT"
	DefaultDecimals = 12
)

// MaxDecimals is the largest decimals value a 256-bit amount can display:
// 10^77 is the largest power of ten below 2^256.
const MaxDecimals = 77

// Metadata describes the token for display. It never affects ledger
// arithmetic.
type Metadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// DefaultMetadata returns the metadata used when none is configured.
func DefaultMetadata() Metadata {
	return Metadata{Name: DefaultName, Symbol: DefaultSymbol, Decimals: DefaultDecimals}
}

// Validate checks that name and symbol are set and decimals is displayable.
func (m Metadata) Validate() error {
	switch {
	case m.Name == "":
		return ErrInvalidMetadata.WithDetails("empty name")
	case m.Symbol == "":
		return ErrInvalidMetadata.WithDetails("empty symbol")
	case m.Decimals > MaxDecimals:
		return ErrInvalidMetadata.WithDetails(fmt.Sprintf("decimals %d exceeds %d", m.Decimals, MaxDecimals))
	}
	return nil
}
