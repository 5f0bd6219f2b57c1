package domain

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/yndnr/vftledger-go/pkg/num"
)

// AccountIDSize is the byte length of an account identifier.
const AccountIDSize = 32

// AccountID identifies a ledger account. The zero AccountID is the burn
// account: transfers to it destroy value.
type AccountID [AccountIDSize]byte

// BurnAccount is the designated zero account.
var BurnAccount AccountID

// Account is an AccountID proven not to be the burn account.
type Account = num.NonZero[AccountID]

// NewAccount wraps id, failing with num.ErrZero for the burn account.
func NewAccount(id AccountID) (Account, error) {
	return num.NewNonZero(id)
}

// DeriveAccountID derives a stable identifier from a human name using
// BLAKE2b-256. It is intended for operators and tests.
func DeriveAccountID(name string) AccountID {
	return AccountID(blake2b.Sum256([]byte(name)))
}

// ParseAccountID parses a 0x-prefixed hex string or a base58 string.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	var raw []byte
	var err error

	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		raw, err = hex.DecodeString(rest)
	} else {
		raw, err = base58.Decode(s)
	}
	if err != nil {
		return id, ErrInvalidAccount.WithDetails(s).WithCause(err)
	}
	if len(raw) != AccountIDSize {
		return id, ErrInvalidAccount.WithDetails(fmt.Sprintf("%s: %d bytes, want %d", s, len(raw), AccountIDSize))
	}
	copy(id[:], raw)
	return id, nil
}

// IsZero reports whether a is the burn account.
func (a AccountID) IsZero() bool {
	return a == BurnAccount
}

// Compare orders account identifiers by their bytes.
func (a AccountID) Compare(b AccountID) int {
	return bytes.Compare(a[:], b[:])
}

// String returns the base58 form.
func (a AccountID) String() string {
	return base58.Encode(a[:])
}

// Hex returns the 0x-prefixed hex form.
func (a AccountID) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText encodes the base58 form.
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText accepts hex or base58.
func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// MarshalBinary returns the raw 32 bytes.
func (a AccountID) MarshalBinary() ([]byte, error) {
	return a[:], nil
}

// UnmarshalBinary accepts exactly 32 bytes.
func (a *AccountID) UnmarshalBinary(data []byte) error {
	if len(data) != AccountIDSize {
		return fmt.Errorf("account id: %w: got %d bytes", num.ErrInvalidLength, len(data))
	}
	copy(a[:], data)
	return nil
}

// MarshalCBOR encodes the account as a 32-byte CBOR byte string.
func (a AccountID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a[:])
}

// UnmarshalCBOR decodes a 32-byte CBOR byte string.
func (a *AccountID) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	return a.UnmarshalBinary(raw)
}
