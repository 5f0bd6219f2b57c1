package num

import (
	"encoding"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Zeroer reports whether a value is the zero value of its type.
type Zeroer interface {
	IsZero() bool
}

// Number is the arithmetic a NonZero needs from its inner type.
type Number[T any] interface {
	Zeroer
	CheckedAdd(T) (T, bool)
	CheckedSub(T) (T, bool)
}

// NonZero holds a value proven to be non-zero. The zero value of NonZero
// itself is invalid and is only produced by failed constructors.
type NonZero[T Zeroer] struct {
	v T
}

// NewNonZero wraps v, failing with ErrZero if v is zero.
func NewNonZero[T Zeroer](v T) (NonZero[T], error) {
	if v.IsZero() {
		return NonZero[T]{}, ErrZero
	}
	return NonZero[T]{v: v}, nil
}

// MustNonZero is like NewNonZero but panics on zero.
func MustNonZero[T Zeroer](v T) NonZero[T] {
	n, err := NewNonZero(v)
	if err != nil {
		panic(err)
	}
	return n
}

// Get returns the wrapped value.
func (n NonZero[T]) Get() T {
	return n.v
}

// IsZero reports whether n is the invalid zero NonZero.
func (n NonZero[T]) IsZero() bool {
	return n.v.IsZero()
}

// String formats the wrapped value.
func (n NonZero[T]) String() string {
	return fmt.Sprint(n.v)
}

// TryAdd returns n+x. It fails with ErrOverflow when the sum does not fit.
func TryAdd[T Number[T]](n NonZero[T], x T) (NonZero[T], error) {
	sum, ok := n.v.CheckedAdd(x)
	if !ok {
		return NonZero[T]{}, ErrOverflow
	}
	return NewNonZero(sum)
}

// TrySub returns n-x. It fails with ErrUnderflow when x > n and with
// ErrZero when the result is exactly zero, so callers can tell "remove the
// entry" apart from "not enough".
func TrySub[T Number[T]](n NonZero[T], x T) (NonZero[T], error) {
	diff, ok := n.v.CheckedSub(x)
	if !ok {
		return NonZero[T]{}, ErrUnderflow
	}
	return NewNonZero(diff)
}

// MarshalBinary encodes the wrapped value.
func (n NonZero[T]) MarshalBinary() ([]byte, error) {
	m, ok := any(n.v).(encoding.BinaryMarshaler)
	if !ok {
		return nil, fmt.Errorf("num: %T does not support binary encoding", n.v)
	}
	return m.MarshalBinary()
}

// UnmarshalBinary decodes the wrapped value and rejects zero.
func (n *NonZero[T]) UnmarshalBinary(data []byte) error {
	var v T
	u, ok := any(&v).(encoding.BinaryUnmarshaler)
	if !ok {
		return fmt.Errorf("num: %T does not support binary decoding", v)
	}
	if err := u.UnmarshalBinary(data); err != nil {
		return err
	}
	return n.set(v)
}

// MarshalCBOR encodes the wrapped value.
func (n NonZero[T]) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(n.v)
}

// UnmarshalCBOR decodes the wrapped value and rejects zero.
func (n *NonZero[T]) UnmarshalCBOR(data []byte) error {
	var v T
	if err := cbor.Unmarshal(data, &v); err != nil {
		return err
	}
	return n.set(v)
}

func (n *NonZero[T]) set(v T) error {
	if v.IsZero() {
		return ErrZero
	}
	n.v = v
	return nil
}
