package num

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Uint is an unsigned integer of exactly W.Bytes() bytes.
//
// The zero value is 0. Uint is comparable, so == compares values.
type Uint[W Width] struct {
	v uint256.Int
}

// Zero returns 0.
func Zero[W Width]() Uint[W] {
	return Uint[W]{}
}

// Min returns the smallest value, which is 0.
func Min[W Width]() Uint[W] {
	return Uint[W]{}
}

// One returns 1.
func One[W Width]() Uint[W] {
	var u Uint[W]
	u.v.SetOne()
	return u
}

// Max returns the largest value representable in W.Bytes() bytes.
func Max[W Width]() Uint[W] {
	var u Uint[W]
	n := bytesOf[W]()
	if n == maxBytes {
		u.v.SetAllOne()
		return u
	}
	u.v.SetOne()
	u.v.Lsh(&u.v, uint(n*8))
	u.v.Sub(&u.v, uint256.NewInt(1))
	return u
}

// FromUint64 converts x, failing with ErrOverflow if it does not fit.
func FromUint64[W Width](x uint64) (Uint[W], error) {
	return FromUint256[W](uint256.NewInt(x))
}

// MustFromUint64 is like FromUint64 but panics on overflow.
// It is intended for constants and tests.
func MustFromUint64[W Width](x uint64) Uint[W] {
	u, err := FromUint64[W](x)
	if err != nil {
		panic(err)
	}
	return u
}

// FromUint256 converts a wide integer, failing with ErrOverflow if any
// byte above W.Bytes() is non-zero.
func FromUint256[W Width](x *uint256.Int) (Uint[W], error) {
	if x.BitLen() > bytesOf[W]()*8 {
		return Uint[W]{}, ErrOverflow
	}
	var u Uint[W]
	u.v.Set(x)
	return u, nil
}

// FromUint256Saturating converts a wide integer, returning Max when it
// does not fit.
func FromUint256Saturating[W Width](x *uint256.Int) Uint[W] {
	u, err := FromUint256[W](x)
	if err != nil {
		return Max[W]()
	}
	return u
}

// FromBig converts a big integer. Negative values fail with ErrUnderflow.
func FromBig[W Width](x *big.Int) (Uint[W], error) {
	if x.Sign() < 0 {
		return Uint[W]{}, ErrUnderflow
	}
	wide, overflow := uint256.FromBig(x)
	if overflow {
		return Uint[W]{}, ErrOverflow
	}
	return FromUint256[W](wide)
}

// ParseDecimal parses a base-10 string.
func ParseDecimal[W Width](s string) (Uint[W], error) {
	wide, err := uint256.FromDecimal(s)
	if err != nil {
		if errors.Is(err, uint256.ErrBig256Range) {
			return Uint[W]{}, ErrOverflow
		}
		return Uint[W]{}, fmt.Errorf("num: parse %q: %w", s, err)
	}
	return FromUint256[W](wide)
}

// Resize converts u to another width. Widening always succeeds; narrowing
// fails with ErrOverflow if a truncated high byte is non-zero.
func Resize[To, From Width](u Uint[From]) (Uint[To], error) {
	return FromUint256[To](&u.v)
}

// Width returns the encoded size in bytes.
func (u Uint[W]) Width() int {
	return bytesOf[W]()
}

// Bits returns the width in bits.
func (u Uint[W]) Bits() int {
	return bytesOf[W]() * 8
}

// Uint256 returns the value as a newly allocated wide integer.
func (u Uint[W]) Uint256() *uint256.Int {
	return new(uint256.Int).Set(&u.v)
}

// Big returns the value as a big integer.
func (u Uint[W]) Big() *big.Int {
	return u.v.ToBig()
}

// Uint64 returns the value and whether it fits in a uint64.
func (u Uint[W]) Uint64() (uint64, bool) {
	return u.v.Uint64(), u.v.IsUint64()
}

// CheckedAdd returns u+x and true, or zero and false on overflow.
func (u Uint[W]) CheckedAdd(x Uint[W]) (Uint[W], bool) {
	var r Uint[W]
	if _, overflow := r.v.AddOverflow(&u.v, &x.v); overflow {
		return Uint[W]{}, false
	}
	if r.v.BitLen() > bytesOf[W]()*8 {
		return Uint[W]{}, false
	}
	return r, true
}

// CheckedSub returns u-x and true, or zero and false on underflow.
func (u Uint[W]) CheckedSub(x Uint[W]) (Uint[W], bool) {
	var r Uint[W]
	if _, underflow := r.v.SubOverflow(&u.v, &x.v); underflow {
		return Uint[W]{}, false
	}
	return r, true
}

// Cmp compares u and x and returns -1, 0 or +1. The order matches
// comparing the little-endian encodings from the most significant byte.
func (u Uint[W]) Cmp(x Uint[W]) int {
	return u.v.Cmp(&x.v)
}

// Lt reports whether u < x.
func (u Uint[W]) Lt(x Uint[W]) bool { return u.v.Lt(&x.v) }

// Gt reports whether u > x.
func (u Uint[W]) Gt(x Uint[W]) bool { return u.v.Gt(&x.v) }

// IsZero reports whether u == 0.
func (u Uint[W]) IsZero() bool { return u.v.IsZero() }

// IsMax reports whether u is the largest representable value.
func (u Uint[W]) IsMax() bool { return u == Max[W]() }

// String returns the decimal representation.
func (u Uint[W]) String() string {
	return u.v.Dec()
}
