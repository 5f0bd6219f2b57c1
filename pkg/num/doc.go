// Package num provides fixed-width unsigned integers for ledger amounts.
//
// A Uint[W] holds a value of exactly W.Bytes() bytes. Arithmetic is checked
// and never wraps; conversions into a narrower width fail with ErrOverflow
// when a truncated high byte is non-zero.
//
// Features:
//
//   - Checked Arithmetic: CheckedAdd and CheckedSub report overflow/underflow
//   - Exact Encoding: binary and CBOR forms are exactly W.Bytes() bytes, little-endian
//   - Resizing: Resize widens losslessly and narrows with a high-byte check
//   - NonZero: a wrapper proving the value is non-zero
//
// Usage:
//
//	v, err := num.FromUint64[num.W80](100)
//	sum, ok := v.CheckedAdd(num.One[num.W80]())
//	amount, err := num.NewNonZero(sum)
package num
