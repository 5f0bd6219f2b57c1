package num

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MarshalBinary encodes u as exactly W.Bytes() little-endian bytes.
func (u Uint[W]) MarshalBinary() ([]byte, error) {
	return u.AppendBinary(make([]byte, 0, bytesOf[W]()))
}

// AppendBinary appends the little-endian encoding of u to b.
func (u Uint[W]) AppendBinary(b []byte) ([]byte, error) {
	n := bytesOf[W]()
	for i := 0; i < n; i++ {
		b = append(b, byte(u.v[i/8]>>(8*(i%8))))
	}
	return b, nil
}

// UnmarshalBinary decodes exactly W.Bytes() little-endian bytes.
func (u *Uint[W]) UnmarshalBinary(data []byte) error {
	n := bytesOf[W]()
	if len(data) != n {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(data), n)
	}
	u.v.Clear()
	for i, c := range data {
		u.v[i/8] |= uint64(c) << (8 * (i % 8))
	}
	return nil
}

// MarshalCBOR encodes u as a CBOR byte string holding its binary form.
func (u Uint[W]) MarshalCBOR() ([]byte, error) {
	b, _ := u.MarshalBinary()
	return cbor.Marshal(b)
}

// UnmarshalCBOR decodes a CBOR byte string produced by MarshalCBOR.
func (u *Uint[W]) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("num: decode cbor: %w", err)
	}
	return u.UnmarshalBinary(b)
}

// MarshalText encodes u in decimal.
func (u Uint[W]) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText decodes a decimal string.
func (u *Uint[W]) UnmarshalText(text []byte) error {
	v, err := ParseDecimal[W](string(text))
	if err != nil {
		return err
	}
	*u = v
	return nil
}
