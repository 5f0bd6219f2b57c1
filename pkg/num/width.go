package num

// Width names the byte width of a Uint. Implementations are zero-size
// types whose Bytes method returns a constant in [1, 32].
type Width interface {
	Bytes() int
}

// Supported widths.
type (
	W8   struct{}
	W16  struct{}
	W32  struct{}
	W64  struct{}
	W72  struct{}
	W80  struct{}
	W96  struct{}
	W128 struct{}
	W256 struct{}
)

func (W8) Bytes() int   { return 1 }
func (W16) Bytes() int  { return 2 }
func (W32) Bytes() int  { return 4 }
func (W64) Bytes() int  { return 8 }
func (W72) Bytes() int  { return 9 }
func (W80) Bytes() int  { return 10 }
func (W96) Bytes() int  { return 12 }
func (W128) Bytes() int { return 16 }
func (W256) Bytes() int { return 32 }

// maxBytes is the widest supported encoding.
const maxBytes = 32

func bytesOf[W Width]() int {
	var w W
	n := w.Bytes()
	if n < 1 || n > maxBytes {
		panic("num: width out of range")
	}
	return n
}
