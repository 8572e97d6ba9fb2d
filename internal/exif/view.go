package exif

import "encoding/binary"

// view is a bounds-checked window over a byte slice. Offsets are relative to
// the start of the window; every read reports whether it stayed in range.
type view struct {
	buf   []byte
	order binary.ByteOrder
}

func (v view) bytes(off, n uint32) ([]byte, bool) {
	end := uint64(off) + uint64(n)
	if end > uint64(len(v.buf)) {
		return nil, false
	}
	return v.buf[off:end], true
}

func (v view) u16(off uint32) (uint16, bool) {
	b, ok := v.bytes(off, 2)
	if !ok {
		return 0, false
	}
	return v.order.Uint16(b), true
}

func (v view) u32(off uint32) (uint32, bool) {
	b, ok := v.bytes(off, 4)
	if !ok {
		return 0, false
	}
	return v.order.Uint32(b), true
}

// rational reads an unsigned numerator/denominator pair. A zero denominator
// evaluates to 0.
func (v view) rational(off uint32) (float64, bool) {
	num, ok := v.u32(off)
	if !ok {
		return 0, false
	}
	den, ok := v.u32(off + 4)
	if !ok {
		return 0, false
	}
	if den == 0 {
		return 0, true
	}
	return float64(num) / float64(den), true
}
