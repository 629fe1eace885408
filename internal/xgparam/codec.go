package xgparam

import "fmt"

// maxWidth is the widest value a raw uint32 can carry in 8-bit packing.
const maxWidth = 4

// encodeValue writes u into buf[off:off+size] using the given packing.
func encodeValue(buf []byte, off, size int, packing Packing, u uint32) error {
	if err := checkSlice(buf, off, size); err != nil {
		return err
	}

	bits := packing.bits()
	if total := bits * uint(size); total < 32 && u >= 1<<total {
		return fmt.Errorf("%w: %d does not fit in %d %s bytes", ErrOutOfRange, u, size, packing)
	}

	mask := uint32(1)<<bits - 1
	for i := size - 1; i >= 0; i-- {
		buf[off+i] = byte(u & mask) //nolint:gosec // masked to packing width
		u >>= bits
	}
	return nil
}

// decodeValue reads buf[off:off+size] using the given packing. Bits above
// the packing width in each byte are ignored.
func decodeValue(buf []byte, off, size int, packing Packing) (uint32, error) {
	if err := checkSlice(buf, off, size); err != nil {
		return 0, err
	}

	bits := packing.bits()
	mask := byte(1)<<bits - 1
	if bits == 8 {
		mask = 0xFF
	}

	var u uint32
	for i := range size {
		u = u<<bits | uint32(buf[off+i]&mask)
	}
	return u, nil
}

func checkSlice(buf []byte, off, size int) error {
	if size < 1 || size > maxWidth {
		return fmt.Errorf("%w: unsupported width %d", ErrOutOfRange, size)
	}
	if off < 0 || off+size > len(buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, size, off, len(buf))
	}
	return nil
}
