package sysex

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// Checksum returns the Yamaha checksum of b: the value that makes the low
// seven bits of the sum of b and the checksum zero. Checksum of a block
// that already ends with its checksum is 0.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum += c
	}
	return -sum & 0x7F
}

// BulkDump returns a Bulk Dump message carrying data for the block that
// starts at k.
func BulkDump(device uint8, k xgparam.AddressKey, data []byte) (midi.Message, error) {
	if len(data) > MaxBulkData {
		return nil, fmt.Errorf("%w: %d data bytes exceed bulk count", ErrMalformed, len(data))
	}
	if err := checkData(data); err != nil {
		return nil, err
	}
	body := []byte{byte(len(data) >> 7), byte(len(data) & 0x7F)} //nolint:gosec // bounded by MaxBulkData
	body = withAddress(body, k)
	body = append(body, data...)
	body = append(body, Checksum(body))

	return midi.SysEx(append(header(statusBulkDump, device), body...)), nil
}

// BlockData encodes size bytes of registry state starting at k. Bytes no
// parameter covers are zero. A parameter that would run past the end of
// the block is left out.
func BlockData(r *xgparam.Registry, k xgparam.AddressKey, size int) []byte {
	data := make([]byte, size)
	for off := 0; off < size; {
		p := r.FindParameter(k.Offset(off))
		if p == nil || off+p.Size() > size {
			off++
			continue
		}
		copy(data[off:], p.Data())
		off += p.Size()
	}
	return data
}

// BulkDumpRange returns a Bulk Dump of size bytes of registry state
// starting at k.
func BulkDumpRange(device uint8, r *xgparam.Registry, k xgparam.AddressKey, size int) (midi.Message, error) {
	return BulkDump(device, k, BlockData(r, k, size))
}
