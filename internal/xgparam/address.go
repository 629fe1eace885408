package xgparam

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// AddressKey is the three-byte XG parameter address.
//
// Format: High/Mid/Low, each byte rendered as two hex digits.
//   - High: category (00 system, 02 effect, 08 multi part, 3n drum setup)
//   - Mid:  group within the category (effect block, part, drum note)
//   - Low:  parameter within the group
//
// AddressKey is comparable and is used directly as a map key.
type AddressKey struct {
	High uint8
	Mid  uint8
	Low  uint8
}

// addressLevelCount is the number of bytes in an address.
const addressLevelCount = 3

// Address builds an AddressKey from its three bytes.
func Address(high, mid, low uint8) AddressKey {
	return AddressKey{High: high, Mid: mid, Low: low}
}

// ParseAddressKey parses an address string.
//
// Accepts formats:
//   - "02/01/0C": hex bytes separated by '/', ':', '-', '.' or space
//   - "02010C":   six hex digits
//
// Parameters:
//   - s: Address string
//
// Returns:
//   - AddressKey: Parsed address
//   - error: ErrInvalidAddress if parsing fails
func ParseAddressKey(s string) (AddressKey, error) {
	s = strings.TrimSpace(s)
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ':' || r == '-' || r == '.' || r == ' '
	})

	if len(parts) == 1 {
		if len(s) != addressLevelCount*2 {
			return AddressKey{}, fmt.Errorf("%w: expected 6 hex digits, got %q", ErrInvalidAddress, s)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return AddressKey{}, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
		}
		return Address(b[0], b[1], b[2]), nil
	}

	if len(parts) != addressLevelCount {
		return AddressKey{}, fmt.Errorf("%w: expected high/mid/low, got %q", ErrInvalidAddress, s)
	}

	var b [addressLevelCount]uint8
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return AddressKey{}, fmt.Errorf("%w: byte %d must be hex 00-FF, got %q", ErrInvalidAddress, i, part)
		}
		b[i] = uint8(v)
	}

	return Address(b[0], b[1], b[2]), nil
}

// String returns the address as "HH/MM/LL".
func (k AddressKey) String() string {
	return fmt.Sprintf("%02X/%02X/%02X", k.High, k.Mid, k.Low)
}

// Hex returns the address as six hex digits, safe for URLs and MQTT topics.
//
// Example: "02010C"
func (k AddressKey) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", k.High, k.Mid, k.Low)
}

// Bytes returns the address in wire order.
func (k AddressKey) Bytes() [3]byte {
	return [3]byte{k.High, k.Mid, k.Low}
}

// Hash returns the 16-bit hash used by XG editors to bucket addresses.
// It is stable across runs and suitable for sharding.
func (k AddressKey) Hash() uint16 {
	return ((uint16(k.High) << 7) + uint16(k.Mid)) ^ uint16(k.Low)
}

// Offset returns the address n parameter slots after k, carrying from
// Low into Mid in 7-bit steps as XG bulk dumps do.
func (k AddressKey) Offset(n int) AddressKey {
	v := int(k.Mid)<<7 | int(k.Low&0x7F)
	v += n
	return Address(k.High, uint8((v>>7)&0x7F), uint8(v&0x7F)) //nolint:gosec // masked to 7 bits
}
