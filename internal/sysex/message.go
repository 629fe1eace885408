package sysex

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// Wire constants.
const (
	manufacturerYamaha = 0x43
	modelXG            = 0x4C

	statusBulkDump    = 0x00
	statusChange      = 0x10
	statusBulkRequest = 0x20
	statusRequest     = 0x30

	// MaxDevice is the highest XG device number.
	MaxDevice = 0x0F

	// MaxBulkData is the largest data block a bulk dump count can carry.
	MaxBulkData = 0x3FFF

	headerLen = 3
)

// System addresses that trigger device-wide resets.
var (
	SystemOnAddress = xgparam.Address(0x00, 0x00, 0x7E)
	AllResetAddress = xgparam.Address(0x00, 0x00, 0x7F)
)

// Kind classifies an XG message.
type Kind uint8

// Message kinds.
const (
	KindParameterChange Kind = iota + 1
	KindParameterRequest
	KindBulkDump
	KindBulkRequest
	KindSystemOn
	KindAllReset
)

var kindNames = map[Kind]string{
	KindParameterChange:  "parameter change",
	KindParameterRequest: "parameter request",
	KindBulkDump:         "bulk dump",
	KindBulkRequest:      "bulk request",
	KindSystemOn:         "system on",
	KindAllReset:         "all parameter reset",
}

// String returns a readable name for the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Message is a parsed XG message. Data holds the parameter bytes of a
// change or the data block of a bulk dump.
type Message struct {
	Kind    Kind
	Device  uint8
	Address xgparam.AddressKey
	Data    []byte
}

func header(status, device uint8) []byte {
	return []byte{manufacturerYamaha, status | device&MaxDevice, modelXG}
}

func withAddress(b []byte, k xgparam.AddressKey) []byte {
	return append(b, k.High, k.Mid, k.Low)
}

// ParameterChange returns the Parameter Change message carrying the
// current value of p.
func ParameterChange(device uint8, p *xgparam.Parameter) (midi.Message, error) {
	return ParameterChangeValue(device, p, p.Value())
}

// ParameterChangeValue returns the Parameter Change message that sets p
// to u. The value is encoded with p's width and packing.
func ParameterChangeValue(device uint8, p *xgparam.Parameter, u uint32) (midi.Message, error) {
	if !p.InRange(u) {
		return nil, fmt.Errorf("%w: %s: %d not in [%d, %d]", xgparam.ErrOutOfRange, p, u, p.Min(), p.Max())
	}
	data := make([]byte, p.Size())
	if err := p.Encode(data, 0, u); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", p, err)
	}
	if err := checkData(data); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", p, err)
	}
	return RawChange(device, p.Key(), data), nil
}

// checkData rejects bytes with the high bit set, which would end the
// system exclusive message early.
func checkData(data []byte) error {
	for i, c := range data {
		if c > 0x7F {
			return fmt.Errorf("%w: data byte %02X at %d", ErrMalformed, c, i)
		}
	}
	return nil
}

// RawChange returns a Parameter Change message with literal data bytes.
func RawChange(device uint8, k xgparam.AddressKey, data []byte) midi.Message {
	b := withAddress(header(statusChange, device), k)
	return midi.SysEx(append(b, data...))
}

// Request returns the Parameter Request message for address k.
func Request(device uint8, k xgparam.AddressKey) midi.Message {
	return midi.SysEx(withAddress(header(statusRequest, device), k))
}

// BulkRequest returns the Bulk Dump Request message for the block at k.
func BulkRequest(device uint8, k xgparam.AddressKey) midi.Message {
	return midi.SysEx(withAddress(header(statusBulkRequest, device), k))
}

// SystemOn returns the XG System On message.
func SystemOn(device uint8) midi.Message {
	return RawChange(device, SystemOnAddress, []byte{0x00})
}

// AllReset returns the XG All Parameter Reset message.
func AllReset(device uint8) midi.Message {
	return RawChange(device, AllResetAddress, []byte{0x00})
}

// Parse decodes an XG message.
//
// Returns:
//   - *Message: The decoded message
//   - error: ErrNotXG for other manufacturers and models, ErrMalformed
//     for bad layouts, ErrChecksum for corrupt bulk dumps
func Parse(msg midi.Message) (*Message, error) {
	var b []byte
	if !msg.GetSysEx(&b) {
		return nil, ErrNotXG
	}
	if len(b) < headerLen || b[0] != manufacturerYamaha || b[2] != modelXG {
		return nil, ErrNotXG
	}
	for i, c := range b {
		if c > 0x7F {
			return nil, fmt.Errorf("%w: status byte %02X at %d", ErrMalformed, c, i)
		}
	}

	m := &Message{Device: b[1] & MaxDevice}
	body := b[headerLen:]

	switch b[1] & 0x70 {
	case statusChange:
		if len(body) < 4 {
			return nil, fmt.Errorf("%w: parameter change without data", ErrMalformed)
		}
		m.Kind = KindParameterChange
		m.Address = xgparam.Address(body[0], body[1], body[2])
		m.Data = append([]byte(nil), body[3:]...)
		switch m.Address {
		case SystemOnAddress:
			m.Kind = KindSystemOn
		case AllResetAddress:
			m.Kind = KindAllReset
		}

	case statusRequest, statusBulkRequest:
		if len(body) != 3 {
			return nil, fmt.Errorf("%w: request of %d bytes", ErrMalformed, len(body))
		}
		m.Kind = KindParameterRequest
		if b[1]&0x70 == statusBulkRequest {
			m.Kind = KindBulkRequest
		}
		m.Address = xgparam.Address(body[0], body[1], body[2])

	case statusBulkDump:
		if len(body) < 6 {
			return nil, fmt.Errorf("%w: bulk dump too short", ErrMalformed)
		}
		count := int(body[0])<<7 | int(body[1])
		if len(body) != 2+3+count+1 {
			return nil, fmt.Errorf("%w: bulk dump count %d does not match %d data bytes",
				ErrMalformed, count, len(body)-6)
		}
		if Checksum(body) != 0 {
			return nil, ErrChecksum
		}
		m.Kind = KindBulkDump
		m.Address = xgparam.Address(body[2], body[3], body[4])
		m.Data = append([]byte(nil), body[5:5+count]...)

	default:
		return nil, fmt.Errorf("%w: unsupported status %02X", ErrMalformed, b[1])
	}
	return m, nil
}
