package sysex

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

const (
	sysExStart = 0xF0
	sysExEnd   = 0xF7
)

// SplitSysEx splits a byte stream, such as a .syx file, into system
// exclusive messages. Bytes outside F0..F7 frames are ignored and an
// unterminated frame is dropped.
func SplitSysEx(data []byte) []midi.Message {
	var out []midi.Message
	start := -1
	for i, c := range data {
		switch {
		case c == sysExStart:
			start = i
		case c == sysExEnd && start >= 0:
			out = append(out, midi.Message(append([]byte(nil), data[start:i+1]...)))
			start = -1
		}
	}
	return out
}

// Dump encodes the current state of r as one Parameter Change per
// parameter. Key parameters precede the effect parameters that depend on
// them, so replaying the messages in order reproduces the state.
func Dump(device uint8, r *xgparam.Registry) ([]midi.Message, error) {
	params := r.CurrentParameters()
	out := make([]midi.Message, 0, len(params))
	for _, p := range params {
		msg, err := ParameterChange(device, p)
		if err != nil {
			return nil, fmt.Errorf("dumping %s: %w", p, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// Join concatenates messages into a .syx byte stream.
func Join(msgs []midi.Message) []byte {
	var n int
	for _, m := range msgs {
		n += len(m)
	}
	out := make([]byte, 0, n)
	for _, m := range msgs {
		out = append(out, m.Bytes()...)
	}
	return out
}
