package xgdata

import "github.com/nerrad567/xgparam-core/internal/xgparam"

// Multi part addresses with per-part defaults.
const (
	partBankMSB    = 0x01
	partRcvChannel = 0x04
	partMode       = 0x07

	// drumPart is the part XG assigns to drums after a reset.
	drumPart    = 9
	drumBankMSB = 127
)

// multiPartItems describes one multi part, 08 pp xx.
func multiPartItems() []xgparam.Item {
	centered := func(id uint8, name string) xgparam.Item {
		return xgparam.Item{ID: id, Size: 1, Min: 0, Max: 127, Name: name, Default: 64, Conv: convCenter64}
	}
	return []xgparam.Item{
		{ID: 0x00, Size: 1, Min: 0, Max: 32, Name: "Element Reserve", Default: 2},
		{ID: partBankMSB, Size: 1, Min: 0, Max: 127, Name: "Bank Select MSB", Default: 0},
		{ID: 0x02, Size: 1, Min: 0, Max: 127, Name: "Bank Select LSB", Default: 0},
		{ID: 0x03, Size: 1, Min: 0, Max: 127, Name: "Program Number", Default: 0, Conv: convProgram},
		{ID: partRcvChannel, Size: 1, Min: 0, Max: 0x7F, Name: "Receive Channel", Default: 0, Enum: enumChannel},
		{ID: 0x05, Size: 1, Min: 0, Max: 1, Name: "Mono/Poly Mode", Default: 1, Enum: enumMonoPoly},
		{ID: 0x06, Size: 1, Min: 0, Max: 2, Name: "Same Note Key Assign", Default: 1, Enum: enumKeyAssign},
		{ID: partMode, Size: 1, Min: 0, Max: 5, Name: "Part Mode", Default: 0, Enum: enumPartMode},
		{ID: 0x08, Size: 1, Min: 0x28, Max: 0x58, Name: "Note Shift", Default: 0x40, Conv: convCenter64, Unit: "semi"},
		{ID: 0x09, Size: 2, Min: 0x00, Max: 0xFF, Name: "Detune", Default: 0x80,
			Packing: xgparam.PackNibble, Conv: convDetune, Unit: "Hz"},
		{ID: 0x0B, Size: 1, Min: 0, Max: 127, Name: "Volume", Default: 100},
		centered(0x0C, "Velocity Sense Depth"),
		centered(0x0D, "Velocity Sense Offset"),
		{ID: 0x0E, Size: 1, Min: 0, Max: 127, Name: "Pan", Default: 64, Enum: enumRandomPan},
		{ID: 0x0F, Size: 1, Min: 0, Max: 127, Name: "Note Limit Low", Default: 0},
		{ID: 0x10, Size: 1, Min: 0, Max: 127, Name: "Note Limit High", Default: 127},
		{ID: 0x11, Size: 1, Min: 0, Max: 127, Name: "Dry Level", Default: 127},
		{ID: 0x12, Size: 1, Min: 0, Max: 127, Name: "Chorus Send", Default: 0},
		{ID: 0x13, Size: 1, Min: 0, Max: 127, Name: "Reverb Send", Default: 40},
		{ID: 0x14, Size: 1, Min: 0, Max: 127, Name: "Variation Send", Default: 0},
		centered(0x15, "Vibrato Rate"),
		centered(0x16, "Vibrato Depth"),
		centered(0x17, "Vibrato Delay"),
		centered(0x18, "Filter Cutoff"),
		centered(0x19, "Filter Resonance"),
		centered(0x1A, "EG Attack"),
		centered(0x1B, "EG Decay"),
		centered(0x1C, "EG Release"),
		{ID: 0x23, Size: 1, Min: 0x28, Max: 0x58, Name: "Pitch Bend Control", Default: 0x42, Conv: convCenter64, Unit: "semi"},
		{ID: 0x67, Size: 1, Min: 0, Max: 1, Name: "Portamento Switch", Default: 0, Enum: enumOffOn},
		{ID: 0x68, Size: 1, Min: 0, Max: 127, Name: "Portamento Time", Default: 0},
	}
}

// partItem returns it with the defaults XG assigns to part.
func partItem(it xgparam.Item, part uint8) xgparam.Item {
	switch it.ID {
	case partRcvChannel:
		it.Default = uint32(part % 16)
	case partBankMSB:
		if part == drumPart {
			it.Default = drumBankMSB
		}
	case partMode:
		if part == drumPart {
			it.Default = 1
		}
	}
	return it
}
