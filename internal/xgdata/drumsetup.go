package xgdata

import "github.com/nerrad567/xgparam-core/internal/xgparam"

// drumSetupItems describes one drum note of a drum setup, 3n rr xx.
func drumSetupItems() []xgparam.Item {
	centered := func(id uint8, name string) xgparam.Item {
		return xgparam.Item{ID: id, Size: 1, Min: 0, Max: 127, Name: name, Default: 64, Conv: convCenter64}
	}
	return []xgparam.Item{
		centered(0x00, "Pitch Coarse"),
		centered(0x01, "Pitch Fine"),
		{ID: 0x02, Size: 1, Min: 0, Max: 127, Name: "Level", Default: 127},
		{ID: 0x03, Size: 1, Min: 0, Max: 127, Name: "Alternate Group", Default: 0},
		{ID: 0x04, Size: 1, Min: 0, Max: 127, Name: "Pan", Default: 64, Enum: enumRandomPan},
		{ID: 0x05, Size: 1, Min: 0, Max: 127, Name: "Reverb Send", Default: 127},
		{ID: 0x06, Size: 1, Min: 0, Max: 127, Name: "Chorus Send", Default: 127},
		{ID: 0x07, Size: 1, Min: 0, Max: 127, Name: "Variation Send", Default: 127},
		{ID: 0x08, Size: 1, Min: 0, Max: 1, Name: "Key Assign", Default: 0, Enum: enumDrumAssign},
		{ID: 0x09, Size: 1, Min: 0, Max: 1, Name: "Receive Note Off", Default: 0, Enum: enumOffOn},
		{ID: 0x0A, Size: 1, Min: 0, Max: 1, Name: "Receive Note On", Default: 1, Enum: enumOffOn},
		centered(0x0B, "Filter Cutoff"),
		centered(0x0C, "Filter Resonance"),
		centered(0x0D, "EG Attack"),
		centered(0x0E, "EG Decay1"),
		centered(0x0F, "EG Decay2"),
	}
}
