package xgdata

import "github.com/nerrad567/xgparam-core/internal/xgparam"

// systemItems describes the system block, 00 00 xx.
func systemItems() []xgparam.Item {
	return []xgparam.Item{
		{ID: 0x00, Size: 4, Min: 0x0000, Max: 0x07FF, Name: "Master Tune", Default: 0x0400,
			Packing: xgparam.PackNibble, Conv: convMasterTune, Unit: "cents"},
		{ID: 0x04, Size: 1, Min: 0, Max: 127, Name: "Master Volume", Default: 127},
		{ID: 0x05, Size: 1, Min: 0, Max: 127, Name: "Master Attenuator", Default: 0},
		{ID: 0x06, Size: 1, Min: 0x28, Max: 0x58, Name: "Transpose", Default: 0x40,
			Conv: convCenter64, Unit: "semi"},
	}
}
