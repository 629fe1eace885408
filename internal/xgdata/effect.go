package xgdata

import "github.com/nerrad567/xgparam-core/internal/xgparam"

// Effect block layout, 02 01 xx.
const (
	effectHigh = 0x02
	effectMid  = 0x01

	reverbTypeID    = 0x00
	chorusTypeID    = 0x20
	variationTypeID = 0x40

	slotCount     = 16
	wideSlotCount = 10
)

// SlotAddress returns the address of effect slot (0-15) of category c.
func SlotAddress(c xgparam.Category, slot uint8) (xgparam.AddressKey, bool) {
	if slot >= slotCount {
		return xgparam.AddressKey{}, false
	}
	var low uint8
	switch c {
	case xgparam.CategoryReverb:
		low = 0x02 + slot
		if slot >= wideSlotCount {
			low = 0x10 + slot - wideSlotCount
		}
	case xgparam.CategoryChorus:
		low = 0x22 + slot
		if slot >= wideSlotCount {
			low = 0x30 + slot - wideSlotCount
		}
	case xgparam.CategoryVariation:
		low = 0x42 + 2*slot
		if slot >= wideSlotCount {
			low = 0x70 + slot - wideSlotCount
		}
	default:
		return xgparam.AddressKey{}, false
	}
	return xgparam.Address(effectHigh, effectMid, low), true
}

// TypeAddress returns the address of the effect type parameter of c.
func TypeAddress(c xgparam.Category) (xgparam.AddressKey, bool) {
	switch c {
	case xgparam.CategoryReverb:
		return xgparam.Address(effectHigh, effectMid, reverbTypeID), true
	case xgparam.CategoryChorus:
		return xgparam.Address(effectHigh, effectMid, chorusTypeID), true
	case xgparam.CategoryVariation:
		return xgparam.Address(effectHigh, effectMid, variationTypeID), true
	}
	return xgparam.AddressKey{}, false
}

// effectItems describes the effect block. Type parameters render their
// value through the catalog so that merged effect types get names too.
func effectItems(c *Catalog) []xgparam.Item {
	typeItem := func(id uint8, name string, cat xgparam.Category, msb, lsb uint8) xgparam.Item {
		return xgparam.Item{
			ID: id, Size: 2, Min: 0, Max: 0x3FFF, Name: name,
			Default: uint32(xgparam.EffectType(msb, lsb)),
			Packing: xgparam.Pack7Bit,
			Enum:    c.typeLabels(cat),
		}
	}
	level := func(id uint8, name string, def uint32) xgparam.Item {
		return xgparam.Item{ID: id, Size: 1, Min: 0, Max: 127, Name: name, Default: def}
	}
	pan := func(id uint8, name string) xgparam.Item {
		return xgparam.Item{ID: id, Size: 1, Min: 1, Max: 127, Name: name, Default: 64, Enum: enumPan}
	}

	items := []xgparam.Item{
		typeItem(reverbTypeID, "Reverb Type", xgparam.CategoryReverb, 0x01, 0x00),
		level(0x0C, "Reverb Return", 64),
		pan(0x0D, "Reverb Pan"),

		typeItem(chorusTypeID, "Chorus Type", xgparam.CategoryChorus, 0x41, 0x00),
		level(0x2C, "Chorus Return", 64),
		pan(0x2D, "Chorus Pan"),
		level(0x2E, "Send Chorus To Reverb", 0),

		typeItem(variationTypeID, "Variation Type", xgparam.CategoryVariation, 0x05, 0x00),
		level(0x56, "Variation Return", 64),
		pan(0x57, "Variation Pan"),
		level(0x58, "Send Variation To Reverb", 0),
		level(0x59, "Send Variation To Chorus", 0),
		{ID: 0x5A, Size: 1, Min: 0, Max: 1, Name: "Variation Connection", Default: 0, Enum: enumConnection},
		{ID: 0x5B, Size: 1, Min: 0, Max: 0x7F, Name: "Variation Part", Default: 0x7F, Enum: enumPart},
	}

	for _, cat := range []xgparam.Category{xgparam.CategoryReverb, xgparam.CategoryChorus, xgparam.CategoryVariation} {
		for slot := uint8(0); slot < slotCount; slot++ {
			addr, _ := SlotAddress(cat, slot)
			it := xgparam.Item{ID: addr.Low, Size: 1, Min: 0, Max: 127, Effect: cat, EffectIndex: slot}
			if cat == xgparam.CategoryVariation && slot < wideSlotCount {
				it.Size, it.Max, it.Packing = 2, 0x3FFF, xgparam.Pack7Bit
			}
			items = append(items, it)
		}
	}
	return items
}

// Slot descriptor builders shared by several effect types.

func slot(id uint8, name string, lo, hi uint32) xgparam.EffectParamItem {
	return xgparam.EffectParamItem{ID: id, Name: name, Min: lo, Max: hi}
}

func slotConv(id uint8, name string, lo, hi uint32, conv xgparam.Converter, unit string) xgparam.EffectParamItem {
	return xgparam.EffectParamItem{ID: id, Name: name, Min: lo, Max: hi, Conv: conv, Unit: unit}
}

func slotEnum(id uint8, name string, lo, hi uint32, enum xgparam.Enumerator) xgparam.EffectParamItem {
	return xgparam.EffectParamItem{ID: id, Name: name, Min: lo, Max: hi, Enum: enum}
}

func eqSlots(first uint8) []xgparam.EffectParamItem {
	return []xgparam.EffectParamItem{
		slotConv(first, "EQ Low Frequency", 8, 40, convFrequency, "Hz"),
		slotConv(first+1, "EQ Low Gain", 52, 76, convCenter64, "dB"),
		slotConv(first+2, "EQ High Frequency", 28, 58, convFrequency, "Hz"),
		slotConv(first+3, "EQ High Gain", 52, 76, convCenter64, "dB"),
	}
}

func hallSlots() []xgparam.EffectParamItem {
	return []xgparam.EffectParamItem{
		slotConv(0, "Reverb Time", 0, 69, convReverbTime, "s"),
		slot(1, "Diffusion", 0, 10),
		slotConv(2, "Initial Delay", 0, 63, convInitDelay, "ms"),
		slotConv(3, "HPF Cutoff", 0, 52, convFrequency, "Hz"),
		slotConv(4, "LPF Cutoff", 34, 60, convFrequency, "Hz"),
		slotEnum(10, "Dry/Wet", 1, 127, enumDryWet),
		slotConv(11, "Reverb Delay", 0, 63, convInitDelay, "ms"),
		slot(12, "Density", 0, 3),
		slotEnum(13, "Er/Rev Balance", 1, 127, enumBalance),
		slotConv(15, "Feedback Level", 1, 127, convCenter64, ""),
	}
}

func roomSizeSlots() []xgparam.EffectParamItem {
	return append(hallSlots(),
		slotConv(5, "Width", 0, 37, convWidth, "m"),
		slotConv(6, "Height", 0, 73, convWidth, "m"),
		slotConv(7, "Depth", 0, 104, convWidth, "m"),
		slot(8, "Wall Vary", 0, 30),
	)
}

func chorusSlots() []xgparam.EffectParamItem {
	return append([]xgparam.EffectParamItem{
		slotConv(0, "LFO Frequency", 0, 127, convLFO, "Hz"),
		slot(1, "LFO PM Depth", 0, 127),
		slotConv(2, "Feedback Level", 1, 127, convCenter64, ""),
		slotConv(3, "Delay Offset", 0, 127, convDelayTenths, "ms"),
		slotEnum(9, "Dry/Wet", 1, 127, enumDryWet),
		slotEnum(14, "Input Mode", 0, 1, enumInputMode),
	}, eqSlots(5)...)
}

func flangerSlots() []xgparam.EffectParamItem {
	return append([]xgparam.EffectParamItem{
		slotConv(0, "LFO Frequency", 0, 127, convLFO, "Hz"),
		slot(1, "LFO Depth", 0, 127),
		slotConv(2, "Feedback Level", 1, 127, convCenter64, ""),
		slotConv(3, "Delay Offset", 0, 63, convDelayTenths, "ms"),
		slotEnum(9, "Dry/Wet", 1, 127, enumDryWet),
		slotConv(13, "LFO Phase Difference", 4, 124, convCenter64, ""),
	}, eqSlots(5)...)
}

func reverbTypes() xgparam.EffectTable {
	hall := []uint32{18, 10, 8, 13, 49, 0, 0, 0, 0, 0, 64, 0, 3, 64, 0, 64}
	room := []uint32{5, 10, 16, 4, 49, 0, 0, 0, 0, 0, 64, 0, 3, 64, 0, 64}
	stage := []uint32{19, 10, 16, 7, 54, 0, 0, 0, 0, 0, 64, 0, 3, 64, 0, 64}
	walls := []uint32{3, 10, 0, 0, 60, 27, 32, 50, 15, 0, 64, 0, 3, 64, 0, 64}
	return xgparam.EffectTable{
		{MSB: 0x00, LSB: 0x00, Name: "No Effect"},
		{MSB: 0x01, LSB: 0x00, Name: "Hall 1", Params: hallSlots(), Defaults: hall},
		{MSB: 0x01, LSB: 0x01, Name: "Hall 2", Params: hallSlots(), Defaults: []uint32{25, 10, 28, 6, 46, 0, 0, 0, 0, 0, 64, 0, 3, 64, 0, 64}},
		{MSB: 0x02, LSB: 0x00, Name: "Room 1", Params: hallSlots(), Defaults: room},
		{MSB: 0x02, LSB: 0x01, Name: "Room 2", Params: hallSlots(), Defaults: []uint32{12, 10, 5, 4, 38, 0, 0, 0, 0, 0, 64, 0, 3, 64, 0, 64}},
		{MSB: 0x02, LSB: 0x02, Name: "Room 3", Params: hallSlots(), Defaults: []uint32{9, 10, 47, 5, 36, 0, 0, 0, 0, 0, 64, 0, 3, 64, 0, 64}},
		{MSB: 0x03, LSB: 0x00, Name: "Stage 1", Params: hallSlots(), Defaults: stage},
		{MSB: 0x03, LSB: 0x01, Name: "Stage 2", Params: hallSlots(), Defaults: []uint32{11, 10, 40, 2, 50, 0, 0, 0, 0, 0, 64, 0, 3, 64, 0, 64}},
		{MSB: 0x04, LSB: 0x00, Name: "Plate", Params: hallSlots(), Defaults: []uint32{25, 10, 6, 8, 47, 0, 0, 0, 0, 0, 64, 0, 2, 64, 0, 64}},
		{MSB: 0x10, LSB: 0x00, Name: "White Room", Params: roomSizeSlots(), Defaults: walls},
		{MSB: 0x11, LSB: 0x00, Name: "Tunnel", Params: roomSizeSlots(), Defaults: []uint32{9, 5, 0, 0, 60, 33, 1, 104, 20, 0, 64, 0, 3, 64, 0, 64}},
		{MSB: 0x13, LSB: 0x00, Name: "Basement", Params: roomSizeSlots(), Defaults: []uint32{3, 6, 3, 0, 54, 3, 8, 46, 11, 0, 64, 0, 3, 64, 0, 64}},
	}
}

func chorusTypes() xgparam.EffectTable {
	chorus := func(lfo, depth, fb, delay uint32) []uint32 {
		return []uint32{lfo, depth, fb, delay, 0, 14, 64, 44, 64, 64, 0, 0, 0, 0, 0, 0}
	}
	flanger := func(lfo, depth, fb, delay uint32) []uint32 {
		return []uint32{lfo, depth, fb, delay, 0, 14, 64, 44, 64, 64, 0, 0, 0, 64, 0, 0}
	}
	return xgparam.EffectTable{
		{MSB: 0x00, LSB: 0x00, Name: "No Effect"},
		{MSB: 0x41, LSB: 0x00, Name: "Chorus 1", Params: chorusSlots(), Defaults: chorus(6, 54, 77, 106)},
		{MSB: 0x41, LSB: 0x01, Name: "Chorus 2", Params: chorusSlots(), Defaults: chorus(8, 63, 64, 30)},
		{MSB: 0x41, LSB: 0x02, Name: "Chorus 3", Params: chorusSlots(), Defaults: chorus(4, 44, 64, 110)},
		{MSB: 0x42, LSB: 0x00, Name: "Celeste 1", Params: chorusSlots(), Defaults: chorus(12, 32, 64, 0)},
		{MSB: 0x42, LSB: 0x01, Name: "Celeste 2", Params: chorusSlots(), Defaults: chorus(28, 18, 90, 2)},
		{MSB: 0x42, LSB: 0x02, Name: "Celeste 3", Params: chorusSlots(), Defaults: chorus(4, 63, 44, 2)},
		{MSB: 0x43, LSB: 0x00, Name: "Flanger 1", Params: flangerSlots(), Defaults: flanger(14, 14, 104, 2)},
		{MSB: 0x43, LSB: 0x01, Name: "Flanger 2", Params: flangerSlots(), Defaults: flanger(32, 17, 26, 2)},
	}
}

func variationTypes() xgparam.EffectTable {
	delayMax := uint32(7430)
	echoMax := uint32(3550)

	delayLCR := append([]xgparam.EffectParamItem{
		slotConv(0, "Lch Delay", 1, delayMax, convDelayTenths, "ms"),
		slotConv(1, "Rch Delay", 1, delayMax, convDelayTenths, "ms"),
		slotConv(2, "Cch Delay", 1, delayMax, convDelayTenths, "ms"),
		slotConv(3, "Feedback Delay", 1, delayMax, convDelayTenths, "ms"),
		slotConv(4, "Feedback Level", 1, 127, convCenter64, ""),
		slot(5, "Cch Level", 0, 127),
		slot(6, "High Damp", 1, 10),
		slotEnum(9, "Dry/Wet", 1, 127, enumDryWet),
	}, eqSlots(12)...)

	delayLR := append([]xgparam.EffectParamItem{
		slotConv(0, "Lch Delay", 1, delayMax, convDelayTenths, "ms"),
		slotConv(1, "Rch Delay", 1, delayMax, convDelayTenths, "ms"),
		slotConv(2, "Feedback Delay 1", 1, delayMax, convDelayTenths, "ms"),
		slotConv(3, "Feedback Delay 2", 1, delayMax, convDelayTenths, "ms"),
		slotConv(4, "Feedback Level", 1, 127, convCenter64, ""),
		slot(5, "High Damp", 1, 10),
		slotEnum(9, "Dry/Wet", 1, 127, enumDryWet),
	}, eqSlots(12)...)

	echo := append([]xgparam.EffectParamItem{
		slotConv(0, "Lch Delay1", 1, echoMax, convDelayTenths, "ms"),
		slotConv(1, "Lch Feedback Level", 1, 127, convCenter64, ""),
		slotConv(2, "Rch Delay1", 1, echoMax, convDelayTenths, "ms"),
		slotConv(3, "Rch Feedback Level", 1, 127, convCenter64, ""),
		slot(4, "High Damp", 1, 10),
		slotConv(5, "Lch Delay2", 1, echoMax, convDelayTenths, "ms"),
		slotConv(6, "Rch Delay2", 1, echoMax, convDelayTenths, "ms"),
		slot(7, "Delay2 Level", 0, 127),
		slotEnum(9, "Dry/Wet", 1, 127, enumDryWet),
	}, eqSlots(12)...)

	cross := append([]xgparam.EffectParamItem{
		slotConv(0, "L>R Delay", 1, echoMax, convDelayTenths, "ms"),
		slotConv(1, "R>L Delay", 1, echoMax, convDelayTenths, "ms"),
		slotConv(2, "Feedback Level", 1, 127, convCenter64, ""),
		slotEnum(3, "Input Select", 0, 2, enumInput),
		slot(4, "High Damp", 1, 10),
		slotEnum(9, "Dry/Wet", 1, 127, enumDryWet),
	}, eqSlots(12)...)

	symphonic := append([]xgparam.EffectParamItem{
		slotConv(0, "LFO Frequency", 0, 127, convLFO, "Hz"),
		slot(1, "LFO Depth", 0, 127),
		slotConv(2, "Delay Offset", 0, 127, convDelayTenths, "ms"),
		slotEnum(9, "Dry/Wet", 1, 127, enumDryWet),
	}, eqSlots(5)...)

	rotary := append([]xgparam.EffectParamItem{
		slotConv(0, "LFO Frequency", 0, 127, convLFO, "Hz"),
		slot(1, "LFO Depth", 0, 127),
		slotEnum(9, "Dry/Wet", 1, 127, enumDryWet),
	}, eqSlots(5)...)

	distortion := []xgparam.EffectParamItem{
		slot(0, "Drive", 0, 127),
		slotConv(1, "EQ Low Frequency", 8, 40, convFrequency, "Hz"),
		slotConv(2, "EQ Low Gain", 52, 76, convCenter64, "dB"),
		slotConv(3, "LPF Cutoff", 34, 60, convFrequency, "Hz"),
		slot(4, "Output Level", 0, 127),
		slotConv(6, "EQ Mid Frequency", 14, 54, convFrequency, "Hz"),
		slotConv(7, "EQ Mid Gain", 52, 76, convCenter64, "dB"),
		slotConv(8, "EQ Mid Width", 10, 120, convWidth, ""),
		slotEnum(9, "Dry/Wet", 1, 127, enumDryWet),
		slot(10, "Edge", 0, 127),
	}

	eq := []uint32{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 14, 64, 44, 64}
	withEQ := func(head ...uint32) []uint32 {
		out := append([]uint32(nil), eq...)
		copy(out, head)
		return out
	}

	return xgparam.EffectTable{
		{MSB: 0x00, LSB: 0x00, Name: "No Effect"},
		{MSB: 0x01, LSB: 0x00, Name: "Hall 1", Params: hallSlots(), Defaults: []uint32{18, 10, 8, 13, 49, 0, 0, 0, 0, 0, 64, 0, 3, 64, 0, 64}},
		{MSB: 0x05, LSB: 0x00, Name: "Delay L,C,R", Params: delayLCR, Defaults: withEQ(3333, 1667, 5000, 5000, 74, 100, 10, 0, 0, 64)},
		{MSB: 0x06, LSB: 0x00, Name: "Delay L,R", Params: delayLR, Defaults: withEQ(2500, 3750, 3752, 3750, 87, 10, 0, 0, 0, 64)},
		{MSB: 0x07, LSB: 0x00, Name: "Echo", Params: echo, Defaults: withEQ(1700, 80, 1780, 80, 10, 1700, 1780, 0, 0, 64)},
		{MSB: 0x08, LSB: 0x00, Name: "Cross Delay", Params: cross, Defaults: withEQ(1700, 1750, 111, 1, 10, 0, 0, 0, 0, 64)},
		{MSB: 0x41, LSB: 0x00, Name: "Chorus 1", Params: chorusSlots(), Defaults: []uint32{6, 54, 77, 106, 0, 14, 64, 44, 64, 64, 0, 0, 0, 0, 0, 0}},
		{MSB: 0x43, LSB: 0x00, Name: "Flanger 1", Params: flangerSlots(), Defaults: []uint32{14, 14, 104, 2, 0, 14, 64, 44, 64, 64, 0, 0, 0, 64, 0, 0}},
		{MSB: 0x44, LSB: 0x00, Name: "Symphonic", Params: symphonic, Defaults: []uint32{12, 25, 16, 0, 0, 14, 64, 44, 64, 64, 0, 0, 0, 0, 0, 0}},
		{MSB: 0x45, LSB: 0x00, Name: "Rotary Speaker", Params: rotary, Defaults: []uint32{81, 35, 0, 0, 0, 14, 64, 44, 64, 64, 0, 0, 0, 0, 0, 0}},
		{MSB: 0x49, LSB: 0x00, Name: "Distortion", Params: distortion, Defaults: []uint32{40, 20, 72, 53, 48, 0, 43, 74, 10, 127, 120, 0, 0, 0, 0, 0}},
	}
}
