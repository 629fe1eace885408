package xgparam

import (
	"fmt"
	"strings"
)

// Category identifies one of the registry's parameter tables.
type Category uint8

// Parameter categories, one table each.
const (
	CategorySystem Category = iota
	CategoryReverb
	CategoryChorus
	CategoryVariation
	CategoryMultiPart
	CategoryDrumSetup

	categoryCount = int(CategoryDrumSetup) + 1
)

var categoryNames = [categoryCount]string{
	CategorySystem:    "system",
	CategoryReverb:    "reverb",
	CategoryChorus:    "chorus",
	CategoryVariation: "variation",
	CategoryMultiPart: "multipart",
	CategoryDrumSetup: "drumsetup",
}

// Categories returns every category in table order.
func Categories() []Category {
	out := make([]Category, categoryCount)
	for i := range out {
		out[i] = Category(i) //nolint:gosec // bounded by categoryCount
	}
	return out
}

// String returns the lower-case category name.
func (c Category) String() string {
	if int(c) < categoryCount {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Valid reports whether c names a known category.
func (c Category) Valid() bool {
	return int(c) < categoryCount
}

// IsEffect reports whether parameters of c depend on an effect type.
func (c Category) IsEffect() bool {
	return c == CategoryReverb || c == CategoryChorus || c == CategoryVariation
}

// ParseCategory parses a category name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil //nolint:gosec // bounded by categoryCount
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// XG address map.
const (
	highSystem     = 0x00
	highEffect     = 0x02
	midEffectBlock = 0x01
	highMultiPart  = 0x08
	highDrumSetup  = 0x30
	drumSetupCount = 0x10

	// Effect block boundaries within 02 01 xx.
	lowChorusStart    = 0x20
	lowVariationStart = 0x40
)

// SharedKey is the selector key of an effect table's shared group: the
// static parameters (type, return, pan, sends) common to every effect type.
const SharedKey uint16 = 0xFFFF

// Route resolves the category and selector key that own address k.
//
// The selector key of an effect category is not decided by the address
// alone; Route returns SharedKey for it and the caller substitutes the
// effect type of an effect-dependent parameter.
//
// Parameters:
//   - k: Parameter address
//
// Returns:
//   - Category: Owning category
//   - uint16: Selector key within the category's table
//   - error: ErrUnroutableAddress if no category owns the address
func Route(k AddressKey) (Category, uint16, error) {
	switch {
	case k.High == highSystem && k.Mid == 0x00:
		return CategorySystem, 0, nil

	case k.High == highEffect && k.Mid == midEffectBlock:
		switch {
		case k.Low < lowChorusStart:
			return CategoryReverb, SharedKey, nil
		case k.Low < lowVariationStart:
			return CategoryChorus, SharedKey, nil
		default:
			return CategoryVariation, SharedKey, nil
		}

	case k.High == highMultiPart:
		return CategoryMultiPart, uint16(k.Mid), nil

	case k.High >= highDrumSetup && k.High < highDrumSetup+drumSetupCount:
		return CategoryDrumSetup, DrumSetupKey(k.High-highDrumSetup, k.Mid), nil
	}

	return 0, 0, fmt.Errorf("%w: %s", ErrUnroutableAddress, k)
}

// DrumSetupKey returns the selector key of drum setup n, note.
func DrumSetupKey(setup, note uint8) uint16 {
	return uint16(setup)<<7 | uint16(note&0x7F)
}
