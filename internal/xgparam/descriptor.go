package xgparam

import (
	"math"
	"strconv"
)

// Packing selects how a multi-byte value is laid out on the wire.
type Packing uint8

const (
	// PackBytes stores the value big-endian, 8 bits per byte.
	PackBytes Packing = iota
	// Pack7Bit stores the value big-endian, 7 bits per byte.
	Pack7Bit
	// PackNibble stores the value big-endian, 4 bits per byte.
	PackNibble
)

// String returns the packing name.
func (p Packing) String() string {
	switch p {
	case PackBytes:
		return "bytes"
	case Pack7Bit:
		return "7bit"
	case PackNibble:
		return "nibble"
	default:
		return "packing(" + strconv.Itoa(int(p)) + ")"
	}
}

// bits returns the payload bits carried by each byte.
func (p Packing) bits() uint {
	switch p {
	case Pack7Bit:
		return 7
	case PackNibble:
		return 4
	default:
		return 8
	}
}

// Converter maps between a raw value and its display value.
type Converter interface {
	ToDisplay(u uint32) float64
	FromDisplay(v float64) uint32
}

// Enumerator renders a raw value as a label, when the parameter has one.
type Enumerator interface {
	Label(u uint32) (string, bool)
}

// Item is the static descriptor of a base parameter: everything about it
// that does not depend on its address.
//
// An Item with an empty Name is effect-dependent: its traits come from
// the effect type table of Effect, at slot EffectIndex.
type Item struct {
	ID      uint8
	Size    uint8
	Min     uint32
	Max     uint32
	Name    string
	Default uint32
	Packing Packing

	// Conv converts to and from the display value. Nil means identity.
	Conv Converter
	// Enum renders enumerated labels. Nil means numeric only.
	Enum Enumerator
	// Unit is the display unit suffix, e.g. "dB" or "ms".
	Unit string

	// Effect and EffectIndex locate the traits of an effect-dependent item.
	Effect      Category
	EffectIndex uint8
}

// Dependent reports whether the item's traits come from an effect table.
func (it *Item) Dependent() bool {
	return it.Name == ""
}

// size returns the wire width, at least one byte.
func (it *Item) size() int {
	if it.Size == 0 {
		return 1
	}
	return int(it.Size)
}

// EffectParamItem is the descriptor of one slot of one effect type.
type EffectParamItem struct {
	ID   uint8
	Name string
	Min  uint32
	Max  uint32
	Conv Converter
	Enum Enumerator
	Unit string
}

// EffectItem describes one effect type: its selector bytes, its name and
// the descriptors and defaults of its parameter slots.
type EffectItem struct {
	MSB      uint8
	LSB      uint8
	Name     string
	Params   []EffectParamItem
	Defaults []uint32
}

// Type returns the effect type selector value, MSB<<7 | LSB.
func (e *EffectItem) Type() uint16 {
	return EffectType(e.MSB, e.LSB)
}

// Param returns the descriptor for slot index, or nil when the effect
// type leaves that slot unused.
func (e *EffectItem) Param(index uint8) *EffectParamItem {
	if e == nil {
		return nil
	}
	for i := range e.Params {
		if e.Params[i].ID == index {
			return &e.Params[i]
		}
	}
	return nil
}

// Default returns the default raw value for slot index.
func (e *EffectItem) Default(index uint8) (uint32, bool) {
	if e == nil || int(index) >= len(e.Defaults) {
		return 0, false
	}
	return e.Defaults[index], true
}

// EffectType combines selector bytes into an effect type value.
func EffectType(msb, lsb uint8) uint16 {
	return uint16(msb&0x7F)<<7 | uint16(lsb&0x7F)
}

// EffectSource looks up effect types for one effect category.
type EffectSource interface {
	EffectItem(etype uint16) *EffectItem
}

// EffectTable is an EffectSource over a slice of effect types.
type EffectTable []EffectItem

// EffectItem implements EffectSource.
func (t EffectTable) EffectItem(etype uint16) *EffectItem {
	for i := range t {
		if t[i].Type() == etype {
			return &t[i]
		}
	}
	return nil
}

// Linear converts with display = raw*Scale + Offset.
type Linear struct {
	Scale  float64
	Offset float64
}

// ToDisplay implements Converter.
func (l Linear) ToDisplay(u uint32) float64 {
	scale := l.Scale
	if scale == 0 {
		scale = 1
	}
	return float64(u)*scale + l.Offset
}

// FromDisplay implements Converter.
func (l Linear) FromDisplay(v float64) uint32 {
	scale := l.Scale
	if scale == 0 {
		scale = 1
	}
	return roundRaw((v - l.Offset) / scale)
}

// Centered converts around a center raw value, e.g. 64 displays as 0.
func Centered(center uint32) Linear {
	return Linear{Scale: 1, Offset: -float64(center)}
}

// Lookup converts through a table indexed by raw value minus Base.
// Raw values past either end of the table clamp to the nearest entry.
type Lookup struct {
	Base   uint32
	Values []float64
}

// ToDisplay implements Converter.
func (t Lookup) ToDisplay(u uint32) float64 {
	if len(t.Values) == 0 {
		return float64(u)
	}
	if u < t.Base {
		return t.Values[0]
	}
	i := int(u - t.Base)
	if i >= len(t.Values) {
		i = len(t.Values) - 1
	}
	return t.Values[i]
}

// FromDisplay implements Converter. It returns the raw value whose table
// entry is closest to v.
func (t Lookup) FromDisplay(v float64) uint32 {
	if len(t.Values) == 0 {
		return roundRaw(v)
	}
	best := 0
	bestDiff := math.Inf(1)
	for i, tv := range t.Values {
		if d := math.Abs(tv - v); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return t.Base + uint32(best) //nolint:gosec // index bounded by table length
}

// ConverterFuncs adapts a pair of functions to Converter.
type ConverterFuncs struct {
	To   func(u uint32) float64
	From func(v float64) uint32
}

// ToDisplay implements Converter.
func (c ConverterFuncs) ToDisplay(u uint32) float64 {
	if c.To == nil {
		return float64(u)
	}
	return c.To(u)
}

// FromDisplay implements Converter.
func (c ConverterFuncs) FromDisplay(v float64) uint32 {
	if c.From == nil {
		return roundRaw(v)
	}
	return c.From(v)
}

// Labels enumerates names for consecutive raw values starting at Base.
type Labels struct {
	Base  uint32
	Names []string
}

// Label implements Enumerator.
func (l Labels) Label(u uint32) (string, bool) {
	if u < l.Base || int(u-l.Base) >= len(l.Names) {
		return "", false
	}
	s := l.Names[u-l.Base]
	return s, s != ""
}

// EnumFunc adapts a function to Enumerator.
type EnumFunc func(u uint32) (string, bool)

// Label implements Enumerator.
func (f EnumFunc) Label(u uint32) (string, bool) {
	return f(u)
}

// roundRaw rounds a display-domain number to a raw value, clamping
// negatives to zero.
func roundRaw(v float64) uint32 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(math.Round(v))
}
