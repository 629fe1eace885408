package xgparam

import (
	"fmt"
	"math"
	"strconv"
)

// Parameter is one addressed XG parameter: an address bound to a static
// descriptor, a current raw value and an ordered set of observers.
//
// A Parameter built with NewEffectParameter additionally carries an effect
// type; its name, bounds, default and conversions are then resolved through
// the effect type table on every read.
//
// Invariant: Value() always lies within [Min(), Max()].
type Parameter struct {
	key   AddressKey
	item  *Item
	value uint32

	// busy is set while this parameter's own notification is in flight.
	busy      bool
	observers observerList[Observer]

	effect *effectBinding
}

// effectBinding is the effect-type half of an effect parameter.
type effectBinding struct {
	etype  uint16
	source EffectSource
}

// NewParameter creates a base parameter at key described by item.
// The value starts at the item's default. item must not be nil.
func NewParameter(key AddressKey, item *Item) *Parameter {
	return &Parameter{
		key:   key,
		item:  item,
		value: item.Default,
	}
}

// Key returns the parameter address.
func (p *Parameter) Key() AddressKey { return p.key }

// High returns the category byte of the address.
func (p *Parameter) High() uint8 { return p.key.High }

// Mid returns the group byte of the address.
func (p *Parameter) Mid() uint8 { return p.key.Mid }

// Low returns the parameter byte of the address.
func (p *Parameter) Low() uint8 { return p.key.Low }

// Item returns the base descriptor.
func (p *Parameter) Item() *Item { return p.item }

// Size returns the number of bytes the value occupies on the wire.
func (p *Parameter) Size() int { return p.item.size() }

// Packing returns the wire packing of the value.
func (p *Parameter) Packing() Packing { return p.item.Packing }

// Name returns the display name.
func (p *Parameter) Name() string {
	if ep := p.effectParam(); ep != nil {
		return ep.Name
	}
	return p.item.Name
}

// Min returns the lowest valid raw value.
func (p *Parameter) Min() uint32 {
	if ep := p.effectParam(); ep != nil {
		return ep.Min
	}
	return p.item.Min
}

// Max returns the highest valid raw value.
func (p *Parameter) Max() uint32 {
	if ep := p.effectParam(); ep != nil {
		return ep.Max
	}
	return p.item.Max
}

// Default returns the raw value the parameter resets to.
func (p *Parameter) Default() uint32 {
	if ep := p.effectParam(); ep != nil {
		if def, ok := p.effectItem().Default(p.item.EffectIndex); ok {
			return def
		}
		return ep.Min
	}
	return p.item.Default
}

// Unit returns the display unit suffix, or "".
func (p *Parameter) Unit() string {
	if ep := p.effectParam(); ep != nil {
		return ep.Unit
	}
	return p.item.Unit
}

func (p *Parameter) converter() Converter {
	if ep := p.effectParam(); ep != nil {
		return ep.Conv
	}
	return p.item.Conv
}

func (p *Parameter) enumerator() Enumerator {
	if ep := p.effectParam(); ep != nil {
		return ep.Enum
	}
	return p.item.Enum
}

// ToDisplay converts a raw value to its display value.
func (p *Parameter) ToDisplay(u uint32) float64 {
	if c := p.converter(); c != nil {
		return c.ToDisplay(u)
	}
	return float64(u)
}

// FromDisplay converts a display value to the nearest raw value. The
// result is not range checked.
func (p *Parameter) FromDisplay(v float64) uint32 {
	if c := p.converter(); c != nil {
		return c.FromDisplay(v)
	}
	return roundRaw(v)
}

// EnumLabel returns the enumerated label of u, if the descriptor has one.
func (p *Parameter) EnumLabel(u uint32) (string, bool) {
	if e := p.enumerator(); e != nil {
		return e.Label(u)
	}
	return "", false
}

// Value returns the current raw value.
func (p *Parameter) Value() uint32 { return p.value }

// DisplayValue returns the current value converted for display.
func (p *Parameter) DisplayValue() float64 { return p.ToDisplay(p.value) }

// InRange reports whether u lies within the parameter's bounds.
func (p *Parameter) InRange(u uint32) bool {
	return u >= p.Min() && u <= p.Max()
}

// Clamp returns u limited to the parameter's bounds.
func (p *Parameter) Clamp(u uint32) uint32 {
	if lo := p.Min(); u < lo {
		return lo
	}
	if hi := p.Max(); u > hi {
		return hi
	}
	return u
}

// SetValue stores u and notifies every observer except sender.
//
// Values outside [Min(), Max()] are rejected, never clamped: the call
// returns ErrOutOfRange and nothing changes. A call made while this
// parameter's own notification is in flight returns ErrBusy.
//
// Parameters:
//   - u: New raw value
//   - sender: Observer that originated the change, or nil
//
// Returns:
//   - error: ErrOutOfRange or ErrBusy, wrapped with the address
func (p *Parameter) SetValue(u uint32, sender Observer) error {
	if p.busy {
		return fmt.Errorf("%w: %s", ErrBusy, p.key)
	}
	if !p.InRange(u) {
		return fmt.Errorf("%w: %s %q: %d not in [%d, %d]",
			ErrOutOfRange, p.key, p.Name(), u, p.Min(), p.Max())
	}

	p.value = u
	p.NotifyUpdate(sender)
	return nil
}

// SetDisplayValue converts v to raw and stores it as SetValue does.
func (p *Parameter) SetDisplayValue(v float64, sender Observer) error {
	return p.SetValue(p.FromDisplay(v), sender)
}

// Reset restores the default value.
func (p *Parameter) Reset(sender Observer) error {
	return p.SetValue(p.Default(), sender)
}

// Busy reports whether the parameter is notifying its observers.
func (p *Parameter) Busy() bool { return p.busy }

// Decode reads the parameter's raw value from buf at off. The width and
// packing come from the descriptor. The result is not range checked.
func (p *Parameter) Decode(buf []byte, off int) (uint32, error) {
	u, err := decodeValue(buf, off, p.Size(), p.Packing())
	if err != nil {
		return 0, fmt.Errorf("decoding %s: %w", p.key, err)
	}
	return u, nil
}

// Encode writes u into buf at off using the descriptor's width and packing.
func (p *Parameter) Encode(buf []byte, off int, u uint32) error {
	if err := encodeValue(buf, off, p.Size(), p.Packing(), u); err != nil {
		return fmt.Errorf("encoding %s: %w", p.key, err)
	}
	return nil
}

// Data returns the current value encoded in a fresh buffer.
func (p *Parameter) Data() []byte {
	buf := make([]byte, p.Size())
	// The stored value always fits: it is within [Min, Max].
	_ = encodeValue(buf, 0, len(buf), p.Packing(), p.value)
	return buf
}

// SetData decodes a value from buf at off and stores it with SetValue.
func (p *Parameter) SetData(buf []byte, off int, sender Observer) error {
	u, err := p.Decode(buf, off)
	if err != nil {
		return err
	}
	return p.SetValue(u, sender)
}

// Attach adds an observer. Attaching one already attached does nothing.
func (p *Parameter) Attach(o Observer) { p.observers.attach(o) }

// Detach removes an observer. Detaching one not attached does nothing.
// A detached observer receives no further callbacks, including from a
// notification already in progress.
func (p *Parameter) Detach(o Observer) { p.observers.detach(o) }

// Observers returns the attached observers in attachment order.
func (p *Parameter) Observers() []Observer {
	return append([]Observer(nil), p.observers.snapshot()...)
}

// NotifyUpdate calls OnUpdate on every observer except sender.
func (p *Parameter) NotifyUpdate(sender Observer) {
	p.notify(sender, func(o Observer) { o.OnUpdate(p) })
}

// NotifyReset calls OnReset on every observer except sender. Use it when
// the parameter's meaning changed rather than its value.
func (p *Parameter) NotifyReset(sender Observer) {
	p.notify(sender, func(o Observer) { o.OnReset(p) })
}

func (p *Parameter) notify(sender Observer, fn func(Observer)) {
	if p.busy {
		return
	}
	p.busy = true
	defer func() { p.busy = false }()

	p.observers.each(sender, fn)
}

// Label returns the parameter name with its unit, e.g. "Reverb Time (s)".
func (p *Parameter) Label() string {
	name := p.Name()
	if unit := p.Unit(); unit != "" {
		return name + " (" + unit + ")"
	}
	return name
}

// Text returns the current value rendered for display: the enumerated
// label when there is one, otherwise the display value and unit.
func (p *Parameter) Text() string {
	return p.Format(p.value)
}

// Format renders u as Text would.
func (p *Parameter) Format(u uint32) string {
	if s, ok := p.EnumLabel(u); ok {
		return s
	}
	s := formatNumber(p.ToDisplay(u))
	if unit := p.Unit(); unit != "" {
		return s + " " + unit
	}
	return s
}

// String returns the address and name, for logs.
func (p *Parameter) String() string {
	return p.key.String() + " " + p.Name()
}

func formatNumber(v float64) string {
	if math.Abs(v) >= 1e15 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	v = math.Round(v*100) / 100
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
