package xgparam

import (
	"fmt"
	"strconv"
)

// NewEffectParameter creates a parameter whose traits are resolved through
// the effect type etype of source.
//
// When source has no entry for (etype, item.EffectIndex) the parameter falls
// back to item itself, which covers slots shared by every effect type. An
// effect-dependent item (empty Name) with no entry cannot be resolved.
//
// Parameters:
//   - key: Parameter address
//   - item: Base descriptor, used for address bookkeeping and fallback
//   - etype: Effect type selector value (MSB<<7 | LSB)
//   - source: Effect type table of the item's category
//
// Returns:
//   - *Parameter: Parameter holding the resolved default value
//   - error: ErrUnresolvedEffectParameter if nothing describes the slot
func NewEffectParameter(key AddressKey, item *Item, etype uint16, source EffectSource) (*Parameter, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: no descriptor for %s", ErrNilParameter, key)
	}

	p := &Parameter{
		key:    key,
		item:   item,
		effect: &effectBinding{etype: etype, source: source},
	}
	if item.Dependent() && p.effectParam() == nil {
		return nil, fmt.Errorf("%w: %s slot %d of effect type %s",
			ErrUnresolvedEffectParameter, key, item.EffectIndex, FormatEffectType(etype))
	}

	p.value = p.Default()
	return p, nil
}

// EffectType returns the effect type of an effect parameter. The second
// result is false for base parameters.
func (p *Parameter) EffectType() (uint16, bool) {
	if p.effect == nil {
		return 0, false
	}
	return p.effect.etype, true
}

// IsEffectParameter reports whether p was built with NewEffectParameter.
func (p *Parameter) IsEffectParameter() bool {
	return p.effect != nil
}

// EffectName returns the name of the effect type an effect parameter is
// bound to, or "".
func (p *Parameter) EffectName() string {
	if e := p.effectItem(); e != nil {
		return e.Name
	}
	return ""
}

func (p *Parameter) effectItem() *EffectItem {
	if p.effect == nil || p.effect.source == nil {
		return nil
	}
	return p.effect.source.EffectItem(p.effect.etype)
}

// effectParam resolves the slot descriptor on every call; nothing is
// cached, so the parameter always reflects the effect table as it is now.
func (p *Parameter) effectParam() *EffectParamItem {
	if p.effect == nil {
		return nil
	}
	return p.effectItem().Param(p.item.EffectIndex)
}

// FormatEffectType renders an effect type as "MSB/LSB" in hex.
func FormatEffectType(etype uint16) string {
	return fmt.Sprintf("%02X/%02X", etype>>7, etype&0x7F)
}

// ParseEffectType parses an effect type written as "MSB/LSB" in hex, as
// FormatEffectType renders it, or as a 14-bit number ("128", "0x80").
func ParseEffectType(s string) (uint16, error) {
	var msb, lsb uint8
	if n, err := fmt.Sscanf(s, "%02X/%02X", &msb, &lsb); err == nil && n == 2 {
		if msb > 0x7F || lsb > 0x7F {
			return 0, fmt.Errorf("%w: %q", ErrInvalidEffectType, s)
		}
		return EffectType(msb, lsb), nil
	}
	v, err := strconv.ParseUint(s, 0, 14)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidEffectType, s)
	}
	return uint16(v), nil
}
