package xgdata

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// Pack is a YAML descriptor pack. It adds or replaces effect types,
// renames selector keys and overrides base item defaults.
//
// Example:
//
//	name: mu100-extras
//	effects:
//	  reverb:
//	    - name: Hall M
//	      msb: 0x01
//	      lsb: 0x06
//	      like: "01/00"
//	      params:
//	        - {slot: 0, name: Reverb Time, max: 69, default: 20, converter: reverb_time, unit: s}
//	key_names:
//	  multipart:
//	    0: Piano
//	defaults:
//	  - {category: system, id: 0x04, value: 100}
type Pack struct {
	Name     string                       `yaml:"name"`
	Effects  map[string][]PackEffect      `yaml:"effects"`
	KeyNames map[string]map[uint16]string `yaml:"key_names"`
	Defaults []PackDefault                `yaml:"defaults"`
}

// PackEffect describes one effect type.
type PackEffect struct {
	Name string `yaml:"name"`
	MSB  uint8  `yaml:"msb"`
	LSB  uint8  `yaml:"lsb"`
	// Like names an existing type ("01/00") whose slots are copied before
	// Params are applied.
	Like   string      `yaml:"like"`
	Params []PackParam `yaml:"params"`
}

// PackParam describes one effect slot. At most one of Converter, Scale,
// Center or Table may be set.
type PackParam struct {
	Slot      uint8     `yaml:"slot"`
	Name      string    `yaml:"name"`
	Min       uint32    `yaml:"min"`
	Max       uint32    `yaml:"max"`
	Default   *uint32   `yaml:"default"`
	Unit      string    `yaml:"unit"`
	Converter string    `yaml:"converter"`
	Scale     float64   `yaml:"scale"`
	Offset    float64   `yaml:"offset"`
	Center    *uint32   `yaml:"center"`
	Table     []float64 `yaml:"table"`
	Labels    []string  `yaml:"labels"`
}

// PackDefault overrides the default of one base item.
type PackDefault struct {
	Category string `yaml:"category"`
	ID       uint8  `yaml:"id"`
	Value    uint32 `yaml:"value"`
}

// namedConverters are the converters a pack can reference by name.
var namedConverters = map[string]xgparam.Converter{
	"reverb_time":  convReverbTime,
	"frequency":    convFrequency,
	"center64":     convCenter64,
	"init_delay":   convInitDelay,
	"delay_tenths": convDelayTenths,
	"lfo":          convLFO,
	"width":        convWidth,
}

// LoadPack reads and parses a descriptor pack file.
func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied pack path
	if err != nil {
		return nil, fmt.Errorf("reading pack %s: %w", path, err)
	}
	pack, err := ParsePack(data)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", path, err)
	}
	return pack, nil
}

// ParsePack parses and validates a descriptor pack.
func ParsePack(data []byte) (*Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPack, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the pack for structural errors. All problems are
// reported in a single ErrInvalidPack error.
func (p *Pack) Validate() error {
	var errs []string

	for catName, effects := range p.Effects {
		cat, err := xgparam.ParseCategory(catName)
		if err != nil || !cat.IsEffect() {
			errs = append(errs, fmt.Sprintf("effects: %q is not an effect category", catName))
			continue
		}
		for i, e := range effects {
			errs = append(errs, validateEffect(cat, i, e)...)
		}
	}

	for catName := range p.KeyNames {
		if _, err := xgparam.ParseCategory(catName); err != nil {
			errs = append(errs, fmt.Sprintf("key_names: unknown category %q", catName))
		}
	}

	for i, d := range p.Defaults {
		if _, err := xgparam.ParseCategory(d.Category); err != nil {
			errs = append(errs, fmt.Sprintf("defaults[%d]: unknown category %q", i, d.Category))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPack, strings.Join(errs, "; "))
	}
	return nil
}

func validateEffect(cat xgparam.Category, i int, e PackEffect) []string {
	var errs []string
	where := fmt.Sprintf("effects.%s[%d]", cat, i)

	if e.Name == "" {
		errs = append(errs, where+": name is required")
	}
	if e.MSB > 0x7F || e.LSB > 0x7F {
		errs = append(errs, where+": msb and lsb must be 7-bit")
	}
	if e.Like != "" {
		if _, err := parseEffectType(e.Like); err != nil {
			errs = append(errs, fmt.Sprintf("%s: like: %v", where, err))
		}
	}

	seen := make(map[uint8]bool)
	for j, pp := range e.Params {
		pw := fmt.Sprintf("%s.params[%d]", where, j)
		if pp.Slot >= slotCount {
			errs = append(errs, fmt.Sprintf("%s: slot %d out of range 0-%d", pw, pp.Slot, slotCount-1))
			continue
		}
		if seen[pp.Slot] {
			errs = append(errs, fmt.Sprintf("%s: duplicate slot %d", pw, pp.Slot))
		}
		seen[pp.Slot] = true

		if pp.Name == "" {
			errs = append(errs, pw+": name is required")
		}
		if pp.Min > pp.Max {
			errs = append(errs, fmt.Sprintf("%s: min %d exceeds max %d", pw, pp.Min, pp.Max))
		}
		if limit := slotLimit(cat, pp.Slot); pp.Max > limit {
			errs = append(errs, fmt.Sprintf("%s: max %d exceeds slot width %d", pw, pp.Max, limit))
		}
		if pp.Default != nil && (*pp.Default < pp.Min || *pp.Default > pp.Max) {
			errs = append(errs, fmt.Sprintf("%s: default %d outside %d-%d", pw, *pp.Default, pp.Min, pp.Max))
		}

		convs := 0
		if pp.Converter != "" {
			convs++
			if _, ok := namedConverters[pp.Converter]; !ok {
				errs = append(errs, fmt.Sprintf("%s: unknown converter %q", pw, pp.Converter))
			}
		}
		if pp.Scale != 0 || pp.Offset != 0 {
			convs++
		}
		if pp.Center != nil {
			convs++
		}
		if len(pp.Table) > 0 {
			convs++
		}
		if convs > 1 {
			errs = append(errs, pw+": converter, scale/offset, center and table are exclusive")
		}
	}
	return errs
}

// slotLimit is the largest raw value a slot can carry on the wire.
func slotLimit(cat xgparam.Category, slot uint8) uint32 {
	if cat == xgparam.CategoryVariation && slot < wideSlotCount {
		return 0x3FFF
	}
	return 0x7F
}

// parseEffectType parses "MSB/LSB" in hex, as printed by
// xgparam.FormatEffectType.
func parseEffectType(s string) (uint16, error) {
	var msb, lsb uint8
	if _, err := fmt.Sscanf(s, "%x/%x", &msb, &lsb); err != nil {
		return 0, fmt.Errorf("invalid effect type %q", s)
	}
	if msb > 0x7F || lsb > 0x7F {
		return 0, fmt.Errorf("invalid effect type %q", s)
	}
	return xgparam.EffectType(msb, lsb), nil
}

// Merge applies a validated pack to the catalog. Effect types with the
// selector of an existing type replace it. Later packs win.
func (c *Catalog) Merge(p *Pack) error {
	if p == nil {
		return nil
	}
	if err := p.Validate(); err != nil {
		return err
	}

	var errs []error
	for catName, effects := range p.Effects {
		cat, _ := xgparam.ParseCategory(catName)
		for _, pe := range effects {
			e, err := c.buildEffect(cat, pe)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			c.putEffect(cat, e)
		}
	}

	for catName, names := range p.KeyNames {
		cat, _ := xgparam.ParseCategory(catName)
		if c.KeyNames[cat] == nil {
			c.KeyNames[cat] = make(map[uint16]string, len(names))
		}
		for key, name := range names {
			c.KeyNames[cat][key] = name
		}
	}

	for _, d := range p.Defaults {
		cat, _ := xgparam.ParseCategory(d.Category)
		it := c.item(cat, d.ID)
		switch {
		case it == nil:
			errs = append(errs, fmt.Errorf("%w: defaults: no %s item %02X", ErrInvalidPack, cat, d.ID))
		case d.Value < it.Min || d.Value > it.Max:
			errs = append(errs, fmt.Errorf("%w: defaults: %s item %02X value %d outside %d-%d",
				ErrInvalidPack, cat, d.ID, d.Value, it.Min, it.Max))
		default:
			it.Default = d.Value
		}
	}

	return errors.Join(errs...)
}

func (c *Catalog) buildEffect(cat xgparam.Category, pe PackEffect) (xgparam.EffectItem, error) {
	e := xgparam.EffectItem{MSB: pe.MSB, LSB: pe.LSB, Name: pe.Name}

	if pe.Like != "" {
		etype, _ := parseEffectType(pe.Like)
		base := c.EffectTypes(cat).EffectItem(etype)
		if base == nil {
			return e, fmt.Errorf("%w: %s %q: like %s is not a known type", ErrInvalidPack, cat, pe.Name, pe.Like)
		}
		e.Params = append([]xgparam.EffectParamItem(nil), base.Params...)
		e.Defaults = append([]uint32(nil), base.Defaults...)
	}

	for _, pp := range pe.Params {
		ep := xgparam.EffectParamItem{
			ID: pp.Slot, Name: pp.Name, Min: pp.Min, Max: pp.Max, Unit: pp.Unit,
			Conv: packConverter(pp),
		}
		if len(pp.Labels) > 0 {
			ep.Enum = xgparam.Labels{Base: pp.Min, Names: pp.Labels}
		}
		e.Params = replaceParam(e.Params, ep)

		if pp.Default != nil {
			for len(e.Defaults) <= int(pp.Slot) {
				e.Defaults = append(e.Defaults, 0)
			}
			e.Defaults[pp.Slot] = *pp.Default
		}
	}
	return e, nil
}

func packConverter(pp PackParam) xgparam.Converter {
	switch {
	case pp.Converter != "":
		return namedConverters[pp.Converter]
	case pp.Center != nil:
		return xgparam.Centered(*pp.Center)
	case len(pp.Table) > 0:
		return xgparam.Lookup{Base: pp.Min, Values: pp.Table}
	case pp.Scale != 0 || pp.Offset != 0:
		return xgparam.Linear{Scale: pp.Scale, Offset: pp.Offset}
	}
	return nil
}

func replaceParam(params []xgparam.EffectParamItem, ep xgparam.EffectParamItem) []xgparam.EffectParamItem {
	for i := range params {
		if params[i].ID == ep.ID {
			params[i] = ep
			return params
		}
	}
	return append(params, ep)
}

// putEffect replaces the effect with the same selector or appends e. The
// table slice is copied so sources handed out earlier never see a
// partially written entry.
func (c *Catalog) putEffect(cat xgparam.Category, e xgparam.EffectItem) {
	cur := c.EffectTypes(cat)
	next := make(xgparam.EffectTable, len(cur), len(cur)+1)
	copy(next, cur)
	for i := range next {
		if next[i].Type() == e.Type() {
			next[i] = e
			c.setEffectTypes(cat, next)
			return
		}
	}
	c.setEffectTypes(cat, append(next, e))
}
