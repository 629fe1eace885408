package xgdata

import (
	"errors"
	"fmt"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// Default population sizes.
const (
	DefaultParts      = 16
	DefaultDrumSetups = 2
	DefaultNoteLow    = 13
	DefaultNoteHigh   = 91

	maxDrumSetups = 16
)

// Block address bytes.
const (
	highSystem    = 0x00
	highMultiPart = 0x08
	highDrumSetup = 0x30
)

// Options controls how much of the address space Populate registers.
// Zero fields take the defaults.
type Options struct {
	Parts      int
	DrumSetups int
	NoteLow    uint8
	NoteHigh   uint8
}

func (o Options) withDefaults() Options {
	if o.Parts <= 0 {
		o.Parts = DefaultParts
	}
	if o.DrumSetups <= 0 {
		o.DrumSetups = DefaultDrumSetups
	}
	if o.DrumSetups > maxDrumSetups {
		o.DrumSetups = maxDrumSetups
	}
	if o.NoteLow == 0 && o.NoteHigh == 0 {
		o.NoteLow, o.NoteHigh = DefaultNoteLow, DefaultNoteHigh
	}
	if o.NoteHigh > 127 {
		o.NoteHigh = 127
	}
	return o
}

// Populate registers every parameter of the catalog in r, installs the
// effect type parameters as key parameters of the effect tables together
// with builders for their effect-dependent slots, and fills the selector
// name registries.
//
// Parameters:
//   - r: Empty registry to populate
//   - c: Descriptor catalog
//   - opts: Population sizes
//
// Returns:
//   - error: ErrPopulate wrapping the first registry error
func Populate(r *xgparam.Registry, c *Catalog, opts Options) error {
	opts = opts.withDefaults()

	if err := populateSystem(r, c); err != nil {
		return err
	}
	if err := populateEffects(r, c); err != nil {
		return err
	}
	if err := populateParts(r, c, opts); err != nil {
		return err
	}
	return populateDrums(r, c, opts)
}

func populateSystem(r *xgparam.Registry, c *Catalog) error {
	for i := range c.System {
		p := xgparam.NewParameter(xgparam.Address(highSystem, 0x00, c.System[i].ID), &c.System[i])
		if err := r.Add(p); err != nil {
			return fmt.Errorf("%w: %w", ErrPopulate, err)
		}
	}
	r.Table(xgparam.CategorySystem).AddKeyName(0, c.keyName(xgparam.CategorySystem, 0, "System"))
	return nil
}

func populateEffects(r *xgparam.Registry, c *Catalog) error {
	for i := range c.Effect {
		it := &c.Effect[i]
		if it.Dependent() {
			continue
		}
		if err := r.Add(xgparam.NewParameter(xgparam.Address(effectHigh, effectMid, it.ID), it)); err != nil {
			return fmt.Errorf("%w: %w", ErrPopulate, err)
		}
	}

	for _, cat := range []xgparam.Category{xgparam.CategoryReverb, xgparam.CategoryChorus, xgparam.CategoryVariation} {
		t := r.Table(cat)
		addr, _ := TypeAddress(cat)
		typeParam := r.FindParameter(addr)
		if typeParam == nil {
			return fmt.Errorf("%w: no type parameter for %s", ErrPopulate, cat)
		}

		t.SetGroupBuilder(effectBuilder(c, cat))
		t.SetKeyParameter(typeParam)

		for _, e := range c.EffectTypes(cat) {
			t.AddKeyName(e.Type(), c.keyName(cat, e.Type(), e.Name))
		}
	}
	return nil
}

// effectBuilder creates the effect parameters of one effect type. Slots
// the type leaves unused are skipped. A type missing from the catalog is
// a build error.
func effectBuilder(c *Catalog, cat xgparam.Category) xgparam.GroupBuilder {
	source := c.Effects(cat)
	return func(etype uint16) ([]*xgparam.Parameter, error) {
		if source.EffectItem(etype) == nil {
			return nil, fmt.Errorf("%w: %s type %s is not in the catalog",
				xgparam.ErrUnresolvedEffectParameter, cat, xgparam.FormatEffectType(etype))
		}
		var out []*xgparam.Parameter
		for i := range c.Effect {
			it := &c.Effect[i]
			if !it.Dependent() || it.Effect != cat {
				continue
			}
			p, err := xgparam.NewEffectParameter(xgparam.Address(effectHigh, effectMid, it.ID), it, etype, source)
			if errors.Is(err, xgparam.ErrUnresolvedEffectParameter) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	}
}

func populateParts(r *xgparam.Registry, c *Catalog, opts Options) error {
	t := r.Table(xgparam.CategoryMultiPart)
	for part := 0; part < opts.Parts; part++ {
		pp := uint8(part) //nolint:gosec // parts are bounded by the address space
		for i := range c.MultiPart {
			it := partItem(c.MultiPart[i], pp)
			p := xgparam.NewParameter(xgparam.Address(highMultiPart, pp, it.ID), &it)
			if err := r.Add(p); err != nil {
				return fmt.Errorf("%w: %w", ErrPopulate, err)
			}
		}
		key := uint16(pp)
		t.AddKeyName(key, c.keyName(xgparam.CategoryMultiPart, key, fmt.Sprintf("Part %d", part+1)))
	}
	return nil
}

func populateDrums(r *xgparam.Registry, c *Catalog, opts Options) error {
	t := r.Table(xgparam.CategoryDrumSetup)
	for setup := 0; setup < opts.DrumSetups; setup++ {
		n := uint8(setup) //nolint:gosec // at most 16 drum setups
		for note := int(opts.NoteLow); note <= int(opts.NoteHigh); note++ {
			rr := uint8(note) //nolint:gosec // notes are 7-bit
			for i := range c.DrumSetup {
				p := xgparam.NewParameter(xgparam.Address(highDrumSetup+n, rr, c.DrumSetup[i].ID), &c.DrumSetup[i])
				if err := r.Add(p); err != nil {
					return fmt.Errorf("%w: %w", ErrPopulate, err)
				}
			}
			key := xgparam.DrumSetupKey(n, rr)
			t.AddKeyName(key, c.keyName(xgparam.CategoryDrumSetup, key,
				fmt.Sprintf("Drum %d %s", setup+1, NoteName(rr))))
		}
	}
	return nil
}
