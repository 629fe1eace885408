package xgdata

import (
	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// Catalog is the complete set of XG descriptor tables.
//
// Populate copies multi part items once per part. System, effect and
// drum setup parameters point into the catalog's item slices, so a
// default changed by a later Merge applies to those parameters on their
// next reset. Effect types are looked up through the catalog on every
// read, so merged types become visible immediately.
type Catalog struct {
	System    []xgparam.Item
	Effect    []xgparam.Item
	MultiPart []xgparam.Item
	DrumSetup []xgparam.Item

	Reverb    xgparam.EffectTable
	Chorus    xgparam.EffectTable
	Variation xgparam.EffectTable

	// KeyNames overrides or extends the selector labels Populate registers.
	KeyNames map[xgparam.Category]map[uint16]string
}

// NewCatalog returns the built-in XG tables.
func NewCatalog() *Catalog {
	c := &Catalog{
		System:    systemItems(),
		MultiPart: multiPartItems(),
		DrumSetup: drumSetupItems(),
		Reverb:    reverbTypes(),
		Chorus:    chorusTypes(),
		Variation: variationTypes(),
		KeyNames:  make(map[xgparam.Category]map[uint16]string),
	}
	c.Effect = effectItems(c)
	return c
}

// EffectTypes returns the effect type table of an effect category.
func (c *Catalog) EffectTypes(cat xgparam.Category) xgparam.EffectTable {
	switch cat {
	case xgparam.CategoryReverb:
		return c.Reverb
	case xgparam.CategoryChorus:
		return c.Chorus
	case xgparam.CategoryVariation:
		return c.Variation
	}
	return nil
}

func (c *Catalog) setEffectTypes(cat xgparam.Category, t xgparam.EffectTable) {
	switch cat {
	case xgparam.CategoryReverb:
		c.Reverb = t
	case xgparam.CategoryChorus:
		c.Chorus = t
	case xgparam.CategoryVariation:
		c.Variation = t
	}
}

// Effects returns a live EffectSource for an effect category: lookups
// always see the catalog's current table.
func (c *Catalog) Effects(cat xgparam.Category) xgparam.EffectSource {
	return catalogSource{catalog: c, category: cat}
}

type catalogSource struct {
	catalog  *Catalog
	category xgparam.Category
}

func (s catalogSource) EffectItem(etype uint16) *xgparam.EffectItem {
	return s.catalog.EffectTypes(s.category).EffectItem(etype)
}

// typeLabels renders an effect type value as its effect name.
func (c *Catalog) typeLabels(cat xgparam.Category) xgparam.Enumerator {
	return xgparam.EnumFunc(func(u uint32) (string, bool) {
		if u > 0x3FFF {
			return "", false
		}
		e := c.EffectTypes(cat).EffectItem(uint16(u))
		if e == nil {
			return "", false
		}
		return e.Name, true
	})
}

// Items returns the base items of a block by category. Effect categories
// share the effect block.
func (c *Catalog) Items(cat xgparam.Category) []xgparam.Item {
	switch cat {
	case xgparam.CategorySystem:
		return c.System
	case xgparam.CategoryMultiPart:
		return c.MultiPart
	case xgparam.CategoryDrumSetup:
		return c.DrumSetup
	case xgparam.CategoryReverb, xgparam.CategoryChorus, xgparam.CategoryVariation:
		return c.Effect
	}
	return nil
}

// item returns a pointer to the item with id in a block, or nil.
func (c *Catalog) item(cat xgparam.Category, id uint8) *xgparam.Item {
	items := c.Items(cat)
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func (c *Catalog) keyName(cat xgparam.Category, key uint16, fallback string) string {
	if name, ok := c.KeyNames[cat][key]; ok {
		return name
	}
	return fallback
}
