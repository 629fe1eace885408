package xgparam

import (
	"fmt"
	"slices"
)

// Group maps local parameter ids to parameters for one selector key.
// A parameter belongs to exactly one group.
type Group struct {
	key    uint16
	params map[uint8]*Parameter

	// built marks ids created by the table's builder; populated is set
	// once the builder has run for this group.
	built     map[uint8]bool
	populated bool
}

func newGroup(key uint16) *Group {
	return &Group{key: key, params: make(map[uint8]*Parameter), built: make(map[uint8]bool)}
}

// Key returns the selector key the group belongs to.
func (g *Group) Key() uint16 { return g.key }

// Add inserts p under its low address byte.
// Returns ErrDuplicateAddress if the id is taken.
func (g *Group) Add(p *Parameter) error {
	if p == nil {
		return ErrNilParameter
	}
	id := p.Low()
	if existing, ok := g.params[id]; ok {
		return fmt.Errorf("%w: id %02X in group %d already holds %s", ErrDuplicateAddress, id, g.key, existing)
	}
	g.params[id] = p
	return nil
}

// Find returns the parameter with the given id, or nil.
func (g *Group) Find(id uint8) *Parameter {
	return g.params[id]
}

// Len returns the number of parameters.
func (g *Group) Len() int { return len(g.params) }

// IDs returns the parameter ids in ascending order.
func (g *Group) IDs() []uint8 {
	ids := make([]uint8, 0, len(g.params))
	for id := range g.params {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Parameters returns the parameters in ascending id order.
func (g *Group) Parameters() []*Parameter {
	ids := g.IDs()
	out := make([]*Parameter, len(ids))
	for i, id := range ids {
		out[i] = g.params[id]
	}
	return out
}

func (g *Group) markBuilt(id uint8) {
	g.built[id] = true
}

// takeBuilt removes and returns every built parameter.
func (g *Group) takeBuilt() []*Parameter {
	var out []*Parameter
	for id := range g.built {
		out = append(out, g.params[id])
		delete(g.params, id)
	}
	clear(g.built)
	g.populated = false
	return out
}
