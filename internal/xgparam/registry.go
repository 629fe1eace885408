package xgparam

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Registry owns one Table per Category, a flat address index and a reverse
// index from parameter to owning table.
//
// A Registry is an explicit context object: build one at startup with
// NewRegistry, populate it, and hand it to every collaborator that needs
// lookups. It is not safe for concurrent use on its own; see Do.
//
// Effect parameters share their address with the other effect types of
// the same slot, so they live only in their table's groups. FindParameter
// reaches them through the table's current key.
type Registry struct {
	mu sync.Mutex

	tables [categoryCount]*Table
	index  map[AddressKey]*Parameter
	owners map[*Parameter]*Table

	watchers observerList[Observer]
}

// NewRegistry creates an empty registry with one table per category.
func NewRegistry() *Registry {
	r := &Registry{
		index:  make(map[AddressKey]*Parameter),
		owners: make(map[*Parameter]*Table),
	}
	for _, c := range Categories() {
		t := NewTable(c)
		t.onBuild = r.adopt
		t.onDiscard = r.release
		r.tables[c] = t
	}
	return r
}

// Do runs fn while holding the registry lock. Every goroutine other than
// the one that populated the registry must access parameters, tables and
// the registry only from inside Do. Do is not reentrant.
func (r *Registry) Do(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// Table returns the table of category c, or nil for an unknown category.
func (r *Registry) Table(c Category) *Table {
	if !c.Valid() {
		return nil
	}
	return r.tables[c]
}

// Tables returns every table in category order.
func (r *Registry) Tables() []*Table {
	return append([]*Table(nil), r.tables[:]...)
}

// Add registers p, inferring its category and selector key from its
// address. An effect parameter is filed under its effect type; a static
// parameter of an effect category goes to the shared group.
//
// Returns:
//   - error: ErrUnroutableAddress, or ErrDuplicateAddress on a collision
//     in the flat index or the group; the registry is unchanged on error
func (r *Registry) Add(p *Parameter) error {
	if p == nil {
		return ErrNilParameter
	}
	c, key, err := Route(p.Key())
	if err != nil {
		return err
	}
	if etype, ok := p.EffectType(); ok && c.IsEffect() {
		key = etype
	}
	return r.AddTo(p, c, key)
}

// AddTo registers p in category c under selector key, bypassing address
// routing.
func (r *Registry) AddTo(p *Parameter, c Category, key uint16) error {
	if p == nil {
		return ErrNilParameter
	}
	t := r.Table(c)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, c)
	}
	if _, ok := r.owners[p]; ok {
		return fmt.Errorf("%w: %s already registered", ErrDuplicateAddress, p)
	}

	flat := !p.IsEffectParameter()
	if flat {
		if existing, ok := r.index[p.Key()]; ok {
			return fmt.Errorf("%w: %s already holds %q", ErrDuplicateAddress, p.Key(), existing.Name())
		}
	}
	if err := t.AddParameter(p, key); err != nil {
		return err
	}

	if flat {
		r.index[p.Key()] = p
	}
	r.adopt(t, p)
	return nil
}

// adopt records t as p's owner and attaches the registry watchers.
func (r *Registry) adopt(t *Table, p *Parameter) {
	r.owners[p] = t
	for _, w := range r.watchers.snapshot() {
		p.Attach(w)
	}
}

// release forgets a parameter discarded by its table.
func (r *Registry) release(_ *Table, p *Parameter) {
	delete(r.owners, p)
	for _, w := range r.watchers.snapshot() {
		p.Detach(w)
	}
}

// FindParameter returns the parameter at k, or nil. Effect-dependent
// addresses resolve through their table's current effect type.
func (r *Registry) FindParameter(k AddressKey) *Parameter {
	if p, ok := r.index[k]; ok {
		return p
	}
	c, _, err := Route(k)
	if err != nil || !c.IsEffect() {
		return nil
	}
	return r.tables[c].FindParameter(k.Low)
}

// FindParameterByType returns the parameter at k as seen under effect type
// etype. For non-effect categories etype is ignored. A type that is not
// current is resolved without registering anything: see
// Table.ResolveParameter.
func (r *Registry) FindParameterByType(k AddressKey, etype uint16) *Parameter {
	c, _, err := Route(k)
	if err != nil || !c.IsEffect() {
		return r.FindParameter(k)
	}
	if p := r.tables[c].ResolveParameter(etype, k.Low); p != nil {
		return p
	}
	return r.index[k]
}

// FindParameterTable returns the table that owns p, or nil.
func (r *Registry) FindParameterTable(p *Parameter) *Table {
	return r.owners[p]
}

// Len returns the number of registered parameters, built effect
// parameters included.
func (r *Registry) Len() int {
	return len(r.owners)
}

// Parameters returns every registered parameter ordered by address, then
// by effect type.
func (r *Registry) Parameters() []*Parameter {
	out := make([]*Parameter, 0, len(r.owners))
	for p := range r.owners {
		out = append(out, p)
	}
	slices.SortFunc(out, compareParameters)
	return out
}

// StaticParameters returns the flat-indexed parameters ordered by address.
func (r *Registry) StaticParameters() []*Parameter {
	out := make([]*Parameter, 0, len(r.index))
	for _, p := range r.index {
		out = append(out, p)
	}
	slices.SortFunc(out, compareParameters)
	return out
}

// CurrentParameters returns the flat-indexed parameters followed by the
// parameters of each effect table's current effect type. This is the
// state a device holds.
func (r *Registry) CurrentParameters() []*Parameter {
	out := r.StaticParameters()
	for _, t := range r.tables {
		if !t.Category().IsEffect() || t.CurrentKey() == SharedKey {
			continue
		}
		if g := t.CurrentGroup(); g != nil {
			out = append(out, g.Parameters()...)
		}
	}
	return out
}

// Reset restores every current parameter to its default, the way a
// device reacts to XG System On. Key parameters are reset first so that
// effect parameters are restored for the default effect types.
func (r *Registry) Reset(sender Observer) error {
	var errs []error
	for _, p := range r.StaticParameters() {
		if err := p.Reset(sender); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	for _, t := range r.tables {
		if !t.Category().IsEffect() || t.CurrentKey() == SharedKey {
			continue
		}
		if g := t.CurrentGroup(); g != nil {
			for _, p := range g.Parameters() {
				if err := p.Reset(sender); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", p, err))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Watch attaches o to every registered parameter, to every parameter
// registered or built later, and to every table if o is also a
// TableObserver.
func (r *Registry) Watch(o Observer) {
	if o == nil || r.watchers.contains(o) {
		return
	}
	r.watchers.attach(o)
	for p := range r.owners {
		p.Attach(o)
	}
	if to, ok := o.(TableObserver); ok {
		for _, t := range r.tables {
			t.Attach(to)
		}
	}
}

// Unwatch reverses Watch.
func (r *Registry) Unwatch(o Observer) {
	if !r.watchers.contains(o) {
		return
	}
	r.watchers.detach(o)
	for p := range r.owners {
		p.Detach(o)
	}
	if to, ok := o.(TableObserver); ok {
		for _, t := range r.tables {
			t.Detach(to)
		}
	}
}

func compareParameters(a, b *Parameter) int {
	ka, kb := a.Key(), b.Key()
	if c := cmp.Compare(ka.High, kb.High); c != 0 {
		return c
	}
	if c := cmp.Compare(ka.Mid, kb.Mid); c != 0 {
		return c
	}
	if c := cmp.Compare(ka.Low, kb.Low); c != 0 {
		return c
	}
	ea, _ := a.EffectType()
	eb, _ := b.EffectType()
	return cmp.Compare(ea, eb)
}
