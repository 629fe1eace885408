package xgparam

import (
	"fmt"
	"slices"
)

// GroupBuilder builds the parameters of one selector key on first access.
// Effect tables use it to create the effect parameters of an effect type.
type GroupBuilder func(key uint16) ([]*Parameter, error)

// KeyName is one entry of a table's selector name registry.
type KeyName struct {
	Key  uint16 `json:"key"`
	Name string `json:"name"`
}

// Table maps selector keys to parameter groups and tracks which key is
// current.
//
// The current key is either set directly (SetCurrentKey) or follows a key
// parameter elsewhere in the registry: whenever that parameter's value
// changes, the table switches groups, discards every group its builder
// made, and fires exactly one OnTableReset to its observers.
type Table struct {
	category Category
	groups   map[uint16]*Group
	current  uint16

	keyParam    *Parameter
	keyObserver *keyObserver

	names     map[uint16]string
	observers observerList[TableObserver]

	builder   GroupBuilder
	buildErrs map[uint16]error

	// onBuild and onDiscard keep the owning registry's indexes in step
	// with built groups.
	onBuild   func(t *Table, p *Parameter)
	onDiscard func(t *Table, p *Parameter)
}

// NewTable creates an empty table for category.
func NewTable(category Category) *Table {
	return &Table{
		category:  category,
		groups:    make(map[uint16]*Group),
		names:     make(map[uint16]string),
		buildErrs: make(map[uint16]error),
	}
}

// Category returns the table's category.
func (t *Table) Category() Category { return t.category }

// AddParameter inserts p into the group of key, creating the group if
// absent. Returns ErrDuplicateAddress if the group already has p's id.
func (t *Table) AddParameter(p *Parameter, key uint16) error {
	if p == nil {
		return ErrNilParameter
	}
	if err := t.group(key).Add(p); err != nil {
		return fmt.Errorf("%s table: %w", t.category, err)
	}
	return nil
}

// FindParameter returns the parameter with id in the current key's group.
// Effect tables also consult the shared group of type-independent
// parameters. Returns nil when nothing matches.
func (t *Table) FindParameter(id uint8) *Parameter {
	return t.FindParameterByKey(t.current, id)
}

// FindParameterByKey returns the parameter with id under selector key,
// building the group first if the table has a builder.
func (t *Table) FindParameterByKey(key uint16, id uint8) *Parameter {
	if g := t.lookupGroup(key); g != nil {
		if p := g.Find(id); p != nil {
			return p
		}
	}
	if key != SharedKey {
		if g := t.groups[SharedKey]; g != nil {
			return g.Find(id)
		}
	}
	return nil
}

// ResolveParameter is FindParameterByKey without side effects. For a key
// other than the current one whose group is not built, the builder runs
// and its result is dropped: the returned parameter belongs to no group
// and carries the effect type's default value.
func (t *Table) ResolveParameter(key uint16, id uint8) *Parameter {
	if key == t.current {
		return t.FindParameterByKey(key, id)
	}
	g := t.groups[key]
	if g != nil {
		if p := g.Find(id); p != nil {
			return p
		}
	}
	if t.builder != nil && key != SharedKey && (g == nil || !g.populated) {
		if params, err := t.builder(key); err == nil {
			for _, p := range params {
				if p.Low() == id {
					return p
				}
			}
		}
	}
	if key != SharedKey {
		if g := t.groups[SharedKey]; g != nil {
			return g.Find(id)
		}
	}
	return nil
}

// FindOrCreateGroup returns the group of key, creating it if absent.
// Calling it again with the same key returns the same group.
func (t *Table) FindOrCreateGroup(key uint16) *Group {
	if g := t.lookupGroup(key); g != nil {
		return g
	}
	return t.group(key)
}

// FindGroup returns the group of key, or nil if none exists yet.
func (t *Table) FindGroup(key uint16) *Group {
	return t.groups[key]
}

// CurrentGroup returns the current key's group, building it if needed.
func (t *Table) CurrentGroup() *Group {
	return t.lookupGroup(t.current)
}

// SharedGroup returns the group of type-independent parameters, or nil.
func (t *Table) SharedGroup() *Group {
	return t.groups[SharedKey]
}

// GroupKeys returns the keys of every existing group in ascending order.
func (t *Table) GroupKeys() []uint16 {
	keys := make([]uint16, 0, len(t.groups))
	for k := range t.groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// CurrentParameters returns the shared parameters followed by those of
// the current group, each in ascending id order.
func (t *Table) CurrentParameters() []*Parameter {
	var out []*Parameter
	if g := t.SharedGroup(); g != nil && t.current != SharedKey {
		out = append(out, g.Parameters()...)
	}
	if g := t.CurrentGroup(); g != nil {
		out = append(out, g.Parameters()...)
	}
	return out
}

// SetGroupBuilder installs the builder used to create groups lazily.
func (t *Table) SetGroupBuilder(b GroupBuilder) {
	t.builder = b
}

// BuildError returns the error of the last failed build of key, if any.
func (t *Table) BuildError(key uint16) error {
	return t.buildErrs[key]
}

// lookupGroup returns the group of key, running the builder first when
// the table has one and the group has not been built since the last
// switch. It never creates an empty group.
func (t *Table) lookupGroup(key uint16) *Group {
	g, ok := t.groups[key]
	if t.builder == nil || key == SharedKey {
		return g
	}
	if ok && g.populated {
		return g
	}
	if !ok {
		g = t.group(key)
	}
	t.build(g)
	return g
}

// group returns the group of key, creating an empty one if absent.
func (t *Table) group(key uint16) *Group {
	if g, ok := t.groups[key]; ok {
		return g
	}
	g := newGroup(key)
	t.groups[key] = g
	return g
}

func (t *Table) build(g *Group) {
	params, err := t.builder(g.key)
	if err != nil {
		t.buildErrs[g.key] = err
		return
	}
	delete(t.buildErrs, g.key)
	g.populated = true

	for _, p := range params {
		if err := g.Add(p); err != nil {
			t.buildErrs[g.key] = err
			continue
		}
		g.markBuilt(p.Low())
		if t.onBuild != nil {
			t.onBuild(t, p)
		}
	}
}

// discardBuilt drops every parameter a builder created. Groups left
// empty are removed; explicitly added parameters stay.
func (t *Table) discardBuilt() {
	for key, g := range t.groups {
		for _, p := range g.takeBuilt() {
			if t.onDiscard != nil {
				t.onDiscard(t, p)
			}
		}
		if g.Len() == 0 {
			delete(t.groups, key)
		}
	}
	clear(t.buildErrs)
}

// SetKeyParameter makes p the parameter whose value selects the current
// key. The table switches to p's value at once, as SetCurrentKey does.
// Passing nil unbinds it and keeps the current key.
func (t *Table) SetKeyParameter(p *Parameter) {
	if t.keyParam != nil {
		t.keyParam.Detach(t.keyObserver)
	}
	t.keyParam = p
	if p == nil {
		return
	}
	if t.keyObserver == nil {
		t.keyObserver = &keyObserver{table: t}
	}
	p.Attach(t.keyObserver)
	t.keyChanged()
}

// KeyParameter returns the key parameter, or nil.
func (t *Table) KeyParameter() *Parameter { return t.keyParam }

// CurrentKey returns the current selector key.
func (t *Table) CurrentKey() uint16 { return t.current }

// SetCurrentKey switches the current key directly. It has the same effect
// as a key parameter change: built groups are discarded and observers get
// one OnTableReset. Setting the key already current does nothing.
func (t *Table) SetCurrentKey(key uint16) {
	if key == t.current {
		return
	}
	t.current = key
	t.discardBuilt()
	t.NotifyReset()
}

// keyChanged re-reads the key parameter after a notification.
func (t *Table) keyChanged() {
	if t.keyParam == nil {
		return
	}
	t.SetCurrentKey(uint16(t.keyParam.Value())) //nolint:gosec // selector values are 14-bit
}

// AddKeyName registers a display label for a selector key.
func (t *Table) AddKeyName(key uint16, name string) {
	t.names[key] = name
}

// KeyName returns the label of key.
func (t *Table) KeyName(key uint16) (string, bool) {
	name, ok := t.names[key]
	return name, ok
}

// Keys returns the selector name registry in ascending key order.
func (t *Table) Keys() []KeyName {
	out := make([]KeyName, 0, len(t.names))
	for k, n := range t.names {
		out = append(out, KeyName{Key: k, Name: n})
	}
	slices.SortFunc(out, func(a, b KeyName) int { return int(a.Key) - int(b.Key) })
	return out
}

// Attach adds a table observer. Attaching twice does nothing.
func (t *Table) Attach(o TableObserver) { t.observers.attach(o) }

// Detach removes a table observer. Detaching an unknown one does nothing.
func (t *Table) Detach(o TableObserver) { t.observers.detach(o) }

// NotifyReset calls OnTableReset on every table observer.
func (t *Table) NotifyReset() {
	var none TableObserver
	t.observers.each(none, func(o TableObserver) { o.OnTableReset(t) })
}

// keyObserver forwards key parameter notifications to its table.
type keyObserver struct {
	table *Table
}

func (k *keyObserver) OnReset(*Parameter)  { k.table.keyChanged() }
func (k *keyObserver) OnUpdate(*Parameter) { k.table.keyChanged() }
