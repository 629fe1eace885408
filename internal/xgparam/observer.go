package xgparam

// Observer receives change notifications from parameters and tables.
//
// OnReset means the parameter's meaning changed (bounds, name, labels):
// re-fetch everything. OnUpdate means only the value changed.
//
// Observers are compared by identity, so implementations must be
// comparable; use a pointer type.
type Observer interface {
	OnReset(p *Parameter)
	OnUpdate(p *Parameter)
}

// ObserverFuncs adapts a pair of functions to Observer. Use it by pointer.
type ObserverFuncs struct {
	Reset  func(p *Parameter)
	Update func(p *Parameter)
}

// OnReset implements Observer.
func (f *ObserverFuncs) OnReset(p *Parameter) {
	if f.Reset != nil {
		f.Reset(p)
	}
}

// OnUpdate implements Observer.
func (f *ObserverFuncs) OnUpdate(p *Parameter) {
	if f.Update != nil {
		f.Update(p)
	}
}

// TableObserver receives a table's reset notification: the table switched
// to another selector key and everything bound to "the current group" must
// be re-fetched.
type TableObserver interface {
	OnTableReset(t *Table)
}

// TableObserverFunc adapts a function to TableObserver. Use it by pointer.
type TableObserverFunc func(t *Table)

// OnTableReset implements TableObserver.
func (f *TableObserverFunc) OnTableReset(t *Table) { (*f)(t) }

// observerList is an ordered, duplicate-free set of observers.
//
// detach never modifies the backing array in place, so a slice returned
// by snapshot stays valid while callbacks attach and detach.
type observerList[T comparable] struct {
	items []T
}

func (l *observerList[T]) attach(o T) {
	var zero T
	if o == zero || l.contains(o) {
		return
	}
	l.items = append(l.items, o)
}

func (l *observerList[T]) detach(o T) {
	for i, item := range l.items {
		if item == o {
			next := make([]T, 0, len(l.items)-1)
			next = append(next, l.items[:i]...)
			l.items = append(next, l.items[i+1:]...)
			return
		}
	}
}

func (l *observerList[T]) contains(o T) bool {
	for _, item := range l.items {
		if item == o {
			return true
		}
	}
	return false
}

func (l *observerList[T]) snapshot() []T {
	return l.items[:len(l.items):len(l.items)]
}

func (l *observerList[T]) len() int {
	return len(l.items)
}

// each calls fn for every observer in the snapshot taken on entry, in
// attachment order, skipping sender and anything detached meanwhile.
func (l *observerList[T]) each(sender T, fn func(T)) {
	for _, o := range l.snapshot() {
		if o == sender || !l.contains(o) {
			continue
		}
		fn(o)
	}
}
