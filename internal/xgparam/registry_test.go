package xgparam

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

// newTestRegistry returns a registry with a master volume, a reverb type
// key parameter, a reverb return and a built reverb table.
func newTestRegistry(t *testing.T) (*Registry, *Parameter) {
	t.Helper()

	reg := NewRegistry()
	static := []*Parameter{
		NewParameter(Address(0x00, 0x00, 0x04), byteItem(0x04, "Master Volume", 127)),
		NewParameter(Address(0x02, 0x01, 0x0C), byteItem(0x0C, "Reverb Return", 64)),
		NewParameter(Address(0x08, 0x01, 0x0B), byteItem(0x0B, "Volume", 100)),
	}
	for _, p := range static {
		if err := reg.Add(p); err != nil {
			t.Fatalf("Add(%v) error: %v", p, err)
		}
	}

	typeParam := NewParameter(Address(0x02, 0x01, 0x00),
		&Item{ID: 0x00, Size: 2, Max: 0x3FFF, Name: "Reverb Type", Default: uint32(hallType), Packing: Pack7Bit})
	if err := reg.Add(typeParam); err != nil {
		t.Fatal(err)
	}

	tbl := reg.Table(CategoryReverb)
	tbl.SetGroupBuilder(func(etype uint16) ([]*Parameter, error) {
		p, err := NewEffectParameter(Address(0x02, 0x01, 0x05), dependentItem(0x05, 3), etype, testEffects)
		if err != nil {
			return nil, err
		}
		return []*Parameter{p}, nil
	})
	tbl.SetKeyParameter(typeParam)
	return reg, typeParam
}

func TestRegistryAddRoutes(t *testing.T) {
	reg, typeParam := newTestRegistry(t)

	tests := []struct {
		key  AddressKey
		want Category
	}{
		{Address(0x00, 0x00, 0x04), CategorySystem},
		{Address(0x02, 0x01, 0x0C), CategoryReverb},
		{Address(0x08, 0x01, 0x0B), CategoryMultiPart},
	}
	for _, tt := range tests {
		p := reg.FindParameter(tt.key)
		if p == nil {
			t.Errorf("FindParameter(%v) = nil", tt.key)
			continue
		}
		if got := reg.FindParameterTable(p); got == nil || got.Category() != tt.want {
			t.Errorf("FindParameterTable(%v) = %v, want %v table", tt.key, got, tt.want)
		}
	}

	if reg.Table(CategoryReverb).SharedGroup().Find(0x00) != typeParam {
		t.Error("reverb type not in shared group")
	}
	if reg.Table(CategoryMultiPart).FindParameterByKey(1, 0x0B) == nil {
		t.Error("part 2 volume not under selector key 1")
	}
	if reg.FindParameter(Address(0x00, 0x00, 0x7F)) != nil {
		t.Error("unknown address should be absent")
	}
	if reg.FindParameter(Address(0x43, 0x10, 0x00)) != nil {
		t.Error("unroutable address should be absent")
	}
}

func TestRegistryAddErrors(t *testing.T) {
	reg, _ := newTestRegistry(t)
	before := reg.Len()

	dup := NewParameter(Address(0x00, 0x00, 0x04), byteItem(0x04, "Master Volume", 127))
	if err := reg.Add(dup); !errors.Is(err, ErrDuplicateAddress) {
		t.Errorf("duplicate Add() error = %v, want ErrDuplicateAddress", err)
	}
	if reg.FindParameterTable(dup) != nil {
		t.Error("rejected parameter has an owner")
	}

	odd := NewParameter(Address(0x43, 0x10, 0x00), byteItem(0x00, "Odd", 0))
	if err := reg.Add(odd); !errors.Is(err, ErrUnroutableAddress) {
		t.Errorf("unroutable Add() error = %v", err)
	}
	if err := reg.AddTo(odd, Category(99), 0); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("AddTo(unknown category) error = %v", err)
	}
	if err := reg.Add(nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("Add(nil) error = %v", err)
	}

	// A group collision must leave the flat index untouched.
	clash := NewParameter(Address(0x00, 0x01, 0x04), byteItem(0x04, "Clash", 0))
	if err := reg.AddTo(clash, CategorySystem, 0); !errors.Is(err, ErrDuplicateAddress) {
		t.Errorf("group collision error = %v", err)
	}
	if reg.FindParameter(clash.Key()) != nil {
		t.Error("failed AddTo left an index entry")
	}
	if reg.Len() != before {
		t.Errorf("Len() = %d after failed adds, want %d", reg.Len(), before)
	}
}

func TestRegistryEffectLookup(t *testing.T) {
	reg, typeParam := newTestRegistry(t)
	addr := Address(0x02, 0x01, 0x05)

	cur := reg.FindParameter(addr)
	if cur == nil || cur.Name() != "Reverb Time" {
		t.Fatalf("FindParameter(%v) = %v, want hall Reverb Time", addr, cur)
	}
	if reg.FindParameterTable(cur).Category() != CategoryReverb {
		t.Error("built parameter has no owning table")
	}

	before := reg.Len()
	room := reg.FindParameterByType(addr, roomType)
	if room == nil || room.Name() != "HPF Cutoff" {
		t.Fatalf("FindParameterByType(room) = %v", room)
	}
	if reg.Len() != before || reg.FindParameterTable(room) != nil {
		t.Errorf("lookup of a non-current type registered it: Len() = %d, want %d", reg.Len(), before)
	}
	if reg.Table(CategoryReverb).FindGroup(roomType) != nil {
		t.Error("lookup of a non-current type built its group")
	}
	if got := reg.FindParameterByType(addr, hallType); got != cur {
		t.Errorf("FindParameterByType(current type) = %p, want %p", got, cur)
	}
	if reg.FindParameterByType(Address(0x02, 0x01, 0x0C), roomType) == nil {
		t.Error("static reverb return should resolve under any type")
	}
	if reg.FindParameterByType(Address(0x00, 0x00, 0x04), roomType) == nil {
		t.Error("etype should be ignored outside effect categories")
	}

	if err := typeParam.SetValue(uint32(roomType), nil); err != nil {
		t.Fatal(err)
	}
	if reg.FindParameterTable(cur) != nil {
		t.Error("discarded parameter still owned")
	}
	if got := reg.FindParameter(addr); got == nil || got.Name() != "HPF Cutoff" || got == room {
		t.Errorf("FindParameter after switch = %v", got)
	}
}

func TestRegistryScenarioSystemTable(t *testing.T) {
	reg := NewRegistry()
	p := NewParameter(Address(0x43, 0x10, 0x00), &Item{Size: 1, Max: 127, Name: "Test", Default: 64})
	if err := reg.AddTo(p, CategorySystem, 0); err != nil {
		t.Fatal(err)
	}
	if reg.Table(CategorySystem).FindParameter(0x00) != p {
		t.Error("parameter not reachable through its table")
	}
	if reg.FindParameter(p.Key()) != p {
		t.Error("parameter not reachable through the flat index")
	}
}

type watcher struct {
	recorder
	tableResets []Category
}

func (w *watcher) OnTableReset(t *Table) {
	w.tableResets = append(w.tableResets, t.Category())
}

func TestRegistryWatch(t *testing.T) {
	reg, typeParam := newTestRegistry(t)

	var events []string
	w := &watcher{recorder: recorder{name: "w", events: &events}}
	reg.Watch(w)
	reg.Watch(w)

	if err := reg.FindParameter(Address(0x00, 0x00, 0x04)).SetValue(10, nil); err != nil {
		t.Fatal(err)
	}
	built := reg.FindParameter(Address(0x02, 0x01, 0x05))
	if err := built.SetValue(30, nil); err != nil {
		t.Fatal(err)
	}
	if err := typeParam.SetValue(uint32(roomType), nil); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"w:update:00/00/04=10",
		"w:update:02/01/05=30",
		"w:update:02/01/00=" + itoa(uint32(roomType)),
	}
	if !slices.Equal(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if !slices.Equal(w.tableResets, []Category{CategoryReverb}) {
		t.Errorf("table resets = %v", w.tableResets)
	}
	if slices.Contains(built.Observers(), Observer(w)) {
		t.Error("watcher still attached to discarded parameter")
	}

	reg.Unwatch(w)
	events = nil
	if err := reg.FindParameter(Address(0x00, 0x00, 0x04)).SetValue(11, nil); err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("unwatched observer received %v", events)
	}
}

func TestRegistryParametersOrder(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_ = reg.FindParameter(Address(0x02, 0x01, 0x05))

	var keys []string
	for _, p := range reg.Parameters() {
		keys = append(keys, p.Key().String())
	}
	want := []string{"00/00/04", "02/01/00", "02/01/05", "02/01/0C", "08/01/0B"}
	if !slices.Equal(keys, want) {
		t.Errorf("Parameters() = %v, want %v", keys, want)
	}
	if n := len(reg.StaticParameters()); n != 4 {
		t.Errorf("StaticParameters() = %d, want 4", n)
	}
}

func TestRegistryDo(t *testing.T) {
	reg, _ := newTestRegistry(t)
	vol := reg.FindParameter(Address(0x00, 0x00, 0x04))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(v uint32) {
			defer wg.Done()
			_ = reg.Do(func() error {
				return vol.SetValue(v, nil)
			})
		}(uint32(i))
	}
	wg.Wait()

	wantErr := errors.New("stop")
	if err := reg.Do(func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("Do() error = %v", err)
	}
}

func itoa(u uint32) string {
	return formatNumber(float64(u))
}

func TestRegistryCurrentParametersAndReset(t *testing.T) {
	reg, typeParam := newTestRegistry(t)

	var names []string
	for _, p := range reg.CurrentParameters() {
		names = append(names, p.Key().String()+" "+p.Name())
	}
	want := []string{
		"00/00/04 Master Volume",
		"02/01/00 Reverb Type",
		"02/01/0C Reverb Return",
		"08/01/0B Volume",
		"02/01/05 Reverb Time",
	}
	if !slices.Equal(names, want) {
		t.Errorf("CurrentParameters() = %v, want %v", names, want)
	}

	if err := typeParam.SetValue(uint32(roomType), nil); err != nil {
		t.Fatal(err)
	}
	if err := reg.FindParameter(Address(0x00, 0x00, 0x04)).SetValue(3, nil); err != nil {
		t.Fatal(err)
	}

	if err := reg.Reset(nil); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if typeParam.Value() != uint32(hallType) {
		t.Errorf("type after Reset = %d, want hall", typeParam.Value())
	}
	if got := reg.FindParameter(Address(0x00, 0x00, 0x04)).Value(); got != 127 {
		t.Errorf("master volume after Reset = %d", got)
	}
	if p := reg.FindParameter(Address(0x02, 0x01, 0x05)); p == nil || p.Value() != 25 {
		t.Errorf("hall slot after Reset = %v", p)
	}
}
