package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/xgparam-core/internal/infrastructure/database"
	"github.com/nerrad567/xgparam-core/internal/xgdata"
	"github.com/nerrad567/xgparam-core/internal/xgparam"
	"github.com/nerrad567/xgparam-core/migrations"
)

var (
	masterVolume = xgparam.Address(0x00, 0x00, 0x04)
	reverbType   = xgparam.Address(0x02, 0x01, 0x00)
	reverbTime   = xgparam.Address(0x02, 0x01, 0x02)
	reverbReturn = xgparam.Address(0x02, 0x01, 0x0C)
	part2Volume  = xgparam.Address(0x08, 0x01, 0x0B)

	hall1 = xgparam.EffectType(0x01, 0x00)
	room1 = xgparam.EffectType(0x02, 0x00)
)

func newRegistry(t *testing.T, parts int) *xgparam.Registry {
	t.Helper()
	reg := xgparam.NewRegistry()
	if err := xgdata.Populate(reg, xgdata.NewCatalog(), xgdata.Options{Parts: parts, DrumSetups: 1}); err != nil {
		t.Fatalf("Populate() error: %v", err)
	}
	return reg
}

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: database.MemoryPath, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("database.Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	repo := NewSQLiteRepository(db.DB, "MU128")
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return repo
}

func set(t *testing.T, r *xgparam.Registry, k xgparam.AddressKey, u uint32) {
	t.Helper()
	p := r.FindParameter(k)
	if p == nil {
		t.Fatalf("no parameter at %s", k)
	}
	if err := p.SetValue(u, nil); err != nil {
		t.Fatalf("SetValue(%s, %d) error: %v", k, u, err)
	}
}

func value(t *testing.T, r *xgparam.Registry, k xgparam.AddressKey) uint32 {
	t.Helper()
	p := r.FindParameter(k)
	if p == nil {
		t.Fatalf("no parameter at %s", k)
	}
	return p.Value()
}

// editedRegistry returns a registry with room reverb and a few non-default
// values.
func editedRegistry(t *testing.T) *xgparam.Registry {
	t.Helper()
	reg := newRegistry(t, 2)
	set(t, reg, reverbType, uint32(room1))
	set(t, reg, reverbTime, 30)
	set(t, reg, reverbReturn, 90)
	set(t, reg, masterVolume, 100)
	set(t, reg, part2Volume, 64)
	return reg
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"Live Set 1", false},
		{"autosave", false},
		{"", true},
		{" padded", true},
		{"a/b", true},
		{"tab\there", true},
		{string(make([]byte, maxNameLength+1)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("error %v does not wrap ErrInvalidName", err)
			}
		})
	}
}

func TestCaptureRecordsEffectType(t *testing.T) {
	reg := editedRegistry(t)
	values := Capture(reg)

	if len(values) != len(reg.CurrentParameters()) {
		t.Fatalf("Capture() = %d values, want %d", len(values), len(reg.CurrentParameters()))
	}

	var sawTime, sawVolume bool
	for _, v := range values {
		switch v.Address {
		case reverbTime:
			sawTime = true
			if v.EffectType != room1 || v.Value != 30 {
				t.Errorf("reverb time captured as %+v", v)
			}
		case masterVolume:
			sawVolume = true
			if v.EffectType != 0 || v.Value != 100 {
				t.Errorf("master volume captured as %+v", v)
			}
		}
	}
	if !sawTime || !sawVolume {
		t.Error("Capture() missed expected parameters")
	}
}

func TestApplyOrdersSelectorsFirst(t *testing.T) {
	src := editedRegistry(t)
	values := Capture(src)

	// Reverse so the effect slot precedes its type selector.
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}

	dst := newRegistry(t, 2)
	res := Apply(dst, values, nil)

	if res.Unresolved != 0 || res.Rejected != 0 {
		t.Errorf("Apply() = %+v, want everything applied", res)
	}
	if res.Applied != len(values) {
		t.Errorf("Applied = %d, want %d", res.Applied, len(values))
	}
	for _, k := range []xgparam.AddressKey{reverbType, reverbTime, reverbReturn, masterVolume, part2Volume} {
		if got, want := value(t, dst, k), value(t, src, k); got != want {
			t.Errorf("%s = %d, want %d", k, got, want)
		}
	}
}

func TestApplySkipsAndCounts(t *testing.T) {
	reg := newRegistry(t, 1)

	res := Apply(reg, []Value{
		{Address: reverbTime, EffectType: room1, Value: 10}, // type is hall, not room
		{Address: part2Volume, Value: 50},                   // only one part
		{Address: masterVolume, Value: 500},                 // out of range
		{Address: reverbReturn, Value: 70},
	}, nil)

	want := LoadResult{Applied: 1, Unresolved: 2, Rejected: 1}
	if res != want {
		t.Errorf("Apply() = %+v, want %+v", res, want)
	}
	if value(t, reg, reverbReturn) != 70 {
		t.Error("reverb return not applied")
	}
	if reg.Table(xgparam.CategoryReverb).CurrentKey() != hall1 {
		t.Error("stale effect row changed the reverb type")
	}
}

func TestApplySkipsSender(t *testing.T) {
	reg := newRegistry(t, 1)

	var calls int
	obs := &xgparam.ObserverFuncs{Update: func(*xgparam.Parameter) { calls++ }}
	reg.Watch(obs)

	Apply(reg, []Value{{Address: masterVolume, Value: 1}}, obs)
	if calls != 0 {
		t.Errorf("sender notified %d times", calls)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	src := editedRegistry(t)

	snap, err := repo.Save(ctx, "Live Set 1", src)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if snap.Name != "Live Set 1" || snap.Device != "MU128" || snap.Values != len(src.CurrentParameters()) {
		t.Errorf("Save() = %+v", snap)
	}

	dst := newRegistry(t, 2)
	res, err := repo.Load(ctx, "Live Set 1", dst)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if res.Applied != snap.Values || res.Unresolved != 0 || res.Rejected != 0 {
		t.Errorf("Load() = %+v", res)
	}
	for _, k := range []xgparam.AddressKey{reverbType, reverbTime, reverbReturn, masterVolume, part2Volume} {
		if got, want := value(t, dst, k), value(t, src, k); got != want {
			t.Errorf("%s = %d, want %d", k, got, want)
		}
	}
}

func TestLoadIntoSmallerRegistry(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	if _, err := repo.Save(ctx, "two parts", editedRegistry(t)); err != nil {
		t.Fatal(err)
	}

	res, err := repo.Load(ctx, "two parts", newRegistry(t, 1))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if res.Unresolved == 0 || res.Applied == 0 {
		t.Errorf("Load() = %+v, want part 2 rows unresolved", res)
	}
}

func TestSaveReplacesValuesKeepsNotes(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	reg := editedRegistry(t)

	first, err := repo.Save(ctx, "scratch", reg)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Annotate(ctx, "scratch", "dark hall"); err != nil {
		t.Fatalf("Annotate() error: %v", err)
	}

	set(t, reg, masterVolume, 20)
	second, err := repo.Save(ctx, "scratch", reg)
	if err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID {
		t.Errorf("ID changed from %d to %d", first.ID, second.ID)
	}
	if second.Notes != "dark hall" {
		t.Errorf("Notes = %q, want kept", second.Notes)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("timestamps: first %+v second %+v", first, second)
	}

	values, err := repo.Values(ctx, "scratch")
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != first.Values {
		t.Errorf("Values() = %d rows, want %d", len(values), first.Values)
	}
	for _, v := range values {
		if v.Address == masterVolume && v.Value != 20 {
			t.Errorf("master volume stored as %d, want 20", v.Value)
		}
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	reg := newRegistry(t, 1)

	list, err := repo.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("List() on empty store = %v, %v", list, err)
	}

	for _, name := range []string{"a", "b"} {
		if _, err := repo.Save(ctx, name, reg); err != nil {
			t.Fatal(err)
		}
	}

	list, err = repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "b" {
		t.Errorf("List() = %+v, want b then a", list)
	}

	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := repo.Values(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Values() after delete = %v, want ErrNotFound", err)
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	reg := newRegistry(t, 1)

	tests := []struct {
		name string
		call func() error
	}{
		{"Get", func() error { _, err := repo.Get(ctx, "missing"); return err }},
		{"Load", func() error { _, err := repo.Load(ctx, "missing", reg); return err }},
		{"Annotate", func() error { return repo.Annotate(ctx, "missing", "x") }},
		{"Delete", func() error { return repo.Delete(ctx, "missing") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrNotFound) {
				t.Errorf("%s() = %v, want ErrNotFound", tt.name, err)
			}
		})
	}
}

func TestSaveRejectsInvalidName(t *testing.T) {
	repo := setupRepo(t)
	if _, err := repo.Save(context.Background(), "a/b", newRegistry(t, 1)); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Save() = %v, want ErrInvalidName", err)
	}
}
