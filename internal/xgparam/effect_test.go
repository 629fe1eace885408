package xgparam

import (
	"errors"
	"testing"
)

func TestEffectParameterResolvesPerType(t *testing.T) {
	key := Address(0x02, 0x01, 0x05)
	item := dependentItem(0x05, 3)

	hall, err := NewEffectParameter(key, item, hallType, testEffects)
	if err != nil {
		t.Fatalf("NewEffectParameter(hall) error: %v", err)
	}
	room, err := NewEffectParameter(key, item, roomType, testEffects)
	if err != nil {
		t.Fatalf("NewEffectParameter(room) error: %v", err)
	}

	if got := hall.Name(); got != "Reverb Time" {
		t.Errorf("hall Name() = %q, want %q", got, "Reverb Time")
	}
	if got := room.Name(); got != "HPF Cutoff" {
		t.Errorf("room Name() = %q, want %q", got, "HPF Cutoff")
	}
	if hall.Max() != 69 || room.Max() != 52 {
		t.Errorf("Max() = %d/%d, want 69/52", hall.Max(), room.Max())
	}
	if hall.Value() != 25 || room.Value() != 0 {
		t.Errorf("initial values = %d/%d, want effect defaults 25/0", hall.Value(), room.Value())
	}
	if hall.Unit() != "s" || room.Unit() != "Hz" {
		t.Errorf("Unit() = %q/%q", hall.Unit(), room.Unit())
	}

	if err := room.SetValue(60, nil); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("room SetValue(60) error = %v, want ErrOutOfRange", err)
	}
	if err := hall.SetValue(60, nil); err != nil {
		t.Errorf("hall SetValue(60) error: %v", err)
	}

	etype, ok := hall.EffectType()
	if !ok || etype != hallType {
		t.Errorf("EffectType() = %v, %v; want %v", etype, ok, hallType)
	}
	if hall.EffectName() != "Hall 1" {
		t.Errorf("EffectName() = %q", hall.EffectName())
	}
}

func TestEffectParameterConversion(t *testing.T) {
	p, err := NewEffectParameter(Address(0x02, 0x01, 0x02), dependentItem(0x02, 0), hallType, testEffects)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetValue(2, nil); err != nil {
		t.Fatal(err)
	}
	if got := p.DisplayValue(); got != 0.5 {
		t.Errorf("DisplayValue() = %v, want 0.5", got)
	}
	if got := p.Text(); got != "0.5 s" {
		t.Errorf("Text() = %q, want %q", got, "0.5 s")
	}
	if got := p.FromDisplay(0.42); got != 1 {
		t.Errorf("FromDisplay(0.42) = %d, want 1", got)
	}
}

func TestEffectParameterFallsBackToBase(t *testing.T) {
	item := &Item{ID: 0x0C, Size: 1, Max: 127, Name: "Reverb Return", Default: 64}
	p, err := NewEffectParameter(Address(0x02, 0x01, 0x0C), item, roomType, testEffects)
	if err != nil {
		t.Fatalf("NewEffectParameter() error: %v", err)
	}
	if p.Name() != "Reverb Return" || p.Default() != 64 || p.Value() != 64 {
		t.Errorf("fallback = %q default %d value %d", p.Name(), p.Default(), p.Value())
	}
}

func TestEffectParameterUnresolved(t *testing.T) {
	tests := []struct {
		name  string
		etype uint16
		index uint8
	}{
		{"unused slot", roomType, 0},
		{"unknown type", EffectType(0x7F, 0x00), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEffectParameter(Address(0x02, 0x01, 0x02), dependentItem(0x02, tt.index), tt.etype, testEffects)
			if !errors.Is(err, ErrUnresolvedEffectParameter) {
				t.Errorf("error = %v, want ErrUnresolvedEffectParameter", err)
			}
		})
	}

	if _, err := NewEffectParameter(Address(0x02, 0x01, 0x02), nil, hallType, testEffects); !errors.Is(err, ErrNilParameter) {
		t.Errorf("nil item error = %v, want ErrNilParameter", err)
	}
}

func TestEffectTypeEncoding(t *testing.T) {
	if got := EffectType(0x41, 0x02); got != 0x41<<7|0x02 {
		t.Errorf("EffectType(41,02) = %#x", got)
	}
	if got := FormatEffectType(EffectType(0x41, 0x02)); got != "41/02" {
		t.Errorf("FormatEffectType() = %q, want %q", got, "41/02")
	}
	e := testEffects.EffectItem(roomType)
	if e == nil || e.Name != "Room 1" || e.Type() != roomType {
		t.Errorf("EffectItem(room) = %+v", e)
	}
}

func TestParseEffectType(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"41/02", EffectType(0x41, 0x02), false},
		{"01/00", 128, false},
		{"128", 128, false},
		{"0x80", 128, false},
		{"16383", 0x3FFF, false},
		{"16384", 0, true},
		{"80/00", 0, true},
		{"reverb", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEffectType(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEffectType) {
					t.Errorf("ParseEffectType(%q) error = %v, want ErrInvalidEffectType", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseEffectType(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
			}
		})
	}
}
