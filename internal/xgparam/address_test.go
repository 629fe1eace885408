package xgparam

import (
	"errors"
	"testing"
)

func TestParseAddressKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    AddressKey
		wantErr bool
	}{
		{"slash", "02/01/0C", Address(0x02, 0x01, 0x0C), false},
		{"lower case", "08/0f/7e", Address(0x08, 0x0F, 0x7E), false},
		{"colon", "00:00:04", Address(0x00, 0x00, 0x04), false},
		{"space", "30 24 0B", Address(0x30, 0x24, 0x0B), false},
		{"compact", "02010C", Address(0x02, 0x01, 0x0C), false},
		{"padded", "  02/01/0C ", Address(0x02, 0x01, 0x0C), false},
		{"two levels", "02/01", AddressKey{}, true},
		{"four levels", "02/01/0C/00", AddressKey{}, true},
		{"not hex", "02/01/ZZ", AddressKey{}, true},
		{"too wide", "02/01/100", AddressKey{}, true},
		{"compact short", "02010", AddressKey{}, true},
		{"empty", "", AddressKey{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddressKey(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Fatalf("ParseAddressKey(%q) error = %v, want ErrInvalidAddress", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddressKey(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAddressKey(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAddressKeyFormatting(t *testing.T) {
	k := Address(0x02, 0x01, 0x0C)
	if got := k.String(); got != "02/01/0C" {
		t.Errorf("String() = %q, want %q", got, "02/01/0C")
	}
	if got := k.Hex(); got != "02010C" {
		t.Errorf("Hex() = %q, want %q", got, "02010C")
	}
	if got := k.Bytes(); got != [3]byte{0x02, 0x01, 0x0C} {
		t.Errorf("Bytes() = %v", got)
	}

	back, err := ParseAddressKey(k.String())
	if err != nil || back != k {
		t.Errorf("ParseAddressKey(String()) = %v, %v; want %v", back, err, k)
	}
}

func TestAddressKeyAsMapKey(t *testing.T) {
	m := map[AddressKey]int{Address(0x08, 0x00, 0x0B): 1}
	if m[Address(0x08, 0x00, 0x0B)] != 1 {
		t.Error("structurally equal keys should hit the same entry")
	}
	if _, ok := m[Address(0x08, 0x01, 0x0B)]; ok {
		t.Error("different mid byte should miss")
	}
}

func TestAddressKeyOffset(t *testing.T) {
	tests := []struct {
		start AddressKey
		n     int
		want  AddressKey
	}{
		{Address(0x02, 0x01, 0x00), 12, Address(0x02, 0x01, 0x0C)},
		{Address(0x08, 0x00, 0x7F), 1, Address(0x08, 0x01, 0x00)},
		{Address(0x00, 0x00, 0x00), 0, Address(0x00, 0x00, 0x00)},
	}
	for _, tt := range tests {
		if got := tt.start.Offset(tt.n); got != tt.want {
			t.Errorf("%v.Offset(%d) = %v, want %v", tt.start, tt.n, got, tt.want)
		}
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name    string
		key     AddressKey
		wantCat Category
		wantKey uint16
		wantErr bool
	}{
		{"master volume", Address(0x00, 0x00, 0x04), CategorySystem, 0, false},
		{"reverb type", Address(0x02, 0x01, 0x00), CategoryReverb, SharedKey, false},
		{"reverb pan", Address(0x02, 0x01, 0x0D), CategoryReverb, SharedKey, false},
		{"chorus type", Address(0x02, 0x01, 0x20), CategoryChorus, SharedKey, false},
		{"variation return", Address(0x02, 0x01, 0x56), CategoryVariation, SharedKey, false},
		{"part 3 volume", Address(0x08, 0x02, 0x0B), CategoryMultiPart, 2, false},
		{"drum 2 note 36", Address(0x31, 0x24, 0x02), CategoryDrumSetup, 1<<7 | 0x24, false},
		{"yamaha id bytes", Address(0x43, 0x10, 0x00), 0, 0, true},
		{"multi eq", Address(0x02, 0x40, 0x00), 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, key, err := Route(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrUnroutableAddress) {
					t.Fatalf("Route(%v) error = %v, want ErrUnroutableAddress", tt.key, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Route(%v) unexpected error: %v", tt.key, err)
			}
			if cat != tt.wantCat || key != tt.wantKey {
				t.Errorf("Route(%v) = %v/%d, want %v/%d", tt.key, cat, key, tt.wantCat, tt.wantKey)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCategory(%q) = %v, %v", c.String(), got, err)
		}
	}
	if got, err := ParseCategory("REVERB"); err != nil || got != CategoryReverb {
		t.Errorf("ParseCategory(REVERB) = %v, %v", got, err)
	}
	if _, err := ParseCategory("insertion"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("ParseCategory(insertion) error = %v, want ErrUnknownCategory", err)
	}
}
