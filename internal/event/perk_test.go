package event

import (
	"reflect"
	"testing"
)

func TestParsePerk(t *testing.T) {
	tests := []struct {
		input string
		want  Perk
		ok    bool
	}{
		{"Credit", PerkCredit, true},
		{"freefood", PerkFreeFood, true},
		{" Free Food ", PerkFreeFood, true},
		{"merch", PerkMerchandise, true},
		{"Merchandise", PerkMerchandise, true},
		{"parking", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePerk(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParsePerk(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestJoinAndSplitPerks(t *testing.T) {
	if got := JoinPerks(nil); got != nil {
		t.Errorf("JoinPerks(nil) = %q, want nil", *got)
	}

	joined := JoinPerks([]Perk{PerkMerchandise, PerkFreeFood, PerkCredit, PerkFreeFood})
	if joined == nil || *joined != "Credit, FreeFood, Merchandise" {
		t.Fatalf("JoinPerks() = %v", joined)
	}

	split := SplitPerks(*joined)
	if !reflect.DeepEqual(split, AllPerks) {
		t.Errorf("SplitPerks() = %v, want %v", split, AllPerks)
	}

	if got := SplitPerks("Credit, Parking"); !reflect.DeepEqual(got, []Perk{PerkCredit}) {
		t.Errorf("SplitPerks() with unknown tag = %v", got)
	}
}

func TestEventKey(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	rows, _ := Normalize([]RawEvent{
		{Title: "A", DateTimeText: "Jan 5, 2025 3:00 PM", LocationText: "B"},
	}, NormalizeOptions{Location: ny})

	if got := rows[0].Key().String(); got != "A|2025-01-05T20:00:00Z|B" {
		t.Errorf("Key().String() = %q", got)
	}
}
