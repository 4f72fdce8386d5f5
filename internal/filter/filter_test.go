package filter

import (
	"testing"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
)

func strPtr(s string) *string { return &s }

func testEvent(title, location string, perks *string) event.Event {
	return event.Event{
		Title:    title,
		DateTime: time.Date(2025, 3, 11, 16, 0, 0, 0, time.UTC),
		Location: location,
		Perks:    perks,
	}
}

func TestFilter_IsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		want   bool
	}{
		{
			name:   "empty filter",
			filter: NewFilter(),
			want:   true,
		},
		{
			name:   "nil filter",
			filter: nil,
			want:   true,
		},
		{
			name:   "filter with perks",
			filter: &Filter{Perks: []event.Perk{event.PerkCredit}},
			want:   false,
		},
		{
			name:   "filter with location",
			filter: &Filter{Locations: []string{"Union"}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.IsEmpty(); got != tt.want {
				t.Errorf("Filter.IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		event  event.Event
		want   bool
	}{
		{
			name:   "empty filter matches all",
			filter: NewFilter(),
			event:  testEvent("Anything", "Anywhere", nil),
			want:   true,
		},
		{
			name:   "perk filter matches one of several",
			filter: &Filter{Perks: []event.Perk{event.PerkFreeFood}},
			event:  testEvent("Lunch", "Union", strPtr("Credit, FreeFood")),
			want:   true,
		},
		{
			name:   "perk filter does not match",
			filter: &Filter{Perks: []event.Perk{event.PerkMerchandise}},
			event:  testEvent("Lunch", "Union", strPtr("Credit, FreeFood")),
			want:   false,
		},
		{
			name:   "event without perks never matches a perk filter",
			filter: &Filter{Perks: []event.Perk{event.PerkCredit}},
			event:  testEvent("Lunch", "Union", nil),
			want:   false,
		},
		{
			name:   "location substring match ignores case",
			filter: &Filter{Locations: []string{"student union"}},
			event:  testEvent("Lunch", "Carolina Student Union 3408", nil),
			want:   true,
		},
		{
			name:   "keyword does not match",
			filter: &Filter{Keywords: []string{"pizza"}},
			event:  testEvent("Career Fair", "Gym", nil),
			want:   false,
		},
		{
			name: "all criteria must hold",
			filter: &Filter{
				Perks:     []event.Perk{event.PerkCredit},
				Locations: []string{"gym"},
			},
			event: testEvent("Career Fair", "Union", strPtr("Credit")),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.event); got != tt.want {
				t.Errorf("Filter.Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	events := []event.Event{
		testEvent("Lunch", "Union", strPtr("FreeFood")),
		testEvent("Career Fair", "Gym", strPtr("Credit, Merchandise")),
		testEvent("Study Hall", "Library", nil),
	}

	if got := NewFilter().Apply(events); len(got) != 3 {
		t.Errorf("empty filter kept %d events, want 3", len(got))
	}

	got := ForPerks([]event.Perk{event.PerkMerchandise, event.PerkFreeFood}).Apply(events)
	if len(got) != 2 {
		t.Fatalf("perk filter kept %d events, want 2", len(got))
	}
	if got[0].Title != "Lunch" || got[1].Title != "Career Fair" {
		t.Errorf("Apply should preserve order, got %q, %q", got[0].Title, got[1].Title)
	}
}

func TestFilter_String(t *testing.T) {
	if got := NewFilter().String(); got != "No active filters" {
		t.Errorf("String() = %q", got)
	}

	f := &Filter{Perks: []event.Perk{event.PerkCredit, event.PerkFreeFood}, Keywords: []string{"pizza"}}
	if got, want := f.String(), "Perks: Credit, FreeFood | Keywords: pizza"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
