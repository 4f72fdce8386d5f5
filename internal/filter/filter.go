// Package filter narrows digests down to the events a reader cares about.
//
// A filter can restrict events by:
//   - Perks (the event must offer at least one of them)
//   - Locations (case-insensitive substring match)
//   - Keywords in the title (case-insensitive substring match)
//
// Example usage:
//
//	// Only free food, anywhere on campus
//	f := filter.NewFilter()
//	f.Perks = []event.Perk{event.PerkFreeFood}
//
//	// Apply filter to events
//	filtered := f.Apply(events)
package filter

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/perk-events/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	// Perk filtering (any of)
	Perks []event.Perk `json:"perks,omitempty" yaml:"perks,omitempty"`

	// Location filtering (case-insensitive substring match)
	Locations []string `json:"locations,omitempty" yaml:"locations,omitempty"`

	// Title keyword filtering (case-insensitive substring match)
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Perks:     []event.Perk{},
		Locations: []string{},
		Keywords:  []string{},
	}
}

// ForPerks returns a filter restricted to perks.
func ForPerks(perks []event.Perk) *Filter {
	f := NewFilter()
	f.Perks = event.SortPerks(perks)
	return f
}

// IsEmpty checks if the filter has any active criteria.
// Returns true if the filter would match all events.
func (f *Filter) IsEmpty() bool {
	return f == nil ||
		len(f.Perks) == 0 &&
			len(f.Locations) == 0 &&
			len(f.Keywords) == 0
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events.
//
// Matching logic:
//   - Perks: the event must carry at least one of the filter's perks; events
//     without perks never match a perk filter
//   - Locations: event location must contain at least one entry
//   - Keywords: event title must contain at least one entry
func (f *Filter) Matches(evt event.Event) bool {
	if f.IsEmpty() {
		return true
	}

	if len(f.Perks) > 0 {
		matched := false
		for _, have := range evt.PerkList() {
			for _, want := range f.Perks {
				if have == want {
					matched = true
					break
				}
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.Locations) > 0 && !containsAny(evt.Location, f.Locations) {
		return false
	}

	if len(f.Keywords) > 0 && !containsAny(evt.Title, f.Keywords) {
		return false
	}

	return true
}

// Apply applies the filter to a list of events and returns only matching events.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(events []event.Event) []event.Event {
	if f.IsEmpty() {
		return events
	}

	filtered := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Returns "No active filters" if the filter is empty.
// Format: "Perks: Credit, FreeFood | Locations: Union | Keywords: pizza"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if len(f.Perks) > 0 {
		names := make([]string, len(f.Perks))
		for i, p := range f.Perks {
			names[i] = string(p)
		}
		parts = append(parts, fmt.Sprintf("Perks: %s", strings.Join(names, ", ")))
	}

	if len(f.Locations) > 0 {
		parts = append(parts, fmt.Sprintf("Locations: %s", strings.Join(f.Locations, ", ")))
	}

	if len(f.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("Keywords: %s", strings.Join(f.Keywords, ", ")))
	}

	return strings.Join(parts, " | ")
}

func containsAny(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(n))) {
			return true
		}
	}
	return false
}
