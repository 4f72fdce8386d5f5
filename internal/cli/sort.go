package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/perk-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate     SortOrder = "date"
	SortByTitle    SortOrder = "title"
	SortByLocation SortOrder = "location"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortByDate, SortByTitle, SortByLocation:
		return order, nil
	case "":
		return SortByDate, nil
	default:
		return "", fmt.Errorf("invalid sort: %s (must be 'date', 'title' or 'location')", s)
	}
}

// sortEvents sorts a slice of events based on the specified sort order
func sortEvents(events []event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByTitle:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	case SortByLocation:
		sort.SliceStable(events, func(i, j int) bool {
			li, lj := strings.ToLower(events[i].Location), strings.ToLower(events[j].Location)
			if li != lj {
				return li < lj
			}
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate compares two events by their start time
// Returns true if event i should come before event j
func compareByDate(i, j event.Event) bool {
	if !i.DateTime.Equal(j.DateTime) {
		return i.DateTime.Before(j.DateTime)
	}
	// Same start: sort by title
	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}
