package filter

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/perk-events/internal/event"
)

// ParsePerks parses a comma-separated perk list such as "credit, food".
// Tags are matched case-insensitively and may use the short aliases
// accepted by event.ParsePerk. The result is sorted and unique.
func ParsePerks(input string) ([]event.Perk, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	var perks []event.Perk
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, ok := event.ParsePerk(part)
		if !ok {
			return nil, fmt.Errorf("unknown perk %q (use credit, food or merch)", part)
		}
		perks = append(perks, p)
	}

	return event.SortPerks(perks), nil
}

// ParseList splits a comma-separated list, trimming entries and dropping
// blanks.
func ParseList(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Parse builds a filter from its three comma-separated parts.
func Parse(perks, locations, keywords string) (*Filter, error) {
	parsed, err := ParsePerks(perks)
	if err != nil {
		return nil, err
	}
	f := NewFilter()
	if parsed != nil {
		f.Perks = parsed
	}
	if l := ParseList(locations); l != nil {
		f.Locations = l
	}
	if k := ParseList(keywords); k != nil {
		f.Keywords = k
	}
	return f, nil
}
