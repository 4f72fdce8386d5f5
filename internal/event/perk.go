package event

import (
	"sort"
	"strings"
)

// Perk is an incentive tag attached to an event.
type Perk string

const (
	PerkCredit      Perk = "Credit"
	PerkFreeFood    Perk = "FreeFood"
	PerkMerchandise Perk = "Merchandise"
)

// AllPerks is the fixed perk vocabulary, in sorted order.
var AllPerks = []Perk{PerkCredit, PerkFreeFood, PerkMerchandise}

// PerkSeparator joins perk tags in the stored perks column.
const PerkSeparator = ", "

// ParsePerk resolves a tag case-insensitively. Short aliases used by the
// preferences form (food, merch) are accepted.
func ParsePerk(s string) (Perk, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit":
		return PerkCredit, true
	case "freefood", "free_food", "free food", "food":
		return PerkFreeFood, true
	case "merchandise", "merch":
		return PerkMerchandise, true
	}
	return "", false
}

// SortPerks returns the deduplicated, sorted set of tags.
func SortPerks(perks []Perk) []Perk {
	seen := make(map[Perk]bool, len(perks))
	out := make([]Perk, 0, len(perks))
	for _, p := range perks {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// JoinPerks renders tags for the perks column; nil when there are none.
func JoinPerks(perks []Perk) *string {
	sorted := SortPerks(perks)
	if len(sorted) == 0 {
		return nil
	}
	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = string(p)
	}
	joined := strings.Join(parts, PerkSeparator)
	return &joined
}

// SplitPerks is the inverse of JoinPerks. Unknown tags are dropped.
func SplitPerks(s string) []Perk {
	var perks []Perk
	for _, part := range strings.Split(s, ",") {
		if p, ok := ParsePerk(part); ok {
			perks = append(perks, p)
		}
	}
	return SortPerks(perks)
}
