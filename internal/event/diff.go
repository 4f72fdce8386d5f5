package event

import (
	"sort"
)

// Changed fields reported by DetectChanges
const (
	FieldURL      = "url"
	FieldImageURL = "image_url"
	FieldPerks    = "perks"
)

// EventChange is one non-key field that differs between two runs.
type EventChange struct {
	Key      Key    `json:"key"`
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// DiffResult compares a run's rows against the previous export.
type DiffResult struct {
	New       []Event        `json:"new"`
	Changes   []*EventChange `json:"changes"`
	Updated   int            `json:"updated"`
	Unchanged int            `json:"unchanged"`
}

// Diff classifies current rows as new, updated or unchanged relative to
// previous, matching on the identity triple. New events come back oldest
// first.
func Diff(previous, current []Event) *DiffResult {
	result := &DiffResult{
		New:     make([]Event, 0),
		Changes: make([]*EventChange, 0),
	}

	before := make(map[Key]Event, len(previous))
	for _, e := range previous {
		before[e.Key()] = e
	}

	for _, evt := range current {
		prev, exists := before[evt.Key()]
		if !exists {
			result.New = append(result.New, evt)
			continue
		}
		changes := DetectChanges(prev, evt)
		if len(changes) == 0 {
			result.Unchanged++
			continue
		}
		result.Updated++
		result.Changes = append(result.Changes, changes...)
	}

	// Sort new events for consistent output
	sort.Slice(result.New, func(i, j int) bool {
		if !result.New[i].DateTime.Equal(result.New[j].DateTime) {
			return result.New[i].DateTime.Before(result.New[j].DateTime)
		}
		return result.New[i].Title < result.New[j].Title
	})

	return result
}

// DetectChanges compares the optional fields of two rows sharing a key.
func DetectChanges(previous, current Event) []*EventChange {
	var changes []*EventChange

	fields := []struct {
		name     string
		old, new *string
	}{
		{FieldURL, previous.URL, current.URL},
		{FieldImageURL, previous.ImageURL, current.ImageURL},
		{FieldPerks, previous.Perks, current.Perks},
	}

	for _, f := range fields {
		oldValue, newValue := StringValue(f.old), StringValue(f.new)
		if oldValue == newValue {
			continue
		}
		changes = append(changes, &EventChange{
			Key:      current.Key(),
			Field:    f.name,
			OldValue: oldValue,
			NewValue: newValue,
		})
	}

	return changes
}
