package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
	"github.com/pfrederiksen/perk-events/internal/filter"
)

// Source is the read side of the event store.
type Source interface {
	EventsBetween(ctx context.Context, start, end time.Time) ([]event.Event, error)
}

// Builder queries tomorrow's events.
type Builder struct {
	Source   Source
	Location *time.Location
	Now      func() time.Time
}

// Digest is tomorrow's event list with the window it was drawn from.
type Digest struct {
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Events   []event.Event  `json:"events"`
	Location *time.Location `json:"-"`
}

// Build fetches the events in tomorrow's local day, oldest first.
func (b *Builder) Build(ctx context.Context) (*Digest, error) {
	loc := b.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	start, end := event.TomorrowWindow(now(), loc)

	events, err := b.Source.EventsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching tomorrow's events: %w", err)
	}
	if events == nil {
		events = []event.Event{}
	}

	return &Digest{
		Start:    start,
		End:      end,
		Events:   events,
		Location: loc,
	}, nil
}

// Filter returns a copy of d holding only the events f matches.
func (d *Digest) Filter(f *filter.Filter) *Digest {
	out := *d
	out.Events = f.Apply(d.Events)
	return &out
}

// Empty reports whether the digest has no events.
func (d *Digest) Empty() bool {
	return len(d.Events) == 0
}

// Day returns tomorrow's date in the campus zone.
func (d *Digest) Day() time.Time {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return d.Start.In(loc)
}
