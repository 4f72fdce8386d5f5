package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

// naiveTimestamp is how PostgREST renders a timestamp column without a zone.
const naiveTimestamp = "2006-01-02T15:04:05.999999999"

// Supabase stores events through the Supabase REST API.
type Supabase struct {
	client *supabase.Client
}

// supabaseRow is the wire shape of an events row.
type supabaseRow struct {
	Title    string  `json:"title"`
	DateTime string  `json:"date_time"`
	Location string  `json:"location"`
	URL      *string `json:"url"`
	ImageURL *string `json:"image_url"`
	Perks    *string `json:"perks"`
}

// NewSupabase creates a client for the project at url using key.
func NewSupabase(url, key string) (*Supabase, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &Supabase{client: client}, nil
}

func (s *Supabase) UpsertEvents(ctx context.Context, rows []event.Event) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	payload := make([]supabaseRow, len(rows))
	for i, row := range rows {
		payload[i] = toSupabaseRow(row)
	}

	_, _, err := s.client.From(Table).
		Upsert(payload, strings.Join(ConflictColumns, ","), "minimal", "").
		Execute()
	if err != nil {
		return 0, fmt.Errorf("upserting %d events: %w", len(rows), err)
	}
	return len(rows), nil
}

func (s *Supabase) EventsBetween(ctx context.Context, start, end time.Time) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Both bounds filter date_time, so they go in one logic tree rather than
	// two column filters.
	bounds := fmt.Sprintf("and(date_time.gte.%s,date_time.lt.%s)",
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))

	data, _, err := s.client.From(Table).
		Select("*", "", false).
		Or(bounds, "").
		Order("date_time", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}

	var raw []supabaseRow
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}

	rows := make([]event.Event, 0, len(raw))
	for _, r := range raw {
		row, err := r.toEvent()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	sortByTime(rows)
	return rows, nil
}

func (s *Supabase) Close(context.Context) error {
	return nil
}

func toSupabaseRow(e event.Event) supabaseRow {
	return supabaseRow{
		Title:    e.Title,
		DateTime: e.DateTime.UTC().Format(time.RFC3339),
		Location: e.Location,
		URL:      e.URL,
		ImageURL: e.ImageURL,
		Perks:    e.Perks,
	}
}

func (r supabaseRow) toEvent() (event.Event, error) {
	when, err := parseStoredTime(r.DateTime)
	if err != nil {
		return event.Event{}, fmt.Errorf("decoding date_time of %q: %w", r.Title, err)
	}
	return event.Event{
		Title:    r.Title,
		DateTime: when,
		Location: r.Location,
		URL:      r.URL,
		ImageURL: r.ImageURL,
		Perks:    r.Perks,
	}, nil
}

// parseStoredTime accepts ISO instants with or without an offset; naive
// values are UTC.
func parseStoredTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(naiveTimestamp, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
