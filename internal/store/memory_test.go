package store

import (
	"context"
	"testing"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
)

func strPtr(s string) *string { return &s }

func at(hour int) time.Time {
	return time.Date(2025, time.March, 11, hour, 0, 0, 0, time.UTC)
}

func TestMemory_UpsertIsIdempotentOnIdentity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first := event.Event{Title: "Pizza", DateTime: at(16), Location: "Union", Perks: strPtr("FreeFood")}
	if _, err := m.UpsertEvents(ctx, []event.Event{first}); err != nil {
		t.Fatal(err)
	}

	updated := first
	updated.Perks = strPtr("Credit, FreeFood")
	updated.URL = strPtr("https://heellife.unc.edu/event/1")
	n, err := m.UpsertEvents(ctx, []event.Event{updated})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("UpsertEvents() = %d, want 1", n)
	}
	if m.Len() != 1 {
		t.Fatalf("store holds %d rows, want 1", m.Len())
	}

	rows, err := m.EventsBetween(ctx, at(0), at(23))
	if err != nil {
		t.Fatal(err)
	}
	if got := event.StringValue(rows[0].Perks); got != "Credit, FreeFood" {
		t.Errorf("perks = %q, want updated value", got)
	}
	if rows[0].URL == nil {
		t.Error("url should have been set by the second upsert")
	}
}

func TestMemory_SameTitleDifferentLocation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rows := []event.Event{
		{Title: "Info Session", DateTime: at(15), Location: "Union"},
		{Title: "Info Session", DateTime: at(15), Location: "Library"},
	}
	if _, err := m.UpsertEvents(ctx, rows); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Errorf("store holds %d rows, want 2", m.Len())
	}
}

func TestMemory_EventsBetween(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.UpsertEvents(ctx, []event.Event{
		{Title: "late", DateTime: at(20), Location: "A"},
		{Title: "at start", DateTime: at(4), Location: "A"},
		{Title: "before", DateTime: at(3), Location: "A"},
		{Title: "local zone", DateTime: time.Date(2025, time.March, 11, 9, 0, 0, 0, ny), Location: "A"},
		{Title: "at end", DateTime: time.Date(2025, time.March, 12, 4, 0, 0, 0, time.UTC), Location: "A"},
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := m.EventsBetween(ctx, at(4), time.Date(2025, time.March, 12, 4, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"at start", "local zone", "late"}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(rows), len(want), rows)
	}
	for i, title := range want {
		if rows[i].Title != title {
			t.Errorf("rows[%d] = %q, want %q", i, rows[i].Title, title)
		}
		if rows[i].DateTime.Location() != time.UTC {
			t.Errorf("rows[%d] not in UTC", i)
		}
	}
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMemory().UpsertEvents(ctx, []event.Event{{Title: "x", DateTime: at(1), Location: "y"}}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
