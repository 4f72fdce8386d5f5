package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
	"go.mongodb.org/mongo-driver/bson"
)

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Config{Backend: BackendMemory})
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("Open(memory) returned %T", s)
	}

	_, err = Open(context.Background(), Config{Backend: "sqlite"})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(sqlite) error = %v, want ErrUnknownBackend", err)
	}
}

func TestParseStoredTime(t *testing.T) {
	want := time.Date(2025, time.January, 5, 20, 0, 0, 0, time.UTC)
	tests := []string{
		"2025-01-05T20:00:00Z",
		"2025-01-05T20:00:00+00:00",
		"2025-01-05T15:00:00-05:00",
		"2025-01-05T20:00:00",
	}
	for _, in := range tests {
		got, err := parseStoredTime(in)
		if err != nil {
			t.Errorf("parseStoredTime(%q) error = %v", in, err)
			continue
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("parseStoredTime(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseStoredTime("yesterday"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}

func TestUpsertClause(t *testing.T) {
	c := upsertClause()
	if len(c.Columns) != 3 {
		t.Fatalf("conflict columns = %v", c.Columns)
	}
	for i, name := range ConflictColumns {
		if c.Columns[i].Name != name {
			t.Errorf("column %d = %s, want %s", i, c.Columns[i].Name, name)
		}
	}
	if len(c.DoUpdates) != len(UpdateColumns) {
		t.Errorf("DoUpdates = %v, want %v", c.DoUpdates, UpdateColumns)
	}
}

func TestIdentityFilter(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	e := event.Event{Title: "T", DateTime: time.Date(2025, time.January, 5, 15, 0, 0, 0, ny), Location: "L"}

	f := identityFilter(e)
	want := bson.D{
		{Key: "title", Value: "T"},
		{Key: "date_time", Value: time.Date(2025, time.January, 5, 20, 0, 0, 0, time.UTC)},
		{Key: "location", Value: "L"},
	}
	if len(f) != len(want) {
		t.Fatalf("filter = %v", f)
	}
	for i := range want {
		if f[i].Key != want[i].Key {
			t.Errorf("filter[%d].Key = %s, want %s", i, f[i].Key, want[i].Key)
		}
	}
	if got := f[1].Value.(time.Time); !got.Equal(want[1].Value.(time.Time)) || got.Location() != time.UTC {
		t.Errorf("date_time filter = %v, want UTC instant", got)
	}

	idx := identityIndex()
	if keys, ok := idx.Keys.(bson.D); !ok || len(keys) != 3 {
		t.Errorf("index keys = %v", idx.Keys)
	}
	if idx.Options == nil || idx.Options.Unique == nil || !*idx.Options.Unique {
		t.Error("identity index must be unique")
	}
}
