package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
)

// Store backend names
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// Table is the shared events table (collection for mongo).
const Table = "events"

// ConflictColumns is the identity triple used for conflict resolution.
var ConflictColumns = []string{"title", "date_time", "location"}

// UpdateColumns are the columns rewritten when an upsert hits an existing row.
var UpdateColumns = []string{"url", "image_url", "perks"}

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Store is the persistent event table.
type Store interface {
	// UpsertEvents writes rows in one batch and returns how many were sent.
	UpsertEvents(ctx context.Context, rows []event.Event) (int, error)
	// EventsBetween returns events with start <= date_time < end, oldest first.
	EventsBetween(ctx context.Context, start, end time.Time) ([]event.Event, error)
	Close(ctx context.Context) error
}

// Config selects and configures a backend.
type Config struct {
	Backend       string
	SupabaseURL   string
	SupabaseKey   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendSupabase, "":
		return NewSupabase(cfg.SupabaseURL, cfg.SupabaseKey)
	case BackendPostgres:
		return NewPostgres(ctx, cfg.DatabaseURL)
	case BackendMongo:
		return NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// sortByTime orders rows by start time, then title and location so equal
// start times come back in a stable order.
func sortByTime(rows []event.Event) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.DateTime.Equal(b.DateTime) {
			return a.DateTime.Before(b.DateTime)
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.Location < b.Location
	})
}
