package store

import (
	"context"
	"sync"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
)

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	rows map[event.Key]event.Event
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[event.Key]event.Event)}
}

func (m *Memory) UpsertEvents(ctx context.Context, rows []event.Event) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		row.DateTime = row.DateTime.UTC()
		m.rows[row.Key()] = row
	}
	return len(rows), nil
}

func (m *Memory) EventsBetween(ctx context.Context, start, end time.Time) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]event.Event, 0)
	for _, row := range m.rows {
		if !row.DateTime.Before(start) && row.DateTime.Before(end) {
			out = append(out, row)
		}
	}
	sortByTime(out)
	return out, nil
}

// Len reports how many rows are stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *Memory) Close(context.Context) error {
	return nil
}
