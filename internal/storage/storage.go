package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/perk-events/internal/event"
)

// ExportFile is the name of the snapshot written before each upsert.
const ExportFile = "events_export.json"

// Storage handles the local JSON snapshots of normalized rows.
type Storage struct {
	dataDir string
}

// New creates a new Storage instance rooted at dataDir, creating it if needed.
func New(dataDir string) (*Storage, error) {
	dataDir, err := expandHome(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// ExportPath returns the path of the export snapshot.
func (s *Storage) ExportPath() string {
	return filepath.Join(s.dataDir, ExportFile)
}

// SaveExport writes rows as an indented JSON array to the export snapshot
// and returns its path. An empty batch writes "[]".
func (s *Storage) SaveExport(rows []event.Event) (string, error) {
	if rows == nil {
		rows = []event.Event{}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	path := s.ExportPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}

	return path, nil
}

// LoadExport reads the previous export snapshot. A missing file yields no
// rows.
func (s *Storage) LoadExport() ([]event.Event, error) {
	rows, err := LoadEvents(s.ExportPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return rows, err
}

// LoadEvents reads a snapshot file written by SaveExport. Rows are returned
// with their timestamps in UTC.
func LoadEvents(path string) ([]event.Event, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var rows []event.Event
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	for i := range rows {
		rows[i].DateTime = rows[i].DateTime.UTC()
	}

	return rows, nil
}

// expandHome expands a leading ~/ to the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
