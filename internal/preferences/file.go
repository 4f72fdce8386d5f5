package preferences

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStorage implements Storage on a local YAML file
type FileStorage struct {
	path string
}

// NewFileStorage creates a file-backed storage at path.
func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("subscribers file path is required")
	}
	return &FileStorage{path: path}, nil
}

// Path returns the subscribers file location.
func (f *FileStorage) Path() string {
	return f.path
}

// Load reads the subscribers file. A missing file yields no subscribers.
func (f *FileStorage) Load() (Subscribers, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSubscribers(), nil
		}
		return nil, fmt.Errorf("reading subscribers: %w", err)
	}

	subs, err := FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing subscribers: %w", err)
	}
	return subs, nil
}

// Save writes the subscribers file, replacing it atomically.
func (f *FileStorage) Save(subs Subscribers) error {
	data, err := subs.ToYAML()
	if err != nil {
		return fmt.Errorf("marshaling subscribers: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating subscribers directory: %w", err)
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing subscribers: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("writing subscribers: %w", err)
	}
	return nil
}
