package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cre-pipeline/internal/models"
)

// Options configures the file store. The directory is explicit configuration;
// there is no package-level cached handle.
type Options struct {
	// Dir is the user-granted data directory the JSON document lives in
	Dir string
}

// FileStore keeps the collection as a pretty-printed JSON file in a data
// directory. It is the preferred, durable backend.
type FileStore struct {
	dir string
}

// NewFileStore opens (creating if needed) the data directory
func NewFileStore(opts Options) (*FileStore, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("file store: data directory not configured")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create data directory: %w", err)
	}
	return &FileStore{dir: opts.Dir}, nil
}

// Dir returns the current data directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Reauthorize points the store at a different data directory, e.g. after the
// user grants access to a new location
func (s *FileStore) Reauthorize(dir string) error {
	if dir == "" {
		return fmt.Errorf("file store: data directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file store: create data directory: %w", err)
	}
	s.dir = dir
	return nil
}

// Load reads the whole collection. A missing document is an empty collection,
// not an error.
func (s *FileStore) Load() ([]models.Property, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, DBFileName))
	if os.IsNotExist(err) {
		return []models.Property{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: read %s: %w", DBFileName, err)
	}
	if len(data) == 0 {
		return []models.Property{}, nil
	}

	var properties []models.Property
	if err := json.Unmarshal(data, &properties); err != nil {
		return nil, fmt.Errorf("file store: parse %s: %w", DBFileName, err)
	}
	return properties, nil
}

// Save writes the whole collection. The document is written to a temp file in
// the same directory and renamed into place, so a failed write leaves the
// previous document intact.
func (s *FileStore) Save(properties []models.Property) error {
	data, err := json.MarshalIndent(properties, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: encode collection: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, DBFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("file store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file store: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, DBFileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file store: replace %s: %w", DBFileName, err)
	}
	return nil
}
