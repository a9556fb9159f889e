package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store provides persistence for configuration data.
type Store interface {
	// Load loads the configuration from disk
	Load() error

	// Save saves the configuration to disk
	Save() error

	// GetSection retrieves configuration data for a specific section
	GetSection(sectionID string) (map[string]interface{}, error)

	// SetSection stores configuration data for a specific section
	SetSection(sectionID string, data map[string]interface{}) error
}

// fileFormat is the on-disk layout of the configuration file.
type fileFormat struct {
	Version  string                            `json:"version"`
	Sections map[string]map[string]interface{} `json:"sections"`
}

// FileStore implements Store using a JSON file.
type FileStore struct {
	path     string
	data     map[string]map[string]interface{}
	mu       sync.RWMutex
	version  string
	modified bool
}

// DefaultPath returns ~/.albumscout/config.json.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".albumscout", "config.json"), nil
}

// NewFileStore creates a new file-based configuration store.
// If path is empty, defaults to ~/.albumscout/config.json
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	store := &FileStore{
		path:    path,
		data:    make(map[string]map[string]interface{}),
		version: "1.0",
	}

	// A missing file is an empty configuration
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	return store, nil
}

// Load loads the configuration from disk.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]map[string]interface{})
			return nil
		}
		return fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg fileFormat
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	if cfg.Version != "" {
		s.version = cfg.Version
	}
	s.data = cfg.Sections
	if s.data == nil {
		s.data = make(map[string]map[string]interface{})
	}
	s.modified = false

	return nil
}

// Save writes the configuration atomically through a temp file.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	encoded, err := json.MarshalIndent(fileFormat{Version: s.version, Sections: s.data}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, append(encoded, '\n'), 0600); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp config file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.modified = false
	return nil
}

// GetSection returns a copy of a section's data, empty when absent.
func (s *FileStore) GetSection(sectionID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copySection(s.data[sectionID]), nil
}

// SetSection stores a copy of a section's data.
func (s *FileStore) SetSection(sectionID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sectionID] = copySection(data)
	s.modified = true
	return nil
}

// IsModified returns true if the store has unsaved changes.
func (s *FileStore) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}

func copySection(data map[string]interface{}) map[string]interface{} {
	dataCopy := make(map[string]interface{}, len(data))
	for k, v := range data {
		dataCopy[k] = v
	}
	return dataCopy
}
