package config

import (
	"fmt"
	"sync"
)

// Section is one named group of settings persisted in the Store.
type Section interface {
	// ID is the key of the section in the config file
	ID() string

	// Title is a human readable name
	Title() string

	// Description explains what the section controls
	Description() string

	// Data returns the current values
	Data() map[string]interface{}

	// SetData applies values loaded from the store
	SetData(data map[string]interface{}) error

	// Validate checks the current values
	Validate() error

	// Reset restores defaults
	Reset()
}

// Manager owns the registered sections and moves them in and out of a Store.
type Manager struct {
	store    Store
	sections map[string]Section
	order    []string
	mu       sync.RWMutex
}

// NewManager creates a manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sections: make(map[string]Section),
	}
}

// Store returns the backing store.
func (m *Manager) Store() Store {
	return m.store
}

// RegisterSection adds a section. IDs must be unique.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := section.ID()
	if id == "" {
		return fmt.Errorf("section ID cannot be empty")
	}
	if _, exists := m.sections[id]; exists {
		return fmt.Errorf("section %q already registered", id)
	}

	m.sections[id] = section
	m.order = append(m.order, id)
	return nil
}

// GetSection returns a registered section by ID.
func (m *Manager) GetSection(id string) (Section, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	section, ok := m.sections[id]
	return section, ok
}

// GetSections returns all sections in registration order.
func (m *Manager) GetSections() []Section {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sections := make([]Section, 0, len(m.order))
	for _, id := range m.order {
		sections = append(sections, m.sections[id])
	}
	return sections
}

// LoadAll reads the store and applies each section's stored data.
// Sections absent from the store keep their defaults.
func (m *Manager) LoadAll() error {
	if err := m.store.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, section := range m.GetSections() {
		data, err := m.store.GetSection(section.ID())
		if err != nil {
			return fmt.Errorf("failed to read section %q: %w", section.ID(), err)
		}
		if len(data) == 0 {
			continue
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("invalid section %q: %w", section.ID(), err)
		}
		if err := section.Validate(); err != nil {
			return fmt.Errorf("invalid section %q: %w", section.ID(), err)
		}
	}
	return nil
}

// SaveAll validates every section and writes them to the store.
func (m *Manager) SaveAll() error {
	for _, section := range m.GetSections() {
		if err := section.Validate(); err != nil {
			return fmt.Errorf("invalid section %q: %w", section.ID(), err)
		}
		if err := m.store.SetSection(section.ID(), section.Data()); err != nil {
			return fmt.Errorf("failed to store section %q: %w", section.ID(), err)
		}
	}
	return m.store.Save()
}

// ResetAll restores every section to its defaults.
func (m *Manager) ResetAll() {
	for _, section := range m.GetSections() {
		section.Reset()
	}
}
