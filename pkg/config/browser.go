package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDBrowser is the identifier for the browser settings section
	SectionIDBrowser = "browser"

	// DefaultUserAgent is the desktop Chrome string presented to the site.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	defaultHeadless       = false
	defaultProfileDir     = ".browser-data"
	defaultViewportWidth  = 1280
	defaultViewportHeight = 800
	defaultStealth        = true
	defaultSettleDelay    = 2 * time.Second
	defaultHomeTimeout    = 30 * time.Second
	defaultPageTimeout    = 60 * time.Second
)

// BrowserSection holds the browser launch and fingerprint settings.
type BrowserSection struct {
	Headless       bool
	ExecutablePath string
	ProfileDir     string
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	Stealth        bool
	SettleDelay    time.Duration
	HomeTimeout    time.Duration
	PageTimeout    time.Duration
	mu             sync.RWMutex
}

// NewBrowserSection creates a browser section with default settings.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser Settings"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Browser launch options, persistent profile directory and the fingerprint (viewport, user agent, stealth) presented to the site."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"headless":        s.Headless,
		"executable_path": s.ExecutablePath,
		"profile_dir":     s.ProfileDir,
		"viewport_width":  s.ViewportWidth,
		"viewport_height": s.ViewportHeight,
		"user_agent":      s.UserAgent,
		"stealth":         s.Stealth,
		"settle_delay":    s.SettleDelay.String(),
		"home_timeout":    s.HomeTimeout.String(),
		"page_timeout":    s.PageTimeout.String(),
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for key, value := range data {
		switch key {
		case "headless":
			s.Headless, err = asBool(key, value)
		case "executable_path":
			s.ExecutablePath, err = asString(key, value)
		case "profile_dir":
			s.ProfileDir, err = asString(key, value)
		case "viewport_width":
			s.ViewportWidth, err = asInt(key, value)
		case "viewport_height":
			s.ViewportHeight, err = asInt(key, value)
		case "user_agent":
			s.UserAgent, err = asString(key, value)
		case "stealth":
			s.Stealth, err = asBool(key, value)
		case "settle_delay":
			s.SettleDelay, err = asDuration(key, value)
		case "home_timeout":
			s.HomeTimeout, err = asDuration(key, value)
		case "page_timeout":
			s.PageTimeout, err = asDuration(key, value)
		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ProfileDir == "" {
		return fmt.Errorf("profile_dir is required")
	}
	if s.ViewportWidth < 100 || s.ViewportWidth > 5000 {
		return fmt.Errorf("viewport_width must be between 100 and 5000 pixels, got %d", s.ViewportWidth)
	}
	if s.ViewportHeight < 100 || s.ViewportHeight > 5000 {
		return fmt.Errorf("viewport_height must be between 100 and 5000 pixels, got %d", s.ViewportHeight)
	}
	if s.UserAgent == "" {
		return fmt.Errorf("user_agent is required")
	}
	if s.SettleDelay < 0 {
		return fmt.Errorf("settle_delay cannot be negative")
	}
	if s.HomeTimeout <= 0 || s.PageTimeout <= 0 {
		return fmt.Errorf("home_timeout and page_timeout must be positive")
	}

	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Headless = defaultHeadless
	s.ExecutablePath = ""
	s.ProfileDir = defaultProfileDir
	s.ViewportWidth = defaultViewportWidth
	s.ViewportHeight = defaultViewportHeight
	s.UserAgent = DefaultUserAgent
	s.Stealth = defaultStealth
	s.SettleDelay = defaultSettleDelay
	s.HomeTimeout = defaultHomeTimeout
	s.PageTimeout = defaultPageTimeout
}

// Snapshot returns a copy of the settings without the lock.
func (s *BrowserSection) Snapshot() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return BrowserSettings{
		Headless:       s.Headless,
		ExecutablePath: s.ExecutablePath,
		ProfileDir:     s.ProfileDir,
		ViewportWidth:  s.ViewportWidth,
		ViewportHeight: s.ViewportHeight,
		UserAgent:      s.UserAgent,
		Stealth:        s.Stealth,
		SettleDelay:    s.SettleDelay,
		HomeTimeout:    s.HomeTimeout,
		PageTimeout:    s.PageTimeout,
	}
}

// BrowserSettings is a lock-free copy of BrowserSection.
type BrowserSettings struct {
	Headless       bool
	ExecutablePath string
	ProfileDir     string
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	Stealth        bool
	SettleDelay    time.Duration
	HomeTimeout    time.Duration
	PageTimeout    time.Duration
}
