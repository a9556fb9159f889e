package config

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/andybalholm/cascadia"

	"github.com/entrhq/albumscout/pkg/site"
)

// SectionIDSite is the identifier for the target site section
const SectionIDSite = "site"

var defaultTargetDomains = []string{"ximalaya.com", "*.ximalaya.com"}

// SiteSection holds the target site endpoints and extraction timings.
type SiteSection struct {
	BaseURL         string
	TargetDomains   []string
	DeviceType      string
	ListingSelector string
	ListingWait     time.Duration
	CaptureWindow   time.Duration
	CaptureSettle   time.Duration
	ProbeSettle     time.Duration
	HTTPTimeout     time.Duration
	ResolverCommand string
	ResolverArgs    []string
	ResolverTimeout time.Duration
	mu              sync.RWMutex
}

// NewSiteSection creates a site section with default settings.
func NewSiteSection() *SiteSection {
	s := &SiteSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *SiteSection) ID() string {
	return SectionIDSite
}

// Title returns the section title.
func (s *SiteSection) Title() string {
	return "Site Settings"
}

// Description returns the section description.
func (s *SiteSection) Description() string {
	return "Target site base URL and domains, track listing wait bounds, and the external token resolver command."
}

// Data returns the current configuration data.
func (s *SiteSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"base_url":         s.BaseURL,
		"target_domains":   stringsToData(s.TargetDomains),
		"device_type":      s.DeviceType,
		"listing_selector": s.ListingSelector,
		"listing_wait":     s.ListingWait.String(),
		"capture_window":   s.CaptureWindow.String(),
		"capture_settle":   s.CaptureSettle.String(),
		"probe_settle":     s.ProbeSettle.String(),
		"http_timeout":     s.HTTPTimeout.String(),
		"resolver_command": s.ResolverCommand,
		"resolver_args":    stringsToData(s.ResolverArgs),
		"resolver_timeout": s.ResolverTimeout.String(),
	}
}

// SetData updates the configuration from the provided data.
func (s *SiteSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for key, value := range data {
		switch key {
		case "base_url":
			s.BaseURL, err = asString(key, value)
		case "target_domains":
			s.TargetDomains, err = asStrings(key, value)
		case "device_type":
			s.DeviceType, err = asString(key, value)
		case "listing_selector":
			s.ListingSelector, err = asString(key, value)
		case "listing_wait":
			s.ListingWait, err = asDuration(key, value)
		case "capture_window":
			s.CaptureWindow, err = asDuration(key, value)
		case "capture_settle":
			s.CaptureSettle, err = asDuration(key, value)
		case "probe_settle":
			s.ProbeSettle, err = asDuration(key, value)
		case "http_timeout":
			s.HTTPTimeout, err = asDuration(key, value)
		case "resolver_command":
			s.ResolverCommand, err = asString(key, value)
		case "resolver_args":
			s.ResolverArgs, err = asStrings(key, value)
		case "resolver_timeout":
			s.ResolverTimeout, err = asDuration(key, value)
		default:
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *SiteSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", s.BaseURL)
	}
	if s.DeviceType == "" {
		return fmt.Errorf("device_type is required")
	}
	if s.ListingSelector == "" {
		return fmt.Errorf("listing_selector is required")
	}
	if _, err := cascadia.Compile(s.ListingSelector); err != nil {
		return fmt.Errorf("listing_selector %q is not a valid CSS selector: %w", s.ListingSelector, err)
	}
	if s.ListingWait <= 0 || s.CaptureWindow <= 0 {
		return fmt.Errorf("listing_wait and capture_window must be positive")
	}
	if s.CaptureSettle < 0 || s.ProbeSettle < 0 {
		return fmt.Errorf("capture_settle and probe_settle cannot be negative")
	}
	if s.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	if s.ResolverTimeout < 0 {
		return fmt.Errorf("resolver_timeout cannot be negative")
	}

	return nil
}

// Reset resets the section to default configuration.
func (s *SiteSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.BaseURL = site.DefaultBaseURL
	s.TargetDomains = append([]string(nil), defaultTargetDomains...)
	s.DeviceType = site.DefaultDeviceType
	s.ListingSelector = site.DefaultListingSelector
	s.ListingWait = site.DefaultListingWait
	s.CaptureWindow = site.DefaultCaptureWindow
	s.CaptureSettle = site.DefaultCaptureSettle
	s.ProbeSettle = site.DefaultProbeSettle
	s.HTTPTimeout = site.DefaultHTTPTimeout
	s.ResolverCommand = ""
	s.ResolverArgs = nil
	s.ResolverTimeout = site.DefaultResolverTimeout
}

// Snapshot returns a copy of the settings without the lock.
func (s *SiteSection) Snapshot() SiteSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SiteSettings{
		BaseURL:         s.BaseURL,
		TargetDomains:   append([]string(nil), s.TargetDomains...),
		DeviceType:      s.DeviceType,
		ListingSelector: s.ListingSelector,
		ListingWait:     s.ListingWait,
		CaptureWindow:   s.CaptureWindow,
		CaptureSettle:   s.CaptureSettle,
		ProbeSettle:     s.ProbeSettle,
		HTTPTimeout:     s.HTTPTimeout,
		ResolverCommand: s.ResolverCommand,
		ResolverArgs:    append([]string(nil), s.ResolverArgs...),
		ResolverTimeout: s.ResolverTimeout,
	}
}

// SiteSettings is a lock-free copy of SiteSection.
type SiteSettings struct {
	BaseURL         string
	TargetDomains   []string
	DeviceType      string
	ListingSelector string
	ListingWait     time.Duration
	CaptureWindow   time.Duration
	CaptureSettle   time.Duration
	ProbeSettle     time.Duration
	HTTPTimeout     time.Duration
	ResolverCommand string
	ResolverArgs    []string
	ResolverTimeout time.Duration
}
