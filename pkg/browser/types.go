package browser

import (
	"time"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateUninitialized means no browser is running.
	StateUninitialized State = iota
	// StateLaunching means the browser is being started.
	StateLaunching
	// StateReady means the page is usable and on the target site.
	StateReady
	// StateFailed means the last EnsureReady gave up; the next call starts over.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLaunching:
		return "launching"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Fingerprint is what the browser presents to the site besides stealth tweaks.
type Fingerprint struct {
	Viewport  Viewport
	UserAgent string
}

// DefaultUserAgent is a desktop Chrome 123 user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Default values for sessions and navigation
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800
	DefaultHomeTimeout    = 30 * time.Second
	DefaultPageTimeout    = 60 * time.Second
	DefaultSettleDelay    = 2 * time.Second
)

// DefaultFingerprint returns the fixed 1280x800 desktop Chrome fingerprint.
func DefaultFingerprint() Fingerprint {
	return Fingerprint{
		Viewport:  Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
		UserAgent: DefaultUserAgent,
	}
}

// Wait conditions accepted by NavigateOptions.WaitUntil.
const (
	WaitLoad             = "load"
	WaitDOMContentLoaded = "domcontentloaded"
	WaitNetworkIdle      = "networkidle"
)

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	WaitUntil string

	// Timeout for the whole navigation (0 means driver default)
	Timeout time.Duration
}

// Cookie is a browser cookie as stored in the profile.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  float64
	HTTPOnly bool
	Secure   bool
}

// LaunchOptions configures a persistent browser context.
type LaunchOptions struct {
	// ProfileDir holds cookies and local storage across runs
	ProfileDir string

	// ExecutablePath overrides the bundled Chromium
	ExecutablePath string

	Headless    bool
	Fingerprint Fingerprint

	// Args are extra command line switches
	Args []string

	// IgnoreDefaultArgs removes driver default switches
	IgnoreDefaultArgs []string

	// InitScripts run in every page before any site script
	InitScripts []string
}
