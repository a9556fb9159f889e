package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/entrhq/albumscout/pkg/logging"
)

// Options configures a Session.
type Options struct {
	// HomeURL is where a fresh page is sent before use
	HomeURL string

	// TargetDomains are host globs of the site; the HomeURL host is always included
	TargetDomains []string

	ProfileDir     string
	ExecutablePath string
	Headless       bool
	Fingerprint    Fingerprint

	// Stealth defaults to BasicStealth
	Stealth Stealth

	HomeTimeout time.Duration

	// SettleDelay is waited after the home page loads
	SettleDelay time.Duration
}

// Session owns the one browser context and page of the process.
//
// A Session is not safe for concurrent use: every navigation goes through the
// same page, so callers must serialize calls.
type Session struct {
	launcher Launcher
	opts     Options
	matcher  *TargetMatcher
	logger   *logging.Logger
	sleep    func(ctx context.Context, d time.Duration) error

	state        State
	browser      Context
	page         Page
	lastKnownURL string
}

// NewSession creates an uninitialized session. Nothing is launched until
// EnsureReady.
func NewSession(launcher Launcher, opts Options, logger *logging.Logger) (*Session, error) {
	if launcher == nil {
		return nil, fmt.Errorf("launcher is required")
	}
	home, err := url.Parse(opts.HomeURL)
	if err != nil || home.Host == "" {
		return nil, fmt.Errorf("invalid home URL %q", opts.HomeURL)
	}
	if opts.ProfileDir == "" {
		return nil, fmt.Errorf("profile directory is required")
	}

	matcher, err := NewTargetMatcher(append([]string{home.Hostname()}, opts.TargetDomains...))
	if err != nil {
		return nil, err
	}

	if opts.Fingerprint.Viewport.Width == 0 || opts.Fingerprint.Viewport.Height == 0 {
		opts.Fingerprint.Viewport = DefaultFingerprint().Viewport
	}
	if opts.Fingerprint.UserAgent == "" {
		opts.Fingerprint.UserAgent = DefaultUserAgent
	}
	if opts.Stealth == nil {
		opts.Stealth = BasicStealth{}
	}
	if opts.HomeTimeout == 0 {
		opts.HomeTimeout = DefaultHomeTimeout
	}
	if logger == nil {
		logger = logging.Discard("session")
	}

	return &Session{
		launcher: launcher,
		opts:     opts,
		matcher:  matcher,
		logger:   logger,
		sleep:    Sleep,
		state:    StateUninitialized,
	}, nil
}

// EnsureReady launches the browser and opens the page when missing, and sends
// the page home when it is not on the target site. It is a no-op when the
// session is ready and on the site.
//
// A failed home navigation is retried exactly once on a fresh page; a second
// failure returns a *NavigationError and leaves the session Failed. The next
// call from Failed starts from a new browser.
func (s *Session) EnsureReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.state == StateFailed {
		s.logger.Infof("Previous start failed, relaunching browser")
		s.teardown()
	}

	if s.browser == nil {
		s.state = StateLaunching
		browser, err := s.launcher.Launch(s.launchOptions())
		if err != nil {
			s.state = StateFailed
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		s.browser = browser
		s.logger.Infof("Browser launched with profile %s", s.opts.ProfileDir)
	}

	if s.page == nil {
		page, err := s.openPage()
		if err != nil {
			s.state = StateFailed
			return err
		}
		s.page = page
	}

	if current := s.page.URL(); s.matcher.Matches(current) {
		s.lastKnownURL = current
		s.state = StateReady
		return nil
	}

	err := s.goHome(ctx)
	if err == nil {
		s.state = StateReady
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.state = StateFailed
		return ctxErr
	}

	s.logger.Warnf("Home navigation failed, retrying on a fresh page: %v", err)
	_ = s.page.Close()
	s.page = nil

	page, openErr := s.openPage()
	if openErr != nil {
		s.state = StateFailed
		return &NavigationError{URL: s.opts.HomeURL, Attempts: 1, Err: errors.Join(err, openErr)}
	}
	s.page = page

	if err := s.goHome(ctx); err != nil {
		s.state = StateFailed
		s.logger.Errorf("Home navigation failed twice: %v", err)
		return &NavigationError{URL: s.opts.HomeURL, Attempts: 2, Err: err}
	}

	s.state = StateReady
	return nil
}

// Navigate loads url in the session page. There is no retry.
func (s *Session) Navigate(ctx context.Context, url string, opts NavigateOptions) error {
	page, err := s.Page()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Debugf("Navigating to %s (wait=%s, timeout=%s)", url, opts.WaitUntil, opts.Timeout)
	if err := page.Goto(url, opts); err != nil {
		return &NavigationError{URL: url, Attempts: 1, Err: err}
	}
	s.lastKnownURL = page.URL()
	return nil
}

// Cookies returns the profile cookies that apply to urls.
func (s *Session) Cookies(urls ...string) ([]Cookie, error) {
	if s.browser == nil {
		return nil, ErrSessionNotReady
	}
	cookies, err := s.browser.Cookies(urls...)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return cookies, nil
}

// Page returns the session page. It is only valid while the session is Ready.
func (s *Session) Page() (Page, error) {
	if s.state != StateReady || s.page == nil {
		return nil, ErrSessionNotReady
	}
	return s.page, nil
}

// Close releases the page and the browser and returns to Uninitialized.
// Closing a closed session is a no-op.
func (s *Session) Close() error {
	if s.browser == nil && s.page == nil {
		s.state = StateUninitialized
		return nil
	}

	err := s.teardown()
	s.logger.Infof("Browser session closed")
	return err
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// LastKnownURL is the page location after the last successful navigation.
func (s *Session) LastKnownURL() string {
	return s.lastKnownURL
}

// HomeURL returns the configured home page.
func (s *Session) HomeURL() string {
	return s.opts.HomeURL
}

// Fingerprint returns the fingerprint applied to every page.
func (s *Session) Fingerprint() Fingerprint {
	return s.opts.Fingerprint
}

// OnTarget reports whether rawURL belongs to the target site.
func (s *Session) OnTarget(rawURL string) bool {
	return s.matcher.Matches(rawURL)
}

func (s *Session) launchOptions() LaunchOptions {
	return LaunchOptions{
		ProfileDir:        s.opts.ProfileDir,
		ExecutablePath:    s.opts.ExecutablePath,
		Headless:          s.opts.Headless,
		Fingerprint:       s.opts.Fingerprint,
		Args:              s.opts.Stealth.LaunchArgs(),
		IgnoreDefaultArgs: s.opts.Stealth.IgnoredDefaultArgs(),
		InitScripts:       s.opts.Stealth.InitScripts(),
	}
}

// openPage opens a tab and applies the fingerprint to it.
func (s *Session) openPage() (Page, error) {
	page, err := s.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if err := page.ApplyFingerprint(s.opts.Fingerprint); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to apply fingerprint: %w", err)
	}
	return page, nil
}

func (s *Session) goHome(ctx context.Context) error {
	s.logger.Infof("Opening home page %s", s.opts.HomeURL)
	err := s.page.Goto(s.opts.HomeURL, NavigateOptions{
		WaitUntil: WaitDOMContentLoaded,
		Timeout:   s.opts.HomeTimeout,
	})
	if err != nil {
		return err
	}
	if err := s.sleep(ctx, s.opts.SettleDelay); err != nil {
		return err
	}
	s.lastKnownURL = s.page.URL()
	return nil
}

// teardown closes whatever is open and resets to Uninitialized.
func (s *Session) teardown() error {
	if s.page != nil {
		_ = s.page.Close() // The context close below releases it anyway
	}
	var err error
	if s.browser != nil {
		if closeErr := s.browser.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close browser: %w", closeErr)
		}
	}
	s.page = nil
	s.browser = nil
	s.lastKnownURL = ""
	s.state = StateUninitialized
	return err
}

// Sleep waits d or until ctx is done. A non-positive d only checks ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
