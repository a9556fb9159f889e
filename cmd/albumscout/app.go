package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/entrhq/albumscout/pkg/browser"
	"github.com/entrhq/albumscout/pkg/config"
	"github.com/entrhq/albumscout/pkg/logging"
	"github.com/entrhq/albumscout/pkg/site"
)

// settings are the effective values after flags, environment, config file
// and defaults have been merged, in that order of precedence.
type settings struct {
	Browser config.BrowserSettings
	Site    config.SiteSettings
}

// resolveSettings loads the config file and layers environment variables and
// explicit flags over it.
func resolveSettings(opts *globalOptions) (*settings, error) {
	config.LoadDotEnv()

	if err := config.Initialize(opts.ConfigFile); err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}

	s := &settings{
		Browser: config.GetBrowser().Snapshot(),
		Site:    config.GetSite().Snapshot(),
	}
	config.ApplyEnv(&s.Browser, &s.Site)

	if opts.set["profile"] {
		s.Browser.ProfileDir = opts.ProfileDir
	}
	if opts.set["executable"] {
		s.Browser.ExecutablePath = opts.Executable
	}
	if opts.set["headless"] {
		s.Browser.Headless = opts.Headless
	}
	if opts.set["base-url"] {
		s.Site.BaseURL = opts.BaseURL
	}
	return s, nil
}

// app wires one browser session to the site components.
type app struct {
	settings *settings
	logger   *logging.Logger
	session  *browser.Session
	probe    *site.LoginProbe
	catalog  *site.CatalogFetcher
	tracks   *site.TrackListExtractor
	resolver *site.LinkResolver
}

func newApp(s *settings, launcher browser.Launcher, logger *logging.Logger) (*app, error) {
	var stealth browser.Stealth = browser.BasicStealth{}
	if !s.Browser.Stealth {
		stealth = browser.NoStealth{}
	}

	fingerprint := browser.Fingerprint{
		Viewport:  browser.Viewport{Width: s.Browser.ViewportWidth, Height: s.Browser.ViewportHeight},
		UserAgent: s.Browser.UserAgent,
	}

	session, err := browser.NewSession(launcher, browser.Options{
		HomeURL:        s.Site.BaseURL,
		TargetDomains:  s.Site.TargetDomains,
		ProfileDir:     s.Browser.ProfileDir,
		ExecutablePath: s.Browser.ExecutablePath,
		Headless:       s.Browser.Headless,
		Fingerprint:    fingerprint,
		Stealth:        stealth,
		HomeTimeout:    s.Browser.HomeTimeout,
		SettleDelay:    s.Browser.SettleDelay,
	}, logger.With("session"))
	if err != nil {
		return nil, fmt.Errorf("failed to create browser session: %w", err)
	}

	var tokenResolver site.TokenResolver
	if s.Site.ResolverCommand != "" {
		tokenResolver = site.CommandResolver{
			Command: s.Site.ResolverCommand,
			Args:    s.Site.ResolverArgs,
			Timeout: s.Site.ResolverTimeout,
		}
	}

	return &app{
		settings: s,
		logger:   logger,
		session:  session,
		probe: site.NewLoginProbe(session, site.ProbeOptions{
			BaseURL: s.Site.BaseURL,
			Settle:  s.Site.ProbeSettle,
		}, logger.With("probe")),
		catalog: site.NewCatalogFetcher(session, site.CatalogOptions{
			BaseURL:     s.Site.BaseURL,
			Client:      &http.Client{Timeout: s.Site.HTTPTimeout},
			Headers:     site.DefaultHeaders(fingerprint.UserAgent),
			PageTimeout: s.Browser.PageTimeout,
		}, logger.With("catalog")),
		tracks: site.NewTrackListExtractor(session, site.ExtractorOptions{
			BaseURL:         s.Site.BaseURL,
			ListingSelector: s.Site.ListingSelector,
			ListingWait:     s.Site.ListingWait,
			CaptureWindow:   s.Site.CaptureWindow,
			CaptureSettle:   s.Site.CaptureSettle,
			PageTimeout:     s.Browser.PageTimeout,
		}, logger.With("tracks")),
		resolver: site.NewLinkResolver(tokenResolver, s.Site.DeviceType, logger.With("resolver")),
	}, nil
}

// Close shuts the browser down.
func (a *app) Close() error {
	return a.session.Close()
}

// newLogger opens the run log file, or logs to stderr when verbose.
func newLogger(verbose bool, stderr io.Writer) (*logging.Logger, func()) {
	if verbose {
		logger := logging.NewWriterLogger("albumscout", stderr)
		return logger, func() {}
	}

	// On error NewLogger still returns a stderr fallback
	logger, _ := logging.NewLogger("albumscout")
	return logger, func() { logger.Close() }
}
