package browser

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightLauncher launches Chromium through Playwright.
type PlaywrightLauncher struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	install bool
}

// NewPlaywrightLauncher creates a launcher. With install set, the driver and
// Chromium are downloaded on first use when missing.
func NewPlaywrightLauncher(install bool) *PlaywrightLauncher {
	return &PlaywrightLauncher{install: install}
}

// start installs and runs the Playwright driver once.
func (l *PlaywrightLauncher) start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw != nil {
		return nil
	}

	// Driver output would interleave with the JSON written to stdout
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if l.install {
		if err := playwright.Install(opts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	l.pw = pw
	return nil
}

// Launch starts Chromium with a persistent profile directory.
func (l *PlaywrightLauncher) Launch(opts LaunchOptions) (Context, error) {
	if err := l.start(); err != nil {
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:          playwright.Bool(opts.Headless),
		Args:              opts.Args,
		IgnoreDefaultArgs: opts.IgnoreDefaultArgs,
		UserAgent:         playwright.String(opts.Fingerprint.UserAgent),
		Viewport: &playwright.Size{
			Width:  opts.Fingerprint.Viewport.Width,
			Height: opts.Fingerprint.Viewport.Height,
		},
	}
	if opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = playwright.String(opts.ExecutablePath)
	}

	bctx, err := l.pw.Chromium.LaunchPersistentContext(opts.ProfileDir, launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	for _, script := range opts.InitScripts {
		if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
			bctx.Close()
			return nil, fmt.Errorf("failed to add init script: %w", err)
		}
	}

	c := &playwrightContext{ctx: bctx}
	// A persistent context starts with one blank tab; hand it out first
	if pages := bctx.Pages(); len(pages) > 0 {
		c.spare = pages[0]
	}
	return c, nil
}

// Stop shuts down the Playwright driver.
func (l *PlaywrightLauncher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw == nil {
		return nil
	}
	err := l.pw.Stop()
	l.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

type playwrightContext struct {
	ctx   playwright.BrowserContext
	spare playwright.Page
}

func (c *playwrightContext) NewPage() (Page, error) {
	if c.spare != nil {
		page := c.spare
		c.spare = nil
		if !page.IsClosed() {
			return &playwrightPage{page: page}, nil
		}
	}
	page, err := c.ctx.NewPage()
	if err != nil {
		return nil, err
	}
	return &playwrightPage{page: page}, nil
}

func (c *playwrightContext) Cookies(urls ...string) ([]Cookie, error) {
	raw, err := c.ctx.Cookies(urls...)
	if err != nil {
		return nil, err
	}
	cookies := make([]Cookie, 0, len(raw))
	for _, rc := range raw {
		cookies = append(cookies, Cookie{
			Name:     rc.Name,
			Value:    rc.Value,
			Domain:   rc.Domain,
			Path:     rc.Path,
			Expires:  rc.Expires,
			HTTPOnly: rc.HttpOnly,
			Secure:   rc.Secure,
		})
	}
	return cookies, nil
}

func (c *playwrightContext) Close() error {
	return c.ctx.Close()
}

type playwrightPage struct {
	page  playwright.Page
	route func(playwright.Route)
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Goto(url string, opts NavigateOptions) error {
	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = playwright.Float(milliseconds(opts.Timeout))
	}

	_, err := p.page.Goto(url, gotoOpts)
	return err
}

func (p *playwrightPage) ApplyFingerprint(fp Fingerprint) error {
	if err := p.page.SetViewportSize(fp.Viewport.Width, fp.Viewport.Height); err != nil {
		return err
	}
	return p.page.SetExtraHTTPHeaders(map[string]string{"User-Agent": fp.UserAgent})
}

func (p *playwrightPage) Evaluate(expression string, arg interface{}) (interface{}, error) {
	if arg == nil {
		return p.page.Evaluate(expression)
	}
	return p.page.Evaluate(expression, arg)
}

func (p *playwrightPage) WaitForSelector(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(milliseconds(timeout)),
	})
	return err
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) EnablePassThrough() error {
	if p.route != nil {
		return nil
	}
	handler := func(route playwright.Route) {
		// Continue errors only mean the page went away mid-request
		_ = route.Continue()
	}
	if err := p.page.Route("**/*", handler); err != nil {
		return fmt.Errorf("failed to enable request interception: %w", err)
	}
	p.route = handler
	return nil
}

func (p *playwrightPage) DisablePassThrough() error {
	if p.route == nil {
		return nil
	}
	handler := p.route
	p.route = nil
	if err := p.page.Unroute("**/*", handler); err != nil {
		return fmt.Errorf("failed to disable request interception: %w", err)
	}
	return nil
}

func (p *playwrightPage) OnResponse(fn func(Response)) func() {
	handler := func(r playwright.Response) {
		fn(r)
	}
	p.page.OnResponse(handler)
	return func() {
		p.page.RemoveListener("response", handler)
	}
}

func (p *playwrightPage) Close() error {
	if p.page.IsClosed() {
		return nil
	}
	return p.page.Close()
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
