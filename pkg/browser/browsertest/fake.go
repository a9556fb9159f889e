// Package browsertest provides scripted in-memory implementations of the
// browser driver interfaces.
package browsertest

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/entrhq/albumscout/pkg/browser"
)

// FakeLauncher records launches and hands out FakeContexts.
type FakeLauncher struct {
	// NewContext builds the context for each launch; defaults to NewFakeContext
	NewContext func(opts browser.LaunchOptions) *FakeContext

	// Err fails every launch when set
	Err error

	mu       sync.Mutex
	launches []browser.LaunchOptions
	contexts []*FakeContext
}

func (l *FakeLauncher) Launch(opts browser.LaunchOptions) (browser.Context, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.launches = append(l.launches, opts)
	if l.Err != nil {
		return nil, l.Err
	}

	var c *FakeContext
	if l.NewContext != nil {
		c = l.NewContext(opts)
	} else {
		c = NewFakeContext()
	}
	l.contexts = append(l.contexts, c)
	return c, nil
}

// Launches returns the options of every Launch call.
func (l *FakeLauncher) Launches() []browser.LaunchOptions {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]browser.LaunchOptions(nil), l.launches...)
}

// Contexts returns every context handed out.
func (l *FakeLauncher) Contexts() []*FakeContext {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*FakeContext(nil), l.contexts...)
}

// LastContext returns the most recent context or nil.
func (l *FakeLauncher) LastContext() *FakeContext {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.contexts) == 0 {
		return nil
	}
	return l.contexts[len(l.contexts)-1]
}

// FakeContext is a browser context holding a fixed cookie jar.
type FakeContext struct {
	// NewPageFunc builds each page; defaults to NewFakePage
	NewPageFunc func() (*FakePage, error)

	CookieJar  []browser.Cookie
	CookiesErr error

	mu          sync.Mutex
	pages       []*FakePage
	cookieCalls [][]string
	closed      bool
}

// NewFakeContext returns an empty context.
func NewFakeContext() *FakeContext {
	return &FakeContext{}
}

func (c *FakeContext) NewPage() (browser.Page, error) {
	var (
		page *FakePage
		err  error
	)
	if c.NewPageFunc != nil {
		page, err = c.NewPageFunc()
	} else {
		page = NewFakePage()
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pages = append(c.pages, page)
	c.mu.Unlock()
	return page, nil
}

func (c *FakeContext) Cookies(urls ...string) ([]browser.Cookie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookieCalls = append(c.cookieCalls, urls)
	if c.CookiesErr != nil {
		return nil, c.CookiesErr
	}
	return append([]browser.Cookie(nil), c.CookieJar...), nil
}

func (c *FakeContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Pages returns every page opened in this context.
func (c *FakeContext) Pages() []*FakePage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*FakePage(nil), c.pages...)
}

// CookieCalls returns the URL arguments of every Cookies call.
func (c *FakeContext) CookieCalls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]string(nil), c.cookieCalls...)
}

// Closed reports whether Close was called.
func (c *FakeContext) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ScriptedResponse is delivered to response listeners Delay after a
// successful Goto.
type ScriptedResponse struct {
	Delay    time.Duration
	Response *FakeResponse
}

// FakePage is a page whose behavior is scripted by its exported fields.
// Set the fields before handing the page to the code under test.
type FakePage struct {
	// GotoFunc decides the outcome of a navigation; nil always succeeds
	GotoFunc func(url string, opts browser.NavigateOptions) error

	// EvaluateFunc answers Evaluate; nil returns (nil, nil)
	EvaluateFunc func(expression string, arg interface{}) (interface{}, error)

	// SelectorFunc answers WaitForSelector; nil returns immediately
	SelectorFunc func(selector string, timeout time.Duration) error

	// Responses are replayed after each successful Goto
	Responses []ScriptedResponse

	ContentHTML string

	mu           sync.Mutex
	url          string
	navigations  []string
	navOpts      []browser.NavigateOptions
	fingerprints []browser.Fingerprint
	evaluations  []string
	listeners    map[int]func(browser.Response)
	nextListener int
	passThrough  bool
	routeCalls   int
	closed       bool
	delivery     sync.WaitGroup
}

// NewFakePage returns a blank page.
func NewFakePage() *FakePage {
	return &FakePage{
		url:       "about:blank",
		listeners: make(map[int]func(browser.Response)),
	}
}

// SetURL moves the page without a navigation.
func (p *FakePage) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

func (p *FakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *FakePage) Goto(url string, opts browser.NavigateOptions) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("page is closed")
	}
	p.navigations = append(p.navigations, url)
	p.navOpts = append(p.navOpts, opts)
	p.mu.Unlock()

	if p.GotoFunc != nil {
		if err := p.GotoFunc(url, opts); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.url = url
	p.mu.Unlock()

	for _, scripted := range p.Responses {
		p.deliver(scripted)
	}
	return nil
}

func (p *FakePage) deliver(scripted ScriptedResponse) {
	p.delivery.Add(1)
	go func() {
		defer p.delivery.Done()
		if scripted.Delay > 0 {
			time.Sleep(scripted.Delay)
		}
		p.Emit(scripted.Response)
	}()
}

// Emit sends resp to every registered listener.
func (p *FakePage) Emit(resp browser.Response) {
	p.mu.Lock()
	listeners := make([]func(browser.Response), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(resp)
	}
}

// WaitDeliveries blocks until every scripted response has been emitted.
func (p *FakePage) WaitDeliveries() {
	p.delivery.Wait()
}

func (p *FakePage) ApplyFingerprint(fp browser.Fingerprint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fingerprints = append(p.fingerprints, fp)
	return nil
}

func (p *FakePage) Evaluate(expression string, arg interface{}) (interface{}, error) {
	p.mu.Lock()
	p.evaluations = append(p.evaluations, expression)
	p.mu.Unlock()

	if p.EvaluateFunc == nil {
		return nil, nil
	}
	return p.EvaluateFunc(expression, arg)
}

func (p *FakePage) WaitForSelector(selector string, timeout time.Duration) error {
	if p.SelectorFunc == nil {
		return nil
	}
	return p.SelectorFunc(selector, timeout)
}

func (p *FakePage) Content() (string, error) {
	return p.ContentHTML, nil
}

func (p *FakePage) EnablePassThrough() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passThrough = true
	p.routeCalls++
	return nil
}

func (p *FakePage) DisablePassThrough() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passThrough = false
	return nil
}

func (p *FakePage) OnResponse(fn func(browser.Response)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listeners == nil {
		p.listeners = make(map[int]func(browser.Response))
	}
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *FakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Navigations returns every URL passed to Goto, failed ones included.
func (p *FakePage) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// NavigateOptions returns the options of every Goto call.
func (p *FakePage) NavigateOptions() []browser.NavigateOptions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]browser.NavigateOptions(nil), p.navOpts...)
}

// Fingerprints returns every fingerprint applied to the page.
func (p *FakePage) Fingerprints() []browser.Fingerprint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]browser.Fingerprint(nil), p.fingerprints...)
}

// Evaluations returns every evaluated expression.
func (p *FakePage) Evaluations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.evaluations...)
}

// PassThrough reports whether interception is currently enabled.
func (p *FakePage) PassThrough() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.passThrough
}

// RouteCalls counts EnablePassThrough calls.
func (p *FakePage) RouteCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.routeCalls
}

// Listeners counts registered response listeners.
func (p *FakePage) Listeners() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

// Closed reports whether Close was called.
func (p *FakePage) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// FakeResponse is a canned network response.
type FakeResponse struct {
	URLValue    string
	StatusValue int
	BodyValue   []byte
	BodyErr     error
}

// JSONResponse returns a 200 response whose body is v encoded as JSON.
func JSONResponse(url string, v interface{}) *FakeResponse {
	body, err := json.Marshal(v)
	return &FakeResponse{URLValue: url, StatusValue: 200, BodyValue: body, BodyErr: err}
}

func (r *FakeResponse) URL() string           { return r.URLValue }
func (r *FakeResponse) Status() int           { return r.StatusValue }
func (r *FakeResponse) Body() ([]byte, error) { return r.BodyValue, r.BodyErr }
