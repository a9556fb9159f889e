package browser

import (
	"time"
)

// Launcher starts a browser bound to a persistent profile.
type Launcher interface {
	Launch(opts LaunchOptions) (Context, error)
}

// Context is a running browser with its profile (cookies, storage).
type Context interface {
	NewPage() (Page, error)
	Cookies(urls ...string) ([]Cookie, error)
	Close() error
}

// Page is the single tab a Session drives.
type Page interface {
	URL() string
	Goto(url string, opts NavigateOptions) error
	ApplyFingerprint(fp Fingerprint) error

	// Evaluate runs expression in the page; a function expression receives arg.
	Evaluate(expression string, arg interface{}) (interface{}, error)

	// WaitForSelector returns once selector is attached to the DOM.
	WaitForSelector(selector string, timeout time.Duration) error
	Content() (string, error)

	// EnablePassThrough routes every request through an interceptor that
	// continues it unmodified. DisablePassThrough removes the route.
	EnablePassThrough() error
	DisablePassThrough() error

	// OnResponse registers fn for every completed response and returns a
	// function that unregisters it.
	OnResponse(fn func(Response)) (remove func())

	Close() error
}

// Response is a completed network response seen by the page.
type Response interface {
	URL() string
	Status() int
	Body() ([]byte, error)
}
