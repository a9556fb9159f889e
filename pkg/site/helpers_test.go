package site

import (
	"testing"

	"github.com/entrhq/albumscout/pkg/browser"
	"github.com/entrhq/albumscout/pkg/browser/browsertest"
	"github.com/stretchr/testify/require"
)

// newTestSession returns a session whose only page is page, already sitting
// on baseURL so EnsureReady does not navigate.
func newTestSession(t *testing.T, baseURL string, page *browsertest.FakePage, jar []browser.Cookie) (*browser.Session, *browsertest.FakeLauncher) {
	t.Helper()

	page.SetURL(baseURL + "/")
	launcher := &browsertest.FakeLauncher{
		NewContext: func(browser.LaunchOptions) *browsertest.FakeContext {
			return &browsertest.FakeContext{
				CookieJar:   jar,
				NewPageFunc: func() (*browsertest.FakePage, error) { return page, nil },
			}
		},
	}

	session, err := browser.NewSession(launcher, browser.Options{
		HomeURL:    baseURL,
		ProfileDir: t.TempDir(),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session, launcher
}
