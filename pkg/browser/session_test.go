package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/entrhq/albumscout/pkg/browser"
	"github.com/entrhq/albumscout/pkg/browser/browsertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeURL = "https://www.ximalaya.com"

func newTestSession(t *testing.T, launcher *browsertest.FakeLauncher) *browser.Session {
	t.Helper()
	session, err := browser.NewSession(launcher, browser.Options{
		HomeURL:       homeURL,
		TargetDomains: []string{"ximalaya.com", "*.ximalaya.com"},
		ProfileDir:    t.TempDir(),
		Headless:      true,
	}, nil)
	require.NoError(t, err)
	return session
}

func TestNewSession_Validation(t *testing.T) {
	launcher := &browsertest.FakeLauncher{}

	tests := []struct {
		name     string
		launcher browser.Launcher
		opts     browser.Options
		wantErr  string
	}{
		{
			name:     "missing launcher",
			launcher: nil,
			opts:     browser.Options{HomeURL: homeURL, ProfileDir: "p"},
			wantErr:  "launcher is required",
		},
		{
			name:     "relative home URL",
			launcher: launcher,
			opts:     browser.Options{HomeURL: "/home", ProfileDir: "p"},
			wantErr:  "invalid home URL",
		},
		{
			name:     "missing profile",
			launcher: launcher,
			opts:     browser.Options{HomeURL: homeURL},
			wantErr:  "profile directory is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := browser.NewSession(tt.launcher, tt.opts, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewSession_Defaults(t *testing.T) {
	session := newTestSession(t, &browsertest.FakeLauncher{})

	assert.Equal(t, browser.StateUninitialized, session.State())
	assert.Equal(t, browser.DefaultFingerprint(), session.Fingerprint())
	assert.Equal(t, homeURL, session.HomeURL())
	assert.Empty(t, session.LastKnownURL())

	_, err := session.Page()
	assert.ErrorIs(t, err, browser.ErrSessionNotReady)
}

func TestEnsureReady_LaunchesAndGoesHome(t *testing.T) {
	launcher := &browsertest.FakeLauncher{}
	session := newTestSession(t, launcher)

	require.NoError(t, session.EnsureReady(context.Background()))
	assert.Equal(t, browser.StateReady, session.State())

	launches := launcher.Launches()
	require.Len(t, launches, 1)
	assert.True(t, launches[0].Headless)
	assert.Equal(t, browser.DefaultFingerprint(), launches[0].Fingerprint)
	assert.Contains(t, launches[0].Args, "--disable-blink-features=AutomationControlled")
	assert.Contains(t, launches[0].IgnoreDefaultArgs, "--enable-automation")
	assert.NotEmpty(t, launches[0].InitScripts)

	pages := launcher.LastContext().Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, []string{homeURL}, pages[0].Navigations())
	assert.Equal(t, browser.WaitDOMContentLoaded, pages[0].NavigateOptions()[0].WaitUntil)
	assert.Equal(t, browser.DefaultHomeTimeout, pages[0].NavigateOptions()[0].Timeout)
	assert.Equal(t, []browser.Fingerprint{browser.DefaultFingerprint()}, pages[0].Fingerprints())
	assert.Equal(t, homeURL, session.LastKnownURL())

	page, err := session.Page()
	require.NoError(t, err)
	assert.Same(t, pages[0], page)
}

func TestEnsureReady_Idempotent(t *testing.T) {
	launcher := &browsertest.FakeLauncher{}
	session := newTestSession(t, launcher)
	ctx := context.Background()

	require.NoError(t, session.EnsureReady(ctx))
	require.NoError(t, session.EnsureReady(ctx))

	assert.Len(t, launcher.Launches(), 1)
	pages := launcher.LastContext().Pages()
	require.Len(t, pages, 1)
	assert.Len(t, pages[0].Navigations(), 1, "second call must not navigate")
}

func TestEnsureReady_PageOnTargetSkipsHome(t *testing.T) {
	page := browsertest.NewFakePage()
	page.SetURL("https://m.ximalaya.com/album/123")

	launcher := &browsertest.FakeLauncher{
		NewContext: func(browser.LaunchOptions) *browsertest.FakeContext {
			return &browsertest.FakeContext{
				NewPageFunc: func() (*browsertest.FakePage, error) { return page, nil },
			}
		},
	}
	session := newTestSession(t, launcher)

	require.NoError(t, session.EnsureReady(context.Background()))
	assert.Empty(t, page.Navigations())
	assert.Equal(t, "https://m.ximalaya.com/album/123", session.LastKnownURL())
}

func TestEnsureReady_ReturnsHomeWhenOffSite(t *testing.T) {
	launcher := &browsertest.FakeLauncher{}
	session := newTestSession(t, launcher)
	ctx := context.Background()

	require.NoError(t, session.EnsureReady(ctx))
	page := launcher.LastContext().Pages()[0]
	page.SetURL("https://passport.example.com/login")

	require.NoError(t, session.EnsureReady(ctx))
	assert.Equal(t, []string{homeURL, homeURL}, page.Navigations())
}

func TestEnsureReady_RetriesOnceOnFreshPage(t *testing.T) {
	first := browsertest.NewFakePage()
	first.GotoFunc = func(string, browser.NavigateOptions) error {
		return errors.New("net::ERR_CONNECTION_RESET")
	}
	second := browsertest.NewFakePage()
	queue := []*browsertest.FakePage{first, second}

	launcher := &browsertest.FakeLauncher{
		NewContext: func(browser.LaunchOptions) *browsertest.FakeContext {
			return &browsertest.FakeContext{
				NewPageFunc: func() (*browsertest.FakePage, error) {
					p := queue[0]
					queue = queue[1:]
					return p, nil
				},
			}
		},
	}
	session := newTestSession(t, launcher)

	require.NoError(t, session.EnsureReady(context.Background()))
	assert.Equal(t, browser.StateReady, session.State())
	assert.True(t, first.Closed())
	assert.Len(t, first.Navigations(), 1)
	assert.Len(t, second.Navigations(), 1)
	assert.Equal(t, []browser.Fingerprint{browser.DefaultFingerprint()}, second.Fingerprints())

	page, err := session.Page()
	require.NoError(t, err)
	assert.Same(t, second, page)
}

func TestEnsureReady_FailsAfterSecondAttempt(t *testing.T) {
	var pagesOpened int
	launcher := &browsertest.FakeLauncher{
		NewContext: func(browser.LaunchOptions) *browsertest.FakeContext {
			return &browsertest.FakeContext{
				NewPageFunc: func() (*browsertest.FakePage, error) {
					pagesOpened++
					p := browsertest.NewFakePage()
					p.GotoFunc = func(string, browser.NavigateOptions) error {
						return errors.New("timeout 30000ms exceeded")
					}
					return p, nil
				},
			}
		},
	}
	session := newTestSession(t, launcher)

	err := session.EnsureReady(context.Background())
	require.Error(t, err)

	var navErr *browser.NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, homeURL, navErr.URL)
	assert.Equal(t, 2, navErr.Attempts)
	assert.Contains(t, navErr.Error(), "timeout 30000ms exceeded")
	assert.Equal(t, browser.StateFailed, session.State())
	assert.Equal(t, 2, pagesOpened, "exactly one retry")

	_, err = session.Page()
	assert.ErrorIs(t, err, browser.ErrSessionNotReady)
}

func TestEnsureReady_RelaunchesAfterFailure(t *testing.T) {
	fail := true
	launcher := &browsertest.FakeLauncher{
		NewContext: func(browser.LaunchOptions) *browsertest.FakeContext {
			return &browsertest.FakeContext{
				NewPageFunc: func() (*browsertest.FakePage, error) {
					p := browsertest.NewFakePage()
					if fail {
						p.GotoFunc = func(string, browser.NavigateOptions) error {
							return errors.New("unreachable")
						}
					}
					return p, nil
				},
			}
		},
	}
	session := newTestSession(t, launcher)
	ctx := context.Background()

	require.Error(t, session.EnsureReady(ctx))
	failed := launcher.LastContext()

	fail = false
	require.NoError(t, session.EnsureReady(ctx))
	assert.Equal(t, browser.StateReady, session.State())
	assert.True(t, failed.Closed())
	assert.Len(t, launcher.Launches(), 2)
}

func TestEnsureReady_LaunchFailure(t *testing.T) {
	launcher := &browsertest.FakeLauncher{Err: errors.New("chromium not found")}
	session := newTestSession(t, launcher)

	err := session.EnsureReady(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chromium not found")
	assert.Equal(t, browser.StateFailed, session.State())
}

func TestEnsureReady_CanceledContext(t *testing.T) {
	launcher := &browsertest.FakeLauncher{}
	session := newTestSession(t, launcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := session.EnsureReady(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, launcher.Launches())
}

func TestEnsureReady_CanceledDuringSettle(t *testing.T) {
	launcher := &browsertest.FakeLauncher{}
	session, err := browser.NewSession(launcher, browser.Options{
		HomeURL:     homeURL,
		ProfileDir:  t.TempDir(),
		SettleDelay: time.Minute,
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = session.EnsureReady(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	pages := launcher.LastContext().Pages()
	assert.Len(t, pages, 1, "no retry after cancellation")
}

func TestClose_ResetsAndRebuildsFingerprint(t *testing.T) {
	launcher := &browsertest.FakeLauncher{}
	session := newTestSession(t, launcher)
	ctx := context.Background()

	require.NoError(t, session.EnsureReady(ctx))
	first := launcher.LastContext()

	require.NoError(t, session.Close())
	assert.Equal(t, browser.StateUninitialized, session.State())
	assert.Empty(t, session.LastKnownURL())
	assert.True(t, first.Closed())
	assert.True(t, first.Pages()[0].Closed())

	// Closing twice is a no-op
	require.NoError(t, session.Close())

	require.NoError(t, session.EnsureReady(ctx))
	launches := launcher.Launches()
	require.Len(t, launches, 2)
	assert.Equal(t, browser.DefaultFingerprint(), launches[1].Fingerprint)

	second := launcher.LastContext()
	assert.NotSame(t, first, second)
	pages := second.Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, []browser.Fingerprint{browser.DefaultFingerprint()}, pages[0].Fingerprints())
}

func TestNavigate(t *testing.T) {
	launcher := &browsertest.FakeLauncher{}
	session := newTestSession(t, launcher)
	ctx := context.Background()

	err := session.Navigate(ctx, homeURL+"/album/1", browser.NavigateOptions{})
	assert.ErrorIs(t, err, browser.ErrSessionNotReady)

	require.NoError(t, session.EnsureReady(ctx))
	require.NoError(t, session.Navigate(ctx, homeURL+"/album/1", browser.NavigateOptions{WaitUntil: browser.WaitLoad}))
	assert.Equal(t, homeURL+"/album/1", session.LastKnownURL())

	page := launcher.LastContext().Pages()[0]
	page.GotoFunc = func(string, browser.NavigateOptions) error { return errors.New("aborted") }

	err = session.Navigate(ctx, homeURL+"/album/2", browser.NavigateOptions{})
	var navErr *browser.NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, 1, navErr.Attempts)
	assert.Equal(t, homeURL+"/album/2", navErr.URL)
	assert.Equal(t, homeURL+"/album/1", session.LastKnownURL())
}

func TestCookies(t *testing.T) {
	jar := []browser.Cookie{{Name: "1&_token", Value: "abc", Domain: ".ximalaya.com"}}
	launcher := &browsertest.FakeLauncher{
		NewContext: func(browser.LaunchOptions) *browsertest.FakeContext {
			return &browsertest.FakeContext{CookieJar: jar}
		},
	}
	session := newTestSession(t, launcher)

	_, err := session.Cookies(homeURL)
	assert.ErrorIs(t, err, browser.ErrSessionNotReady)

	require.NoError(t, session.EnsureReady(context.Background()))
	cookies, err := session.Cookies(homeURL)
	require.NoError(t, err)
	assert.Equal(t, jar, cookies)
	assert.Equal(t, [][]string{{homeURL}}, launcher.LastContext().CookieCalls())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", browser.StateUninitialized.String())
	assert.Equal(t, "launching", browser.StateLaunching.String())
	assert.Equal(t, "ready", browser.StateReady.String())
	assert.Equal(t, "failed", browser.StateFailed.String())
	assert.Equal(t, "unknown", browser.State(42).String())
}

func TestSleep(t *testing.T) {
	require.NoError(t, browser.Sleep(context.Background(), 0))
	require.NoError(t, browser.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, browser.Sleep(ctx, 0), context.Canceled)

	start := time.Now()
	assert.ErrorIs(t, browser.Sleep(ctx, time.Minute), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
