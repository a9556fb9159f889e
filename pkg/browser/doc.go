// Package browser owns the long-lived browser session used to talk to the site.
//
// A single Session drives one persistent Chromium profile and one page. The
// profile directory is the only place authentication survives between runs:
// log in once with a headed browser and later runs reuse the cookies.
//
// # Session Lifecycle
//
// Sessions move through four states:
//
//  1. Uninitialized: nothing is running
//  2. Launching: the persistent context is being started
//  3. Ready: the page is open, fingerprinted and on the target site
//  4. Failed: home navigation failed twice; the next EnsureReady relaunches
//
// EnsureReady is idempotent. A page that is already on one of the target
// domains is used as is; any other page is sent to the home URL first.
//
// # Fingerprint
//
// Every page gets the same viewport and user agent, and the launch applies a
// Stealth capability (BasicStealth by default). Close followed by EnsureReady
// rebuilds all of it from nothing.
//
// # Drivers
//
// Session talks to the browser through the Launcher, Context and Page
// interfaces. PlaywrightLauncher is the real implementation; the browsertest
// package provides scripted fakes for tests.
//
// # Concurrency
//
// A Session is not safe for concurrent use. Callers serialize navigations.
package browser
