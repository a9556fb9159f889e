package main

import (
	"context"
	"fmt"

	"github.com/entrhq/albumscout/pkg/browser"
)

// runLogin opens the home page in a visible window, lets the user log in by
// hand and checks the result. The profile directory keeps the session.
func runLogin(ctx context.Context, env *cmdEnv, args []string) error {
	if err := newFlagSet("login").Parse(args); err != nil {
		return err
	}

	a := env.app
	if err := a.session.EnsureReady(ctx); err != nil {
		return err
	}

	fmt.Fprintf(env.out, "Opening %s, log in using the browser window...\n", a.session.HomeURL())
	// EnsureReady leaves the page at home unless the site redirected it away
	if !a.session.OnTarget(a.session.LastKnownURL()) {
		err := a.session.Navigate(ctx, a.session.HomeURL(), browser.NavigateOptions{
			WaitUntil: browser.WaitNetworkIdle,
			Timeout:   a.settings.Browser.PageTimeout,
		})
		if err != nil {
			// The window is still usable; the user can load the page by hand
			a.logger.Warnf("Home page did not settle: %v", err)
		}
	}

	fmt.Fprint(env.out, "Press Enter once you are logged in... ")
	if _, err := readLine(ctx, env.in); err != nil {
		return err
	}

	fmt.Fprintln(env.out, "Checking login state...")
	state := a.probe.Check(ctx)
	if state.IsLoggedIn {
		fmt.Fprintf(env.out, "Logged in as %s (uid %d). The session is saved in %s.\n",
			state.Identity.Nickname, state.Identity.UID, a.settings.Browser.ProfileDir)
	} else {
		fmt.Fprintln(env.out, "Not logged in. Check the browser window and run login again.")
	}

	fmt.Fprint(env.out, "Press Enter to close the browser... ")
	if _, err := readLine(ctx, env.in); err != nil {
		return err
	}
	return nil
}
