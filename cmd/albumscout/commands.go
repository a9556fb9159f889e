package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/entrhq/albumscout/pkg/browser"
	"github.com/entrhq/albumscout/pkg/config"
	"github.com/entrhq/albumscout/pkg/logging"
	"github.com/entrhq/albumscout/pkg/site"
)

// cmdEnv is what a command runs against.
type cmdEnv struct {
	app *app
	in  *bufio.Reader
	out io.Writer
}

type command struct {
	name    string
	summary string

	// headed commands always show the browser window
	headed bool

	// offline commands never start a browser; env.app is nil
	offline bool
	run     func(ctx context.Context, env *cmdEnv, args []string) error
}

var commands = []command{
	{name: "login", summary: "open a browser window to log in and keep the session", headed: true, run: runLogin},
	{name: "status", summary: "print the login state as JSON", run: runStatus},
	{name: "album", summary: "print album metadata as JSON", run: runAlbum},
	{name: "tracks", summary: "print the album track listing as JSON", run: runTracks},
	{name: "resolve", summary: "resolve a media token to a playable URL", run: runResolve},
	{name: "run", summary: "process a YAML job file, one JSON line per result", run: runJob},
	{name: "config", summary: "write the configuration file (-reset restores defaults)", offline: true, run: runConfig},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// launcherFactory builds the browser launcher; tests swap it for a fake.
var launcherFactory = func(install bool) (browser.Launcher, func()) {
	l := browser.NewPlaywrightLauncher(install)
	return l, func() { _ = l.Stop() }
}

// run resolves settings, builds the app and executes the command in args[0].
func run(ctx context.Context, opts *globalOptions, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd, ok := findCommand(args[0])
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}

	s, err := resolveSettings(opts)
	if err != nil {
		return err
	}
	if cmd.headed {
		s.Browser.Headless = false
	}

	logger, closeLog := newLogger(opts.Verbose, stderr)
	defer closeLog()
	logger.Infof("albumscout v%s %s (profile %s, base %s)", version, cmd.name, s.Browser.ProfileDir, s.Site.BaseURL)

	if cmd.offline {
		return cmd.run(ctx, &cmdEnv{in: bufio.NewReader(stdin), out: stdout}, args[1:])
	}

	launcher, stop := launcherFactory(opts.Install)
	defer stop()

	a, err := newApp(s, launcher, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warnf("%v", err)
		}
	}()

	return cmd.run(ctx, &cmdEnv{app: a, in: bufio.NewReader(stdin), out: stdout}, args[1:])
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runStatus(ctx context.Context, env *cmdEnv, args []string) error {
	if err := newFlagSet("status").Parse(args); err != nil {
		return err
	}
	return writeJSON(env.out, env.app.probe.Check(ctx))
}

func runAlbum(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("album")
	id := fs.String("id", "", "Album id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	album, err := env.app.catalog.GetAlbum(ctx, *id)
	if err != nil {
		return err
	}
	return writeJSON(env.out, album)
}

func runTracks(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("tracks")
	id := fs.String("id", "", "Album id")
	page := fs.Int("page", 1, "Listing page")
	size := fs.Int("size", 30, "Listing page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := env.app.tracks.GetTracks(ctx, *id, *page, *size)
	if err != nil {
		return err
	}
	return writeJSON(env.out, result)
}

func runResolve(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("resolve")
	token := fs.String("token", "", "Obfuscated media token")
	device := fs.String("device", "", "Device type (default from configuration)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	link, err := env.app.resolver.Resolve(ctx, *token, *device)
	if err != nil {
		return err
	}
	return writeJSON(env.out, link)
}

// configResult is the output of the config command.
type configResult struct {
	Path         string `json:"path"`
	LogDirectory string `json:"logDirectory,omitempty"`
	Reset        bool   `json:"reset"`
}

// runConfig writes the loaded configuration back to its file, creating it
// with every key when missing.
func runConfig(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("config")
	reset := fs.Bool("reset", false, "Restore every setting to its default before writing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	manager := config.Global()
	if *reset {
		manager.ResetAll()
	}
	if err := manager.SaveAll(); err != nil {
		return err
	}

	result := configResult{Reset: *reset}
	if store, ok := manager.Store().(*config.FileStore); ok {
		result.Path = store.Path()
	}
	if dir, err := logging.GetLogDirectory(); err == nil {
		result.LogDirectory = dir
	}
	return writeJSON(env.out, result)
}

// jobResult is one line of run output.
type jobResult struct {
	AlbumID string                `json:"albumId,omitempty"`
	Kind    string                `json:"kind"`
	Login   *site.LoginState      `json:"login,omitempty"`
	Album   *site.AlbumMetadata   `json:"album,omitempty"`
	Tracks  *site.TrackListResult `json:"tracks,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// runJob processes every album of a job file in order. Per-album failures are
// reported as result lines; navigation failures and cancellation stop the run.
func runJob(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet("run")
	path := fs.String("job", "", "YAML job file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("-job is required")
	}

	job, err := config.LoadJob(*path)
	if err != nil {
		return err
	}

	logger := env.app.logger
	if job.CheckLogin {
		state := env.app.probe.Check(ctx)
		if err := writeJSON(env.out, jobResult{Kind: "login", Login: &state}); err != nil {
			return err
		}
		if !state.IsLoggedIn {
			logger.Warnf("Not logged in; listings may be partial")
		}
	}

	var failed int
	for _, album := range job.Albums {
		if album.WantsMetadata() {
			meta, err := env.app.catalog.GetAlbum(ctx, album.ID)
			if stop, err := report(env.out, logger, jobResult{AlbumID: album.ID, Kind: "album", Album: meta}, err); stop {
				return err
			} else if err != nil {
				failed++
			}
		}
		if album.WantsTracks() {
			tracks, err := env.app.tracks.GetTracks(ctx, album.ID, album.Page, album.Size)
			if stop, err := report(env.out, logger, jobResult{AlbumID: album.ID, Kind: "tracks", Tracks: tracks}, err); stop {
				return err
			} else if err != nil {
				failed++
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of the job's requests failed", failed)
	}
	return nil
}

// report writes result, with err attached when set. stop is true when the run
// cannot go on: the context ended, the session is gone, or output failed.
func report(out io.Writer, logger *logging.Logger, result jobResult, err error) (bool, error) {
	if err != nil {
		logger.Errorf("%s %s: %v", result.Kind, result.AlbumID, err)
		result.Error = err.Error()
	}
	if writeErr := writeJSON(out, result); writeErr != nil {
		return true, writeErr
	}
	if err == nil {
		return false, nil
	}

	var navErr *browser.NavigationError
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, browser.ErrSessionNotReady) || (errors.As(err, &navErr) && navErr.Attempts > 1) {
		return true, err
	}
	return false, err
}

// readLine waits for a line on in, or for ctx to end.
func readLine(ctx context.Context, in *bufio.Reader) (string, error) {
	type line struct {
		text string
		err  error
	}
	ch := make(chan line, 1)
	go func() {
		text, err := in.ReadString('\n')
		ch <- line{strings.TrimSpace(text), err}
	}()

	select {
	case l := <-ch:
		if errors.Is(l.err, io.EOF) {
			return l.text, nil
		}
		return l.text, l.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
