// Package main provides the albumscout command line tool.
// It keeps a logged-in browser profile for the site and reads album metadata,
// track listings and playable links through it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0"

// globalOptions holds the flags accepted before the command name.
type globalOptions struct {
	ConfigFile  string
	ProfileDir  string
	BaseURL     string
	Headless    bool
	Executable  string
	Install     bool
	Verbose     bool
	ShowVersion bool

	// set records which flags were given explicitly
	set map[string]bool
}

func main() {
	opts, args, err := parseGlobalFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	if opts.ShowVersion {
		fmt.Printf("albumscout v%s\n", version)
		return
	}

	if len(args) == 0 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	if err := run(ctx, opts, args, os.Stdin, os.Stdout, os.Stderr); err != nil {
		cancel()
		log.Printf("%s failed: %v", args[0], err)
		os.Exit(1)
	}
	cancel()
}

// parseGlobalFlags parses the flags in front of the command name.
func parseGlobalFlags(argv []string, stderr io.Writer) (*globalOptions, []string, error) {
	opts := &globalOptions{set: make(map[string]bool)}

	fs := flag.NewFlagSet("albumscout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to configuration file (default ~/.albumscout/config.json)")
	fs.StringVar(&opts.ProfileDir, "profile", "", "Browser profile directory")
	fs.StringVar(&opts.BaseURL, "base-url", "", "Site base URL")
	fs.BoolVar(&opts.Headless, "headless", false, "Run the browser without a window")
	fs.StringVar(&opts.Executable, "executable", "", "Chromium executable to use instead of the bundled one")
	fs.BoolVar(&opts.Install, "install", true, "Download the Playwright driver and Chromium when missing")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Mirror the log on stderr")
	fs.BoolVar(&opts.ShowVersion, "version", false, "Show version and exit")
	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(argv); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	fs.SetOutput(io.Discard)
	return opts, fs.Args(), nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "albumscout - album metadata and track listings through a logged-in browser\n\n")
	fmt.Fprintf(w, "Usage: albumscout [global options] <command> [options]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nGlobal options:\n")
	fmt.Fprintf(w, "  -config FILE      configuration file\n")
	fmt.Fprintf(w, "  -profile DIR      browser profile directory (env %s)\n", "ALBUMSCOUT_PROFILE_DIR")
	fmt.Fprintf(w, "  -base-url URL     site base URL (env %s)\n", "ALBUMSCOUT_BASE_URL")
	fmt.Fprintf(w, "  -headless         run without a browser window\n")
	fmt.Fprintf(w, "  -executable PATH  Chromium executable (env %s)\n", "ALBUMSCOUT_EXECUTABLE")
	fmt.Fprintf(w, "  -install          download driver and browser when missing (default true)\n")
	fmt.Fprintf(w, "  -verbose          mirror the log on stderr\n")
	fmt.Fprintf(w, "  -version          show version and exit\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  # Log in once with a visible browser\n")
	fmt.Fprintf(w, "  albumscout login\n\n")
	fmt.Fprintf(w, "  # Album metadata and first listing page as JSON\n")
	fmt.Fprintf(w, "  albumscout -headless album -id 12345\n")
	fmt.Fprintf(w, "  albumscout -headless tracks -id 12345\n\n")
	fmt.Fprintf(w, "  # Batch run\n")
	fmt.Fprintf(w, "  albumscout -headless run -job albums.yaml\n")
}
