// Package main is the entry point for the clickstorm auto clicker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/clickstorm/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	// Ensure cleanup on all exit paths
	defer application.Shutdown()

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		application.Shutdown()
	}()

	if err := application.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func parseFlags() app.Options {
	var opts app.Options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.ProfilePath, "profile", "", "Path to profile file")
	flag.StringVar(&opts.ProfilePath, "p", "", "Path to profile file (shorthand)")
	flag.StringVar(&opts.ScriptPath, "script", "", "Lua action list to load")
	flag.StringVar(&opts.ScriptPath, "s", "", "Lua action list to load (shorthand)")
	flag.StringVar(&opts.Mode, "mode", "", "Replay mode (single, multi, record)")
	flag.StringVar(&opts.Mode, "m", "", "Replay mode (shorthand)")
	flag.BoolVar(&opts.RecordNow, "record", false, "Start recording immediately, save on stop")
	flag.BoolVar(&opts.RecordNow, "r", false, "Start recording immediately (shorthand)")
	flag.BoolVar(&opts.Debug, "debug", false, "Enable debug mode")
	flag.BoolVar(&opts.Debug, "d", false, "Enable debug mode (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.Watch, "watch", false, "Reload config and profile on file changes")
	flag.BoolVar(&opts.Watch, "w", false, "Reload config and profile on file changes (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Clickstorm - hotkey driven auto clicker and input recorder\n\n")
		fmt.Fprintf(os.Stderr, "Usage: clickstorm [options] [profile.json]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  clickstorm                      Run with the default profile\n")
		fmt.Fprintf(os.Stderr, "  clickstorm farm.json            Run with a saved profile\n")
		fmt.Fprintf(os.Stderr, "  clickstorm -s actions.lua       Replay a scripted action list\n")
		fmt.Fprintf(os.Stderr, "  clickstorm -m record            Record a session, then replay it\n")
		fmt.Fprintf(os.Stderr, "  clickstorm -r farm.json         Record straight away, save on stop\n")
		fmt.Fprintf(os.Stderr, "  clickstorm -w farm.json         Reload the profile when it changes\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Clickstorm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	// Validate mode
	switch opts.Mode {
	case "", "single", "multi", "record":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid mode %q (must be single, multi, or record)\n", opts.Mode)
		os.Exit(1)
	}
	if opts.RecordNow && opts.Mode != "" && opts.Mode != "record" {
		fmt.Fprintf(os.Stderr, "Error: -record conflicts with -mode %s\n", opts.Mode)
		os.Exit(1)
	}

	// A trailing argument names the profile
	if opts.ProfilePath == "" && flag.NArg() > 0 {
		opts.ProfilePath = flag.Arg(0)
	}

	return opts
}
