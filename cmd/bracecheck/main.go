// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later
// Package main implements the bracecheck CLI, a brace balance diagnostic for
// JavaScript files.
//
// Usage:
//
//	bracecheck [scan] [path]     Report final brace depth and unclosed blocks
//	bracecheck watch [path]      Re-scan whenever the file changes
//	bracecheck config [--json]   Show effective configuration
//	bracecheck init              Create .bracecheck/project.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/bracecheck/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the global CLI flags that apply to all commands.
type GlobalFlags struct {
	JSON    bool // Output in JSON format
	NoColor bool // Disable color output
	Verbose int  // 0=warnings, 1=-v (info), 2=-vv (debug)
	Quiet   bool // Suppress progress and info messages
}

// newLogger builds the stderr logger for a command run.
func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case globals.Quiet:
		level = slog.LevelError
	case globals.Verbose >= 2:
		level = slog.LevelDebug
	case globals.Verbose == 1:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .bracecheck/project.yaml (default: search upward from cwd)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output (progress, info messages)")
	)

	// Stop at the first non-flag argument so subcommand flags reach the
	// subcommand parser.
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `bracecheck - curly brace balance checker for JavaScript

Scans a JavaScript file line by line, tracks the nesting depth of { and },
and reports the final depth plus the last few blocks left open. Lines whose
trimmed text starts with // are skipped.

Usage:
  bracecheck [global options] [command] [options] [path]

Commands:
  scan      Scan a file once (default)
  watch     Re-scan a file whenever it changes
  config    Show current configuration
  init      Create .bracecheck/project.yaml

Global Options:
  --json            Output in JSON format
  --no-color        Disable color output (respects NO_COLOR env var)
  -v, --verbose     Increase verbosity (-v for info, -vv for debug)
  -q, --quiet       Suppress non-essential output
  -c, --config      Path to .bracecheck/project.yaml
  -V, --version     Show version and exit

Examples:
  bracecheck                              Scan public/js/app.js
  bracecheck src/main.js                  Scan another file
  bracecheck scan --mode tokens app.js    Ignore braces in strings and comments
  bracecheck --json scan app.js           Output as JSON
  bracecheck watch --metrics-addr :9464   Re-scan on change, expose /metrics

For detailed command help: bracecheck <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("bracecheck version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}

	if *quiet && *verbose > 0 {
		fmt.Fprintf(os.Stderr, "Error: cannot use --quiet and --verbose together\n")
		os.Exit(1)
	}

	// JSON mode implies quiet so progress bars never mix with the output.
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
		Quiet:   *quiet,
	}

	ui.InitColors(globals.NoColor)

	args := flag.Args()
	command := "scan"
	if len(args) > 0 {
		switch args[0] {
		case "scan", "watch", "config", "init", "help":
			command, args = args[0], args[1:]
		}
	}

	switch command {
	case "scan":
		os.Exit(runScan(args, *configPath, globals))
	case "watch":
		os.Exit(runWatch(args, *configPath, globals))
	case "config":
		runConfig(args, *configPath, globals)
	case "init":
		runInit(args, globals)
	case "help":
		flag.Usage()
	}
}
