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

package main

import (
	stderrors "errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/bracecheck/internal/errors"
	"github.com/kraklabs/bracecheck/internal/ui"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force       bool
	target      string
	mode        string
	metricsFile string
}

// runInit executes the 'init' command, writing .bracecheck/project.yaml in
// the current directory.
//
// Examples:
//
//	bracecheck init
//	bracecheck init --target src/app.js --mode tokens
//	bracecheck init --force
func runInit(args []string, globals GlobalFlags) {
	flags, err := parseInitFlags(args)
	if stderrors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot access working directory",
			"Failed to determine current directory path",
			"This is unexpected. Please report this issue if it persists",
			err,
		), globals.JSON)
	}

	configPath, err := writeInitConfig(cwd, flags)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if !globals.Quiet {
		ui.Successf("Created %s", configPath)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Next steps:")
		fmt.Fprintln(os.Stderr, "  bracecheck config    Review the configuration")
		fmt.Fprintln(os.Stderr, "  bracecheck           Scan the configured target")
	}
}

func parseInitFlags(args []string) (initFlags, error) {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.StringVar(&f.target, "target", defaultTarget, "File to scan, relative to this directory")
	fs.StringVar(&f.mode, "mode", modeNaive, "Scan mode: naive or tokens")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Prometheus textfile written after each scan")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bracecheck init [options]

Description:
  Create .bracecheck/project.yaml in the current directory with default
  settings. Scans work without it; the file only records non-default
  choices for the project.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if fs.NArg() > 0 {
		return f, errors.NewInputError(
			"Unexpected arguments",
			fmt.Sprintf("init takes no positional arguments, got %q", fs.Args()),
			"Use --target to set the file to scan",
		)
	}
	return f, validateMode(f.mode)
}

// writeInitConfig writes the config for dir and returns its path.
func writeInitConfig(dir string, f initFlags) (string, error) {
	configPath := ConfigPath(dir)
	if _, err := os.Stat(configPath); err == nil && !f.force {
		return "", errors.NewInputError(
			"Configuration already exists",
			fmt.Sprintf("%s already exists in this directory", configPath),
			"Use 'bracecheck init --force' to overwrite the existing configuration",
		)
	}

	cfg := DefaultConfig()
	cfg.Target = f.target
	cfg.Scan.Mode = f.mode
	cfg.Metrics.Textfile = f.metricsFile

	if err := SaveConfig(cfg, configPath); err != nil {
		return "", err
	}
	return configPath, nil
}
