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
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/bracecheck/internal/errors"
	"github.com/kraklabs/bracecheck/internal/output"
	"github.com/kraklabs/bracecheck/internal/ui"
)

// ConfigOutput represents the effective configuration for JSON output.
type ConfigOutput struct {
	ConfigPath string           `json:"config_path,omitempty"`
	Version    string           `json:"version"`
	Target     string           `json:"target"`
	Scan       ScanConfigOutput `json:"scan"`
	Metrics    MetricsOutput    `json:"metrics"`
}

// ScanConfigOutput represents scan settings for JSON output.
type ScanConfigOutput struct {
	Mode  string `json:"mode"`
	Tail  int    `json:"tail"`
	Width int    `json:"width"`
}

// MetricsOutput represents metrics settings for JSON output.
type MetricsOutput struct {
	Textfile   string `json:"textfile,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
}

// runConfig executes the 'config' command, displaying the configuration that
// scan and watch would use, including defaults and environment overrides.
func runConfig(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bracecheck config [options]

Description:
  Display the effective bracecheck configuration. When no
  .bracecheck/project.yaml is found, built-in defaults are shown.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  bracecheck config
  bracecheck --json config | jq '.scan.mode'

`)
	}
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(errors.ExitError)
	}

	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	result := buildConfigOutput(resolvedConfigPath(configPath), cfg)

	if globals.JSON {
		if err := output.JSON(result); err != nil {
			errors.FatalError(errors.NewInternalError(
				"Cannot encode configuration as JSON",
				"JSON encoding failed unexpectedly",
				"This is a bug. Please report it",
				err,
			), globals.JSON)
		}
		return
	}
	printConfigHuman(result)
}

// resolvedConfigPath returns the absolute path of the config file in use, or
// "" when running on defaults.
func resolvedConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("BRACECHECK_CONFIG_PATH")
	}
	if configPath == "" {
		found, err := findConfigFile()
		if err != nil {
			return ""
		}
		configPath = found
	}
	if abs, err := filepath.Abs(configPath); err == nil {
		return abs
	}
	return configPath
}

func buildConfigOutput(cfgPath string, cfg *Config) ConfigOutput {
	return ConfigOutput{
		ConfigPath: cfgPath,
		Version:    cfg.Version,
		Target:     cfg.Target,
		Scan: ScanConfigOutput{
			Mode:  cfg.Scan.Mode,
			Tail:  cfg.Scan.Tail,
			Width: cfg.Scan.Width,
		},
		Metrics: MetricsOutput{
			Textfile:   cfg.Metrics.Textfile,
			ListenAddr: cfg.Metrics.ListenAddr,
		},
	}
}

func printConfigHuman(c ConfigOutput) {
	ui.Header("bracecheck Configuration")

	source := c.ConfigPath
	if source == "" {
		source = "(built-in defaults)"
	}
	fmt.Printf("%s %s\n", ui.Label("Config File:"), ui.DimText(source))
	fmt.Printf("%s %s\n", ui.Label("Version:"), c.Version)
	fmt.Printf("%s %s\n", ui.Label("Target:"), c.Target)
	fmt.Println()

	ui.SubHeader("Scan:")
	fmt.Printf("  %s %s\n", ui.Label("Mode:"), c.Scan.Mode)
	fmt.Printf("  %s %s\n", ui.Label("Tail:"), ui.CountText(c.Scan.Tail))
	fmt.Printf("  %s %s\n", ui.Label("Width:"), ui.CountText(c.Scan.Width))

	if c.Metrics.Textfile != "" || c.Metrics.ListenAddr != "" {
		fmt.Println()
		ui.SubHeader("Metrics:")
		if c.Metrics.Textfile != "" {
			fmt.Printf("  %s %s\n", ui.Label("Textfile:"), c.Metrics.Textfile)
		}
		if c.Metrics.ListenAddr != "" {
			fmt.Printf("  %s %s\n", ui.Label("Listen:"), c.Metrics.ListenAddr)
		}
	}
}
