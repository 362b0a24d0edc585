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
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/bracecheck/internal/errors"
	"github.com/kraklabs/bracecheck/pkg/braces"
)

const (
	defaultConfigDir  = ".bracecheck"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"

	// defaultTarget is the file scanned when nothing else is configured.
	defaultTarget = "public/js/app.js"
)

// Scan modes.
const (
	modeNaive  = "naive"  // line based, skips "//" lines
	modeTokens = "tokens" // Tree-sitter tokens
)

// Config represents the .bracecheck/project.yaml configuration file.
type Config struct {
	Version string        `yaml:"version"`
	Target  string        `yaml:"target"`
	Scan    ScanConfig    `yaml:"scan"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// ScanConfig contains scan and report settings.
type ScanConfig struct {
	Mode  string `yaml:"mode"`  // naive, tokens
	Tail  int    `yaml:"tail"`  // unclosed markers to list
	Width int    `yaml:"width"` // characters of line text per marker
}

// MetricsConfig controls Prometheus export.
type MetricsConfig struct {
	Textfile   string `yaml:"textfile,omitempty"`    // node_exporter textfile path
	ListenAddr string `yaml:"listen_addr,omitempty"` // /metrics address for watch
}

// DefaultConfig returns the built-in settings used when no project file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: configVersion,
		Target:  defaultTarget,
		Scan: ScanConfig{
			Mode:  modeNaive,
			Tail:  braces.DefaultTail,
			Width: braces.DefaultWidth,
		},
	}
}

// LoadConfig loads configuration from configPath or finds it automatically.
//
// If configPath is empty, BRACECHECK_CONFIG_PATH is consulted, then
// .bracecheck/project.yaml in the current and parent directories.
// Environment overrides are applied after the file is read.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("BRACECHECK_CONFIG_PATH")
	}
	if configPath == "" {
		var err error
		configPath, err = findConfigFile()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path comes from user config or discovery
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read configuration file",
			fmt.Sprintf("Failed to read %s", configPath),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration format",
			"YAML parsing failed - the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors, or run 'bracecheck init --force' to recreate", configPath),
			err,
		)
	}

	if cfg.Version != configVersion {
		return nil, errors.NewConfigError(
			"Unsupported configuration version",
			fmt.Sprintf("Config version '%s' is not supported (expected '%s')", cfg.Version, configVersion),
			"Run 'bracecheck init --force' to regenerate the configuration file",
			nil,
		)
	}

	// Relative paths in the file are relative to the project root, the
	// parent of .bracecheck.
	if abs, err := filepath.Abs(configPath); err == nil {
		root := filepath.Dir(filepath.Dir(abs))
		cfg.Target = resolveProjectPath(root, cfg.Target)
		cfg.Metrics.Textfile = resolveProjectPath(root, cfg.Metrics.Textfile)
	}

	cfg.applyEnvOverrides()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveProjectPath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// loadConfigOrDefault is LoadConfig for commands that work without a
// configuration file. A missing file is only an error when a path was given
// explicitly.
func loadConfigOrDefault(configPath string) (*Config, error) {
	if configPath == "" && os.Getenv("BRACECHECK_CONFIG_PATH") == "" {
		if _, err := findConfigFile(); err != nil {
			cfg := DefaultConfig()
			cfg.applyEnvOverrides()
			if err := cfg.validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
	}
	return LoadConfig(configPath)
}

// SaveConfig writes cfg to configPath as YAML, creating the directory if needed.
func SaveConfig(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewInternalError(
			"Cannot encode configuration",
			"YAML marshaling failed unexpectedly",
			"This is a bug. Please report it with your configuration details",
			err,
		)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.NewPermissionError(
			"Cannot create configuration directory",
			fmt.Sprintf("Permission denied creating %s", dir),
			"Check directory permissions or run with appropriate privileges",
			err,
		)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.NewPermissionError(
			"Cannot write configuration file",
			fmt.Sprintf("Permission denied writing to %s", configPath),
			"Check file permissions and ensure sufficient disk space",
			err,
		)
	}
	return nil
}

// ConfigPath returns <dir>/.bracecheck/project.yaml.
func ConfigPath(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

// findConfigFile searches for .bracecheck/project.yaml in the current and
// parent directories.
func findConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.NewInternalError(
			"Cannot access working directory",
			"Failed to determine current directory path",
			"Check system permissions and try again",
			err,
		)
	}

	for {
		configPath := ConfigPath(dir)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.NewConfigError(
		"Configuration not found",
		"No .bracecheck/project.yaml file found in current directory or any parent directory",
		"Run 'bracecheck init' to create a new configuration",
		nil,
	)
}

// applyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - BRACECHECK_TARGET: file to scan
//   - BRACECHECK_MODE: scan mode (naive, tokens)
//   - BRACECHECK_METRICS_FILE: Prometheus textfile path
func (c *Config) applyEnvOverrides() {
	if target := os.Getenv("BRACECHECK_TARGET"); target != "" {
		c.Target = target
	}
	if mode := os.Getenv("BRACECHECK_MODE"); mode != "" {
		c.Scan.Mode = mode
	}
	if path := os.Getenv("BRACECHECK_METRICS_FILE"); path != "" {
		c.Metrics.Textfile = path
	}
}

func (c *Config) validate() error {
	if err := validateMode(c.Scan.Mode); err != nil {
		return err
	}
	if c.Scan.Tail < 0 || c.Scan.Width < 0 {
		return errors.NewConfigError(
			"Invalid scan settings",
			fmt.Sprintf("tail (%d) and width (%d) must not be negative", c.Scan.Tail, c.Scan.Width),
			"Fix the scan section of .bracecheck/project.yaml",
			nil,
		)
	}
	return nil
}

func validateMode(mode string) error {
	switch mode {
	case modeNaive, modeTokens:
		return nil
	}
	return errors.NewInputError(
		"Unknown scan mode",
		fmt.Sprintf("Mode '%s' is not supported", mode),
		fmt.Sprintf("Use '%s' or '%s'", modeNaive, modeTokens),
	)
}
