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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/bracecheck/internal/errors"
)

// chdirTest changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir for older toolchains).
func chdirTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

// clearConfigEnv isolates a test from the caller's environment and working
// directory.
func clearConfigEnv(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"BRACECHECK_CONFIG_PATH", "BRACECHECK_TARGET", "BRACECHECK_MODE", "BRACECHECK_METRICS_FILE"} {
		t.Setenv(key, "")
	}
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	chdirTest(t, dir)
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, configVersion, cfg.Version)
	assert.Equal(t, "public/js/app.js", cfg.Target)
	assert.Equal(t, modeNaive, cfg.Scan.Mode)
	assert.Equal(t, 5, cfg.Scan.Tail)
	assert.Equal(t, 50, cfg.Scan.Width)
}

func TestLoadConfigOrDefault_NoFile(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := loadConfigOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOrDefault_EnvOverride(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("BRACECHECK_TARGET", "src/main.js")
	t.Setenv("BRACECHECK_MODE", modeTokens)

	cfg, err := loadConfigOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "src/main.js", cfg.Target)
	assert.Equal(t, modeTokens, cfg.Scan.Mode)
}

func TestLoadConfigOrDefault_BadEnvMode(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("BRACECHECK_MODE", "regex")

	_, err := loadConfigOrDefault("")
	var ue *errors.UserError
	require.True(t, stderrors.As(err, &ue))
	assert.Equal(t, errors.KindInput, ue.Kind)
}

func TestLoadConfig_ExplicitMissing(t *testing.T) {
	dir := clearConfigEnv(t)

	_, err := loadConfigOrDefault(filepath.Join(dir, "nope.yaml"))
	var ue *errors.UserError
	require.True(t, stderrors.As(err, &ue))
	assert.Equal(t, errors.KindConfig, ue.Kind)
}

func TestSaveAndLoadConfig(t *testing.T) {
	repo := clearConfigEnv(t)

	cfg := DefaultConfig()
	cfg.Target = "web/app.js"
	cfg.Scan.Tail = 3
	cfg.Metrics.Textfile = "/var/lib/node_exporter/bracecheck.prom"
	require.NoError(t, SaveConfig(cfg, ConfigPath(repo)))

	// Discovered from a subdirectory.
	sub := filepath.Join(repo, "web", "lib")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	chdirTest(t, sub)

	loaded, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(repo, "web", "app.js"), loaded.Target)
	assert.Equal(t, 3, loaded.Scan.Tail)
	assert.Equal(t, 50, loaded.Scan.Width)
	assert.Equal(t, "/var/lib/node_exporter/bracecheck.prom", loaded.Metrics.Textfile)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	repo := clearConfigEnv(t)
	path := ConfigPath(repo)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\nscan:\n  mode: tokens\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, modeTokens, cfg.Scan.Mode)
	assert.Equal(t, 5, cfg.Scan.Tail)
	assert.Equal(t, filepath.Join(repo, defaultTarget), cfg.Target)
}

func TestLoadConfig_RelativeMetricsTextfile(t *testing.T) {
	repo := clearConfigEnv(t)
	path := ConfigPath(repo)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := "version: \"1\"\ntarget: /abs/app.js\nmetrics:\n  textfile: out/bracecheck.prom\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sub := filepath.Join(repo, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	chdirTest(t, sub)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/abs/app.js", cfg.Target)
	assert.Equal(t, filepath.Join(repo, "out", "bracecheck.prom"), cfg.Metrics.Textfile)
}

func TestLoadConfig_EnvTextfileNotRebased(t *testing.T) {
	repo := clearConfigEnv(t)
	path := ConfigPath(repo)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\n"), 0o644))
	t.Setenv("BRACECHECK_METRICS_FILE", "local.prom")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "local.prom", cfg.Metrics.Textfile)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "version: [\n"},
		{"wrong version", "version: \"2\"\n"},
		{"negative tail", "version: \"1\"\nscan:\n  tail: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := clearConfigEnv(t)
			path := filepath.Join(dir, "project.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadConfig(path)
			var ue *errors.UserError
			require.True(t, stderrors.As(err, &ue), "want UserError, got %v", err)
			assert.Equal(t, errors.KindConfig, ue.Kind)
		})
	}
}

func TestWriteInitConfig(t *testing.T) {
	dir := clearConfigEnv(t)

	path, err := writeInitConfig(dir, initFlags{target: "src/app.js", mode: modeTokens})
	require.NoError(t, err)
	assert.Equal(t, ConfigPath(dir), path)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src", "app.js"), cfg.Target)
	assert.Equal(t, modeTokens, cfg.Scan.Mode)

	_, err = writeInitConfig(dir, initFlags{target: "x.js", mode: modeNaive})
	require.Error(t, err)

	_, err = writeInitConfig(dir, initFlags{force: true, target: "x.js", mode: modeNaive})
	require.NoError(t, err)
}

func TestParseInitFlags(t *testing.T) {
	f, err := parseInitFlags([]string{"--target", "a.js"})
	require.NoError(t, err)
	assert.Equal(t, "a.js", f.target)
	assert.Equal(t, modeNaive, f.mode)

	_, err = parseInitFlags([]string{"--mode", "fancy"})
	require.Error(t, err)

	_, err = parseInitFlags([]string{"extra"})
	require.Error(t, err)
}
