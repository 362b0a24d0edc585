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
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/bracecheck/internal/ui"
)

// progressMinBytes is the smallest file that gets a progress bar.
const progressMinBytes = 4 << 20

// ProgressConfig controls progress bar rendering.
type ProgressConfig struct {
	Enabled  bool
	Writer   io.Writer
	MinBytes int64
}

// NewProgressConfig enables progress bars on an interactive stderr unless
// quiet or JSON output is requested.
func NewProgressConfig(globals GlobalFlags) ProgressConfig {
	return ProgressConfig{
		Enabled:  !globals.Quiet && !globals.JSON && ui.IsTerminal(os.Stderr),
		Writer:   os.Stderr,
		MinBytes: progressMinBytes,
	}
}

// NewProgressBar creates a byte progress bar, or returns nil when disabled.
func NewProgressBar(cfg ProgressConfig, total int64, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// newFileProgress returns a bar for path when it is large enough to need one.
func newFileProgress(cfg ProgressConfig, path string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() < cfg.MinBytes {
		return nil
	}
	return NewProgressBar(cfg, info.Size(), "Scanning "+filepath.Base(path))
}
