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
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/bracecheck/internal/errors"
	"github.com/kraklabs/bracecheck/internal/ui"
)

const defaultWatchDebounce = 300 * time.Millisecond

// runWatch executes the 'watch' command: one scan at start, then one scan per
// burst of changes to the target file, until interrupted.
func runWatch(args []string, configPath string, globals GlobalFlags) int {
	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	opts := optionsFromConfig(cfg)
	metricsAddr := cfg.Metrics.ListenAddr
	debounce := defaultWatchDebounce

	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	addScanFlags(fs, &opts)
	fs.StringVar(&metricsAddr, "metrics-addr", metricsAddr, "Serve Prometheus /metrics on this address (e.g. :9464)")
	fs.DurationVar(&debounce, "debounce", debounce, "Quiet period after a change before re-scanning")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bracecheck watch [options] [path]

Description:
  Scan the file once, then re-scan it every time it is written, renamed or
  recreated. Bursts of filesystem events within the debounce window cause a
  single re-scan. Stop with Ctrl-C.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  bracecheck watch src/app.js
  bracecheck watch --metrics-addr :9464 --mode tokens

`)
	}
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return errors.ExitOK
		}
		errors.FatalError(errors.NewInputError("Invalid arguments", err.Error(), "Run 'bracecheck watch --help'"), globals.JSON)
	}
	opts, err = resolveScanArgs(fs, opts)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}

	logger := newLogger(globals)
	metrics := newScanMetrics(opts.Target, opts.Mode)
	progress := NewProgressConfig(globals)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rescan := func() {
		res, err := executeScan(ctx, logger, opts, progress, metrics)
		if err != nil {
			errors.Write(os.Stderr, err, globals.JSON)
			if !globals.JSON && !globals.Quiet {
				ui.Warningf("Scan failed; still watching %s", opts.Target)
			}
			return
		}
		if !globals.JSON {
			fmt.Printf("%s\n", ui.DimText(fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), opts.Target)))
		}
		if err := writeScanResult(os.Stdout, res, opts, globals.JSON); err != nil {
			logger.Error("watch.write_failed", "error", err)
		}
	}

	if !globals.Quiet {
		ui.Infof("Watching %s (Ctrl-C to stop)", opts.Target)
	}
	rescan()

	g, gctx := errgroup.WithContext(ctx)
	if metricsAddr != "" {
		g.Go(func() error {
			logger.Info("watch.metrics.listening", "addr", metricsAddr)
			return serveMetrics(gctx, metricsAddr, metrics)
		})
	}
	g.Go(func() error {
		return watchFile(gctx, logger, opts.Target, debounce, rescan)
	})

	if err := g.Wait(); err != nil {
		errors.FatalError(errors.NewInternalError(
			"Watch stopped",
			"The file watcher or metrics server failed",
			"Check that the metrics address is free and the target directory still exists",
			err,
		), globals.JSON)
	}
	return errors.ExitOK
}

// watchFile calls onChange after each debounced burst of events touching
// path. The parent directory is watched so that editors replacing the file
// by rename are noticed. It returns nil when ctx is cancelled.
func watchFile(ctx context.Context, logger *slog.Logger, path string, debounce time.Duration, onChange func()) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	logger.Info("watch.started", "path", target, "debounce", debounce)

	var debounceTimer *time.Timer
	var timerCh <-chan time.Time // nil until an event arrives
	eventCount := 0

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op == fsnotify.Chmod {
				continue
			}
			eventCount++
			logger.Debug("watch.event", "n", eventCount, "name", event.Name, "op", event.Op.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(debounce)
			timerCh = debounceTimer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch.fsnotify_error", "error", err)
		case <-timerCh:
			timerCh = nil
			logger.Info("watch.rescan", "events", eventCount)
			eventCount = 0
			onChange()
		}
	}
}
