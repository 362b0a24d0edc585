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
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/bracecheck/internal/errors"
	"github.com/kraklabs/bracecheck/internal/output"
	"github.com/kraklabs/bracecheck/internal/ui"
	"github.com/kraklabs/bracecheck/pkg/braces"
	"github.com/kraklabs/bracecheck/pkg/jstokens"
)

// scanOptions is the resolved configuration of one scan or watch run.
type scanOptions struct {
	Target         string
	Mode           string
	Tail           int
	Width          int
	MetricsFile    string
	FailUnbalanced bool
}

// ScanOutput represents a scan result for JSON output.
type ScanOutput struct {
	Path         string         `json:"path"`
	Mode         string         `json:"mode"`
	Depth        int            `json:"depth"`
	Balanced     bool           `json:"balanced"`
	Lines        int            `json:"lines"`
	CommentLines int            `json:"comment_lines"`
	Opened       int            `json:"opened"`
	Closed       int            `json:"closed"`
	Unclosed     []MarkerOutput `json:"unclosed,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// MarkerOutput is an unclosed block with its display text.
type MarkerOutput struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// addScanFlags registers the flags shared by scan and watch.
func addScanFlags(fs *flag.FlagSet, opts *scanOptions) {
	fs.StringVar(&opts.Mode, "mode", opts.Mode, "Scan mode: naive (skip // lines) or tokens (Tree-sitter tokens)")
	fs.IntVar(&opts.Tail, "tail", opts.Tail, "Number of unclosed blocks to list")
	fs.IntVar(&opts.Width, "width", opts.Width, "Characters of line text shown per unclosed block")
	fs.StringVar(&opts.MetricsFile, "metrics-file", opts.MetricsFile, "Write Prometheus metrics to this textfile after each scan")
	fs.BoolVar(&opts.FailUnbalanced, "fail-unbalanced", false, "Exit with status 2 when the final depth is not zero")
}

// resolveScanArgs applies the parsed flag set on top of cfg.
func resolveScanArgs(fs *flag.FlagSet, opts scanOptions) (scanOptions, error) {
	switch fs.NArg() {
	case 0:
	case 1:
		opts.Target = fs.Arg(0)
	default:
		return opts, errors.NewInputError(
			"Too many arguments",
			fmt.Sprintf("Expected a single file path, got %d", fs.NArg()),
			"Scan one file at a time: bracecheck scan <path>",
		)
	}

	if err := validateMode(opts.Mode); err != nil {
		return opts, err
	}
	if opts.Tail < 0 || opts.Width < 0 {
		return opts, errors.NewInputError(
			"Invalid report settings",
			"--tail and --width must not be negative",
			"Use --tail 5 --width 50 for the defaults",
		)
	}
	if opts.Target == "" {
		opts.Target = defaultTarget
	}
	return opts, nil
}

func optionsFromConfig(cfg *Config) scanOptions {
	return scanOptions{
		Target:      cfg.Target,
		Mode:        cfg.Scan.Mode,
		Tail:        cfg.Scan.Tail,
		Width:       cfg.Scan.Width,
		MetricsFile: cfg.Metrics.Textfile,
	}
}

// parseScanArgs parses the scan command line on top of cfg.
func parseScanArgs(args []string, cfg *Config) (scanOptions, error) {
	opts := optionsFromConfig(cfg)
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	addScanFlags(fs, &opts)
	fs.Usage = scanUsage(fs)
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return opts, err
		}
		return opts, errors.NewInputError("Invalid arguments", err.Error(), "Run 'bracecheck scan --help'")
	}
	return resolveScanArgs(fs, opts)
}

func scanUsage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, `Usage: bracecheck scan [options] [path]

Description:
  Scan a JavaScript file and report the final curly brace depth.

  In the default naive mode every { and } counts except on lines whose
  trimmed text starts with //. Braces inside strings, regex literals,
  template literals and block comments are counted too. Use --mode tokens
  to count only braces that are real punctuation.

  When the final depth is positive, the last blocks still open are listed
  with their line numbers.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  bracecheck scan                       Scan public/js/app.js
  bracecheck scan src/app.js            Scan another file
  bracecheck scan --tail 10 app.js      List up to 10 unclosed blocks
  bracecheck scan --fail-unbalanced     Fail CI when braces do not balance

`)
	}
}

// runScan executes the 'scan' command and returns the process exit code.
func runScan(args []string, configPath string, globals GlobalFlags) int {
	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	opts, err := parseScanArgs(args, cfg)
	if stderrors.Is(err, flag.ErrHelp) {
		return errors.ExitOK
	}
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger := newLogger(globals)
	metrics := newScanMetrics(opts.Target, opts.Mode)

	res, err := executeScan(context.Background(), logger, opts, NewProgressConfig(globals), metrics)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if err := writeScanResult(os.Stdout, res, opts, globals.JSON); err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot write scan report",
			"Writing to stdout failed",
			"Check that the output pipe is still open",
			err,
		), globals.JSON)
	}

	if opts.FailUnbalanced && !res.Balanced() {
		return errors.ExitUnbalanced
	}
	return errors.ExitOK
}

// executeScan runs one scan of opts.Target, records it in metrics and
// writes the metrics textfile when configured.
func executeScan(ctx context.Context, logger *slog.Logger, opts scanOptions, progress ProgressConfig, metrics *scanMetrics) (braces.Result, error) {
	start := time.Now()
	res, err := scanTarget(ctx, logger, opts, progress)
	elapsed := time.Since(start)

	if metrics != nil {
		if err != nil {
			metrics.observeError()
		} else {
			metrics.observe(res, elapsed)
		}
		if opts.MetricsFile != "" {
			if werr := metrics.writeTextfile(opts.MetricsFile); werr != nil {
				logger.Warn("scan.metrics.write_failed", "path", opts.MetricsFile, "error", werr)
			}
		}
	}

	if err != nil {
		return braces.Result{}, scanError(opts.Target, err)
	}

	logger.Info("scan.completed",
		"path", opts.Target,
		"mode", opts.Mode,
		"depth", res.Depth,
		"lines", res.Lines,
		"duration", elapsed,
	)
	return res, nil
}

func scanTarget(ctx context.Context, logger *slog.Logger, opts scanOptions, progress ProgressConfig) (braces.Result, error) {
	if opts.Mode == modeTokens {
		return jstokens.NewScanner(logger).ScanFile(ctx, opts.Target)
	}

	scanner := braces.NewScanner(logger)
	bar := newFileProgress(progress, opts.Target)
	if bar != nil {
		scanner.SetProgressCallback(func(read, _ int64) {
			_ = bar.Set64(read)
		})
		defer func() { _ = bar.Finish() }()
	}
	return scanner.ScanFile(opts.Target)
}

// scanError maps a scan failure to a user-facing error.
func scanError(path string, err error) error {
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return errors.NewFileError(
			"Scan target not found",
			fmt.Sprintf("%s does not exist", path),
			"Pass the path of a JavaScript file: bracecheck scan <path>",
			err,
		)
	case stderrors.Is(err, fs.ErrPermission):
		return errors.NewFileError(
			"Cannot open scan target",
			fmt.Sprintf("Permission denied reading %s", path),
			"Check file permissions",
			err,
		)
	default:
		return errors.NewFileError(
			"Cannot read scan target",
			fmt.Sprintf("Reading %s failed", path),
			"Make sure the path is a readable text file, not a directory",
			err,
		)
	}
}

// writeScanResult prints res as the plain text report or as JSON.
func writeScanResult(w io.Writer, res braces.Result, opts scanOptions, jsonMode bool) error {
	if jsonMode {
		return output.WriteJSON(w, buildScanOutput(res, opts))
	}
	return braces.WriteReport(w, res, braces.ReportOptions{
		Tail:  opts.Tail,
		Width: opts.Width,
		Label: ui.Label,
	})
}

func buildScanOutput(res braces.Result, opts scanOptions) ScanOutput {
	out := ScanOutput{
		Path:         opts.Target,
		Mode:         opts.Mode,
		Depth:        res.Depth,
		Balanced:     res.Balanced(),
		Lines:        res.Lines,
		CommentLines: res.CommentLines,
		Opened:       res.Opened,
		Closed:       res.Closed,
		Timestamp:    time.Now(),
	}
	for _, m := range res.Unclosed(opts.Tail) {
		out.Unclosed = append(out.Unclosed, MarkerOutput{Line: m.Line, Text: m.Display(opts.Width)})
	}
	return out
}
