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

// Package braces tracks curly brace nesting in JavaScript sources.
//
// The scan is intentionally line oriented and naive: a line whose trimmed form
// starts with "//" is skipped, and every other character is taken at face
// value. Braces inside strings, regex literals, template literals and block
// comments are counted like any other brace.
package braces

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LineComment is the prefix that marks a line as a comment.
const LineComment = "//"

// Marker records where a brace was opened.
type Marker struct {
	Line int    `json:"line"` // 1-indexed
	Text string `json:"text"` // trimmed source line
}

// Display returns the marker text truncated to width characters.
func (m Marker) Display(width int) string {
	return Truncate(m.Text, width)
}

// Result is the outcome of a single scan.
type Result struct {
	Path         string   `json:"path,omitempty"`
	Depth        int      `json:"depth"`
	Open         []Marker `json:"open,omitempty"`
	Lines        int      `json:"lines"`
	CommentLines int      `json:"comment_lines"`
	Opened       int      `json:"opened"`
	Closed       int      `json:"closed"`
}

// Balanced reports whether every opening brace was closed.
func (r Result) Balanced() bool {
	return r.Depth == 0
}

// Unclosed returns the last n markers still on the stack, oldest first.
// It returns nil unless the final depth is positive.
func (r Result) Unclosed(n int) []Marker {
	if r.Depth <= 0 || n <= 0 || len(r.Open) == 0 {
		return nil
	}
	if n > len(r.Open) {
		n = len(r.Open)
	}
	return r.Open[len(r.Open)-n:]
}

// Tracker holds the running depth and marker stack.
// Both scanners in this module feed it.
type Tracker struct {
	depth  int
	stack  []Marker
	opened int
	closed int
}

// Open records an opening brace on the given line.
func (t *Tracker) Open(line int, text string) {
	t.depth++
	t.opened++
	t.stack = append(t.stack, Marker{Line: line, Text: text})
}

// Close records a closing brace. The most recent marker is dropped without
// checking that it belongs to this brace.
func (t *Tracker) Close() {
	t.depth--
	t.closed++
	if len(t.stack) > 0 {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

// Result snapshots the tracker state.
func (t *Tracker) Result() Result {
	open := make([]Marker, len(t.stack))
	copy(open, t.stack)
	return Result{
		Depth:  t.depth,
		Open:   open,
		Opened: t.opened,
		Closed: t.closed,
	}
}

// Scanner performs the line based brace scan.
type Scanner struct {
	logger   *slog.Logger
	progress func(read, total int64)
}

// NewScanner creates a Scanner. A nil logger falls back to slog.Default().
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// SetProgressCallback registers fn to receive byte progress during ScanFile.
// total is the file size, or -1 when unknown.
func (s *Scanner) SetProgressCallback(fn func(read, total int64)) {
	s.progress = fn
}

// ScanFile opens path and scans it.
func (s *Scanner) ScanFile(path string) (Result, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is the scan target chosen by the user
	if err != nil {
		return Result{}, fmt.Errorf("open scan target: %w", err)
	}
	defer func() { _ = f.Close() }()

	total := int64(-1)
	if info, err := f.Stat(); err == nil {
		total = info.Size()
	}

	var r io.Reader = f
	if s.progress != nil {
		r = &countingReader{r: f, total: total, fn: s.progress}
	}

	res, err := s.Scan(r)
	if err != nil {
		return Result{}, fmt.Errorf("scan %s: %w", path, err)
	}
	res.Path = path

	s.logger.Debug("braces.scan.completed",
		"path", path,
		"lines", res.Lines,
		"depth", res.Depth,
		"open_markers", len(res.Open),
	)
	return res, nil
}

// Scan reads r line by line and tracks brace depth.
func (s *Scanner) Scan(r io.Reader) (Result, error) {
	var (
		t       Tracker
		lineNum int
		skipped int
	)

	br := bufio.NewReader(r)
	for {
		line, err := readLine(br)
		if line != "" {
			lineNum++
			if !scanLine(&t, lineNum, line) {
				skipped++
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read line %d: %w", lineNum+1, err)
		}
	}

	res := t.Result()
	res.Lines = lineNum
	res.CommentLines = skipped
	return res, nil
}

// Scan is a convenience wrapper around a default Scanner.
func Scan(r io.Reader) (Result, error) {
	return NewScanner(nil).Scan(r)
}

// ScanFile is a convenience wrapper around a default Scanner.
func ScanFile(path string) (Result, error) {
	return NewScanner(nil).ScanFile(path)
}

// scanLine feeds one raw line into t. It returns false for comment lines.
func scanLine(t *Tracker, lineNum int, line string) bool {
	trimmed := TrimLine(line)
	if strings.HasPrefix(trimmed, LineComment) {
		return false
	}
	for _, ch := range line {
		switch ch {
		case '{':
			t.Open(lineNum, trimmed)
		case '}':
			t.Close()
		}
	}
	return true
}

// Truncate shortens s to n characters and appends "..." when it was longer.
func Truncate(s string, n int) string {
	if n < 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

type countingReader struct {
	r     io.Reader
	read  int64
	total int64
	fn    func(read, total int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if n > 0 {
		c.fn(c.read, c.total)
	}
	return n, err
}
