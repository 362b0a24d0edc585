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

// Package jstokens counts curly braces over Tree-sitter JavaScript tokens.
//
// Unlike package braces, it only sees braces that are real punctuation:
// braces inside strings, comments, regex literals and template text are part
// of larger leaf nodes and never reach the tracker. It still reports only
// brace balance; syntax errors in the tree are tolerated, and the zero-width
// MISSING nodes Tree-sitter inserts during error recovery are skipped.
package jstokens

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/kraklabs/bracecheck/pkg/braces"
)

// Token types that open or close a block.
const (
	tokenOpen         = "{"
	tokenTemplateOpen = "${"
	tokenClose        = "}"
)

// Scanner scans JavaScript sources with a pooled Tree-sitter parser.
type Scanner struct {
	logger *slog.Logger
	pool   sync.Pool
}

// NewScanner creates a token scanner. A nil logger falls back to slog.Default().
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scanner{logger: logger}
	s.pool.New = func() any {
		parser := sitter.NewParser()
		parser.SetLanguage(javascript.GetLanguage())
		return parser
	}
	return s
}

// ScanFile reads path and scans its contents.
func (s *Scanner) ScanFile(ctx context.Context, path string) (braces.Result, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is the scan target chosen by the user
	if err != nil {
		return braces.Result{}, fmt.Errorf("read scan target: %w", err)
	}
	res, err := s.Scan(ctx, content)
	if err != nil {
		return braces.Result{}, fmt.Errorf("scan %s: %w", path, err)
	}
	res.Path = path
	return res, nil
}

// Scan parses content and walks its leaf tokens in document order.
func (s *Scanner) Scan(ctx context.Context, content []byte) (braces.Result, error) {
	parser, ok := s.pool.Get().(*sitter.Parser)
	if !ok {
		return braces.Result{}, fmt.Errorf("tree-sitter parser pool returned unexpected type")
	}
	defer s.pool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return braces.Result{}, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		s.logger.Debug("jstokens.syntax_errors", "error_count", countErrors(root))
	}

	lines := newLineIndex(content)
	var t braces.Tracker
	walkTokens(root, func(n *sitter.Node) {
		switch n.Type() {
		case tokenOpen, tokenTemplateOpen:
			row := lines.row(int(n.StartByte()))
			t.Open(row+1, lines.text(row))
		case tokenClose:
			t.Close()
		}
	})

	res := t.Result()
	res.Lines = len(lines.lines)
	return res, nil
}

// walkTokens calls fn for every non-missing leaf under node, left to right.
func walkTokens(node *sitter.Node, fn func(*sitter.Node)) {
	if node == nil {
		return
	}
	count := int(node.ChildCount())
	if count == 0 {
		if !node.IsMissing() {
			fn(node)
		}
		return
	}
	for i := 0; i < count; i++ {
		walkTokens(node.Child(i), fn)
	}
}

func countErrors(node *sitter.Node) int {
	count := 0
	if node.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrors(node.Child(i))
	}
	return count
}

// lineIndex maps byte offsets to lines. Tree-sitter rows only advance on
// "\n", so lines are split here with the rules of braces.Scan instead.
type lineIndex struct {
	lines  []string
	starts []int
}

func newLineIndex(content []byte) lineIndex {
	idx := lineIndex{lines: braces.SplitLines(string(content))}
	offset := 0
	for _, line := range idx.lines {
		idx.starts = append(idx.starts, offset)
		offset += len(line)
	}
	return idx
}

// row returns the 0-based line containing offset.
func (idx lineIndex) row(offset int) int {
	i := sort.Search(len(idx.starts), func(i int) bool { return idx.starts[i] > offset })
	return i - 1
}

func (idx lineIndex) text(row int) string {
	if row < 0 || row >= len(idx.lines) {
		return ""
	}
	return braces.TrimLine(idx.lines[row])
}
