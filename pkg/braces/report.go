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

package braces

import (
	"fmt"
	"io"
)

const (
	// DefaultTail is how many unclosed markers the report lists.
	DefaultTail = 5
	// DefaultWidth is the display width of a marker's line text.
	DefaultWidth = 50
)

// ReportOptions controls WriteReport.
type ReportOptions struct {
	Tail  int
	Width int

	// Label, when set, decorates the fixed labels ("Final Level:" and the
	// unclosed header). It must not change the text it is given beyond adding
	// terminal escapes.
	Label func(string) string
}

// DefaultReportOptions lists the last 5 unclosed blocks at 50 characters each.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{Tail: DefaultTail, Width: DefaultWidth}
}

// WriteReport writes the plain text summary of res:
//
//	Final Level: <depth>
//	Unclosed blocks (last <tail>):
//	Line <n>: <text>
//
// The unclosed section is only written when the depth and opts.Tail are
// positive.
func WriteReport(w io.Writer, res Result, opts ReportOptions) error {
	label := opts.Label
	if label == nil {
		label = func(s string) string { return s }
	}

	if _, err := fmt.Fprintf(w, "%s %d\n", label("Final Level:"), res.Depth); err != nil {
		return err
	}
	if res.Depth <= 0 || opts.Tail <= 0 {
		return nil
	}

	if _, err := fmt.Fprintf(w, "%s\n", label(fmt.Sprintf("Unclosed blocks (last %d):", opts.Tail))); err != nil {
		return err
	}
	for _, m := range res.Unclosed(opts.Tail) {
		if _, err := fmt.Fprintf(w, "Line %d: %s\n", m.Line, m.Display(opts.Width)); err != nil {
			return err
		}
	}
	return nil
}
