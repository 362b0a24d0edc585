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
	"bufio"
	"strings"
	"unicode"
)

// readLine returns the next line from br including its terminator. A line
// ends at "\n", "\r\n" or a lone "\r". At end of input it returns the
// remaining text, possibly empty, together with the read error.
func readLine(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			return sb.String(), err
		}
		sb.WriteByte(b)
		switch b {
		case '\n':
			return sb.String(), nil
		case '\r':
			if next, err := br.Peek(1); err == nil && next[0] == '\n' {
				_, _ = br.ReadByte()
				sb.WriteByte('\n')
			}
			return sb.String(), nil
		}
	}
}

// SplitLines splits s into lines with the same terminator rules as Scan.
// Each line keeps its terminator; a trailing terminator does not start an
// extra empty line.
func SplitLines(s string) []string {
	var lines []string
	br := bufio.NewReader(strings.NewReader(s))
	for {
		line, err := readLine(br)
		if line != "" {
			lines = append(lines, line)
		}
		if err != nil {
			return lines
		}
	}
}

// TrimLine strips leading and trailing whitespace. The ASCII information
// separators U+001C..U+001F count as whitespace too.
func TrimLine(s string) string {
	return strings.TrimFunc(s, isLineSpace)
}

func isLineSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
