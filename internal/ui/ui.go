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

// Package ui holds the terminal color helpers shared by CLI commands.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Shared color printers.
var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Cyan   = color.New(color.FgCyan)
	Dim    = color.New(color.Faint)
	Bold   = color.New(color.Bold)
)

// InitColors disables color output when noColor is set or stdout is not a terminal.
func InitColors(noColor bool) {
	color.NoColor = noColor || !IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Header prints a bold section title followed by a blank line.
func Header(title string) {
	_, _ = Bold.Println(title)
	fmt.Println()
}

// SubHeader prints a cyan sub-section title.
func SubHeader(title string) {
	_, _ = Cyan.Println(title)
}

// Label formats a field label.
func Label(s string) string {
	return Bold.Sprint(s)
}

// CountText formats a number for display.
func CountText(n int) string {
	return Cyan.Sprint(n)
}

// DimText formats secondary information.
func DimText(s string) string {
	return Dim.Sprint(s)
}

// Infof prints an informational line to stderr.
func Infof(format string, args ...any) {
	_, _ = Cyan.Fprintf(os.Stderr, format+"\n", args...)
}

// Successf prints a success line to stderr.
func Successf(format string, args ...any) {
	_, _ = Green.Fprintf(os.Stderr, "✓ "+format+"\n", args...)
}

// Warningf prints a warning line to stderr.
func Warningf(format string, args ...any) {
	_, _ = Yellow.Fprintf(os.Stderr, "! "+format+"\n", args...)
}
