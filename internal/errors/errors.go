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

// Package errors provides user-facing CLI errors.
//
// A UserError carries a short title, a detail line and a suggestion, so every
// fatal exit tells the user what failed and what to try next.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitError      = 1
	ExitUnbalanced = 2
)

// Kind classifies a UserError.
type Kind string

// Error kinds.
const (
	KindConfig     Kind = "config"
	KindInput      Kind = "input"
	KindFile       Kind = "file"
	KindPermission Kind = "permission"
	KindInternal   Kind = "internal"
)

// UserError is an error meant to be shown to the user.
type UserError struct {
	Kind       Kind
	Title      string
	Detail     string
	Suggestion string
	Cause      error
	ExitCode   int
}

func (e *UserError) Error() string {
	msg := e.Title
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, title, detail, suggestion string, cause error) *UserError {
	return &UserError{
		Kind:       kind,
		Title:      title,
		Detail:     detail,
		Suggestion: suggestion,
		Cause:      cause,
		ExitCode:   ExitError,
	}
}

// NewConfigError reports a problem with the configuration file.
func NewConfigError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindConfig, title, detail, suggestion, cause)
}

// NewInputError reports invalid flags or arguments.
func NewInputError(title, detail, suggestion string) *UserError {
	return newError(KindInput, title, detail, suggestion, nil)
}

// NewFileError reports a scan target that cannot be opened or read.
func NewFileError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindFile, title, detail, suggestion, cause)
}

// NewPermissionError reports a failed write or directory creation.
func NewPermissionError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindPermission, title, detail, suggestion, cause)
}

// NewInternalError reports a failure that is not the user's fault.
func NewInternalError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindInternal, title, detail, suggestion, cause)
}

type jsonError struct {
	Error      string `json:"error"`
	Kind       Kind   `json:"kind,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Cause      string `json:"cause,omitempty"`
}

// Write renders err to w, as a JSON object when jsonMode is set.
// It returns the exit code the process should use.
func Write(w io.Writer, err error, jsonMode bool) int {
	var ue *UserError
	if !stderrors.As(err, &ue) {
		ue = NewInternalError("Unexpected error", "", "", err)
	}

	if jsonMode {
		out := jsonError{
			Error:      ue.Title,
			Kind:       ue.Kind,
			Detail:     ue.Detail,
			Suggestion: ue.Suggestion,
		}
		if ue.Cause != nil {
			out.Cause = ue.Cause.Error()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return ue.ExitCode
	}

	fmt.Fprintf(w, "Error: %s\n", ue.Title)
	if ue.Detail != "" {
		fmt.Fprintf(w, "  %s\n", ue.Detail)
	}
	if ue.Cause != nil {
		fmt.Fprintf(w, "  Cause: %v\n", ue.Cause)
	}
	if ue.Suggestion != "" {
		fmt.Fprintf(w, "\nHint: %s\n", ue.Suggestion)
	}
	return ue.ExitCode
}

// FatalError prints err to stderr and exits the process.
func FatalError(err error, jsonMode bool) {
	os.Exit(Write(os.Stderr, err, jsonMode))
}
