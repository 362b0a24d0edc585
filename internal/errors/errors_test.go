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

package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError_Error(t *testing.T) {
	err := NewFileError("Cannot open file", "public/js/app.js", "Check the path", fs.ErrNotExist)

	assert.Equal(t, "Cannot open file: public/js/app.js: file does not exist", err.Error())
	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
	assert.Equal(t, KindFile, err.Kind)
	assert.Equal(t, ExitError, err.ExitCode)
}

func TestWrite_Human(t *testing.T) {
	var buf bytes.Buffer
	code := Write(&buf, NewInputError("Too many arguments", "scan accepts one path", "Pass a single file"), false)

	assert.Equal(t, ExitError, code)
	assert.Equal(t, "Error: Too many arguments\n  scan accepts one path\n\nHint: Pass a single file\n", buf.String())
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := NewConfigError("Invalid configuration format", "bad yaml", "Fix it", fmt.Errorf("line 3"))
	Write(&buf, err, true)

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Invalid configuration format", got["error"])
	assert.Equal(t, "config", got["kind"])
	assert.Equal(t, "line 3", got["cause"])
}

func TestWrite_WrappedAndPlainErrors(t *testing.T) {
	var buf bytes.Buffer
	wrapped := fmt.Errorf("scan: %w", NewInputError("Bad mode", "", ""))
	assert.Equal(t, ExitError, Write(&buf, wrapped, false))
	assert.Contains(t, buf.String(), "Error: Bad mode")

	buf.Reset()
	Write(&buf, stderrors.New("boom"), false)
	assert.Contains(t, buf.String(), "Error: Unexpected error")
	assert.Contains(t, buf.String(), "Cause: boom")
}
