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
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchFile_RescansOnWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(target, []byte("{\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, discardLogger(), target, 20*time.Millisecond, func() {
			changed <- struct{}{}
		})
	}()

	// The watcher registers asynchronously; keep touching the file until the
	// first change is seen.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
wait:
	for {
		select {
		case <-changed:
			break wait
		case <-tick.C:
			require.NoError(t, os.WriteFile(target, []byte("{\n}\n"), 0o644))
		case <-deadline:
			t.Fatal("no rescan after writing the target")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchFile did not return after cancel")
	}
}

func TestWatchFile_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(target, []byte("{\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, discardLogger(), target, 10*time.Millisecond, func() {
			calls.Add(1)
		})
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "other.js"), []byte("}\n"), 0o644))
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatchFile_MissingDirectory(t *testing.T) {
	err := watchFile(context.Background(), discardLogger(),
		filepath.Join(t.TempDir(), "gone", "app.js"), time.Millisecond, func() {})
	assert.Error(t, err)
}
