// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package license

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 👀 Watch verifies the license at path once, then again every time the file
// is written, created, renamed or removed, until ctx is done.
//
// The directory is watched rather than the file so that editors replacing the
// file through a rename keep triggering events.
func Watch(ctx context.Context, path string, v *Verifier, fn func(*License, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Errorf("resolving license path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	logger := zerolog.Ctx(ctx).With().Str("license", abs).Logger()
	logger.Debug().Msg("watching license")

	fn(v.Verify(ctx, abs))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			logger.Debug().Str("op", event.Op.String()).Msg("license changed")
			fn(v.Verify(ctx, abs))

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(werr).Msg("license watcher error")
		}
	}
}
