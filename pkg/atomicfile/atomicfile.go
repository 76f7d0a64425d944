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

// Package atomicfile replaces files so that readers of the final path only ever
// see the previous content or the complete new content.
package atomicfile

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ TempPrefix marks temporary files created next to their final path
const TempPrefix = ".safepdf_tmp_"

const dirPerm os.FileMode = 0o755

// 📝 WriteFile streams content produced by fn into finalPath.
//
// fn receives a handle on a temporary file created in the same directory as
// finalPath. After fn returns the data is synced to disk and the temporary file
// is renamed over finalPath. If fn fails (or panics) the temporary file is
// removed and finalPath is left untouched.
func WriteFile(ctx context.Context, finalPath string, fn func(w io.Writer) error) (err error) {
	tmp, err := createTemp(ctx, finalPath)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			zerolog.Ctx(ctx).Error().Err(rmErr).Str("tmp", tmpName).Msg("removing temporary file")
		}
	}()

	if err := fn(tmp); err != nil {
		return errors.Errorf("writing %s: %w", filepath.Base(finalPath), err)
	}

	if err := tmp.Sync(); err != nil {
		return errors.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, finalPath); err != nil {
		return errors.Errorf("renaming temp file: %w", err)
	}
	committed = true

	zerolog.Ctx(ctx).Debug().Str("path", finalPath).Msg("file written atomically")
	return nil
}

// 📝 WriteViaPath is the path based variant of WriteFile for writers that insist
// on saving to a filename themselves.
//
// fn receives the name of an empty temporary file in the destination directory
// and must leave the complete content there.
func WriteViaPath(ctx context.Context, finalPath string, fn func(tmpPath string) error) (err error) {
	tmp, err := createTemp(ctx, finalPath)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Errorf("closing temp file: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			zerolog.Ctx(ctx).Error().Err(rmErr).Str("tmp", tmpName).Msg("removing temporary file")
		}
	}()

	if err := fn(tmpName); err != nil {
		return errors.Errorf("writing %s: %w", filepath.Base(finalPath), err)
	}

	if err := syncPath(tmpName); err != nil {
		return err
	}

	if err := os.Rename(tmpName, finalPath); err != nil {
		return errors.Errorf("renaming temp file: %w", err)
	}
	committed = true

	zerolog.Ctx(ctx).Debug().Str("path", finalPath).Msg("file written atomically via path")
	return nil
}

// 📝 WriteBytes atomically replaces finalPath with data
func WriteBytes(ctx context.Context, finalPath string, data []byte) error {
	return WriteFile(ctx, finalPath, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// 📁 EnsureParentDir creates the parent directory of path.
//
// Failures are logged and swallowed: creating the temporary file right after
// reports a clearer error than MkdirAll does.
func EnsureParentDir(ctx context.Context, path string) {
	parent := filepath.Dir(path)
	if parent == "" || parent == "." {
		return
	}
	if err := os.MkdirAll(parent, dirPerm); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("dir", parent).Msg("creating parent directory")
	}
}

func createTemp(ctx context.Context, finalPath string) (*os.File, error) {
	if finalPath == "" {
		return nil, errors.New("empty output path")
	}

	EnsureParentDir(ctx, finalPath)

	dir := filepath.Dir(finalPath)
	ext := filepath.Ext(finalPath)
	if ext == "" {
		ext = ".tmp"
	}

	tmp, err := os.CreateTemp(dir, TempPrefix+"*"+ext)
	if err != nil {
		return nil, errors.Errorf("creating temp file: %w", err)
	}
	return tmp, nil
}

func syncPath(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return errors.Errorf("reopening temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return errors.Errorf("closing temp file: %w", err)
	}
	return nil
}
