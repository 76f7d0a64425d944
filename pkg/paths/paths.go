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

// Package paths computes where an operation writes its output.
package paths

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/operation"
)

// ErrNoInput is returned when no input document is selected.
var ErrNoInput = errors.Base("no input file selected")

// 📁 Resolver maps (operation, input, choice) to an output target
type Resolver struct {
	// MkdirAll creates default output directories. Defaults to os.MkdirAll.
	MkdirAll func(path string, perm os.FileMode) error
}

// NewResolver returns a resolver backed by the real filesystem.
func NewResolver() *Resolver {
	return &Resolver{MkdirAll: os.MkdirAll}
}

// Resolve returns the output target for op on input.
//
// A custom path is used when useDefault is false: split and to_jpg take it as a
// directory, everything else as the output file. Otherwise the default name is
// derived from input, and the default directory of a multi file operation is
// created right away.
func (r *Resolver) Resolve(ctx context.Context, op operation.Name, input, custom string, useDefault bool) (operation.Target, error) {
	if input == "" {
		return operation.Target{}, errors.WithStack(ErrNoInput)
	}
	if !op.Valid() {
		return operation.Target{}, errors.Errorf("unknown operation %q", op)
	}

	if !useDefault && custom != "" {
		if op.MultiFile() {
			return operation.Target{Dir: custom}, nil
		}
		return operation.Target{File: custom}, nil
	}

	if !op.MultiFile() {
		return operation.Target{File: DefaultFile(op, input)}, nil
	}

	dir := DefaultDir(op, input)
	mkdir := r.MkdirAll
	if mkdir == nil {
		mkdir = os.MkdirAll
	}
	if err := mkdir(dir, 0o755); err != nil {
		return operation.Target{}, errors.Errorf("creating output directory %s: %w", dir, err)
	}
	zerolog.Ctx(ctx).Debug().Str("dir", dir).Str("operation", string(op)).Msg("output directory ready")
	return operation.Target{Dir: dir}, nil
}

// DefaultFile is the default output file of a single file operation.
func DefaultFile(op operation.Name, input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	switch op {
	case operation.ToWord:
		return base + ".docx"
	case operation.ToTXT:
		return base + ".txt"
	case operation.ExtractInfo:
		return base + "_info.txt"
	case operation.Merge:
		return base + "_merged.pdf"
	default:
		return base + "_" + string(op) + ".pdf"
	}
}

// DefaultDir is the default output directory of a multi file operation.
func DefaultDir(op operation.Name, input string) string {
	name := filepath.Base(input)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(filepath.Dir(input), name+"_"+string(op))
}

// 🔍 Expand resolves a doublestar pattern ("scans/**/*.pdf") to the matching
// files whose extension is in exts (case insensitive), sorted.
func Expand(ctx context.Context, pattern string, exts []string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("expanding %q: %w", pattern, err)
	}

	out := matches[:0]
	for _, m := range matches {
		if HasExtension(m, exts) {
			out = append(out, m)
		}
	}
	sort.Strings(out)

	zerolog.Ctx(ctx).Debug().Str("pattern", pattern).Int("matches", len(out)).Msg("expanded pattern")
	return out, nil
}

// HasExtension reports whether path ends in one of exts, ignoring case.
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
