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

// Package pdf is the boundary to the third party document libraries.
//
// Engine covers page structure (extract, rotate, assemble, optimise, metadata)
// and Raster covers rendering and text extraction. Either may be missing at
// runtime; callers ask Backend before relying on one and get ErrUnavailable
// from a missing one.
package pdf

import (
	"context"
	"image"
	"io"

	"gitlab.com/tozd/go/errors"
)

// ErrUnavailable is returned by every method of a backend that is not present
// in this build or failed to initialise.
var ErrUnavailable = errors.Base("pdf backend unavailable")

// 📋 Info is the metadata shown by extract_info and the info command
type Info struct {
	FileName     string
	FileSize     int64
	Pages        int
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate string
	ModDate      string
	Version      string
	Encrypted    bool
	Extra        map[string]string
}

// 📄 Document is an opened input addressable by 1-based page number
type Document interface {
	PageCount() int
	// ExtractPages returns a standalone PDF holding the given pages.
	ExtractPages(ctx context.Context, pages []int) ([]byte, error)
	Close() error
}

// 🔧 Engine manipulates page structure
type Engine interface {
	Name() string
	Open(ctx context.Context, path string) (Document, error)
	Info(ctx context.Context, path string) (*Info, error)
	Rotate(ctx context.Context, part []byte, angle int) ([]byte, error)
	Optimize(ctx context.Context, part []byte) ([]byte, error)
	// Assemble concatenates parts in order into w.
	Assemble(ctx context.Context, parts [][]byte, w io.Writer) error
	// FromImages writes a PDF with one page per image.
	FromImages(ctx context.Context, images []io.Reader, w io.Writer) error
}

// 🖼️ RasterDocument renders pages of an opened input
type RasterDocument interface {
	PageCount() int
	Render(ctx context.Context, page int, dpi float64) (image.Image, error)
	Text(ctx context.Context, page int) (string, error)
	Close() error
}

// 🖌️ Raster opens documents for rendering
type Raster interface {
	Name() string
	Open(ctx context.Context, path string) (RasterDocument, error)
}

// 🧰 Backend bundles the libraries available in this process
type Backend struct {
	Engine Engine
	Raster Raster
}

// StructureAvailable reports whether page structure operations can run.
func (b Backend) StructureAvailable() bool { return b.Engine != nil }

// RasterAvailable reports whether rendering and text extraction can run.
func (b Backend) RasterAvailable() bool { return b.Raster != nil }

// Describe lists the backend names for diagnostics.
func (b Backend) Describe() map[string]string {
	out := map[string]string{"structure": "unavailable", "raster": "unavailable"}
	if b.Engine != nil {
		out["structure"] = b.Engine.Name()
	}
	if b.Raster != nil {
		out["raster"] = b.Raster.Name()
	}
	return out
}
