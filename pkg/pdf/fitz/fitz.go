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

//go:build !nofitz

// Package fitz implements pdf.Raster with MuPDF through go-fitz.
//
// Build with -tags nofitz to leave the raster backend out; rendering and text
// operations then report themselves as unavailable.
package fitz

import (
	"context"
	"image"
	"path/filepath"
	"sync"

	gofitz "github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/pdf"
)

// Available is true when MuPDF is compiled in.
const Available = true

// 🖌️ Raster opens documents with MuPDF
type Raster struct{}

var _ pdf.Raster = (*Raster)(nil)

// 🏭 New returns the MuPDF raster backend
func New() (*Raster, error) {
	return &Raster{}, nil
}

func (r *Raster) Name() string { return "mupdf" }

func (r *Raster) Open(ctx context.Context, path string) (pdf.RasterDocument, error) {
	doc, err := gofitz.New(path)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Int("pages", doc.NumPage()).Msg("raster document opened")
	return &document{doc: doc}, nil
}

// MuPDF contexts are not safe for concurrent use.
type document struct {
	mu  sync.Mutex
	doc *gofitz.Document
}

func (d *document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.NumPage()
}

func (d *document) Render(ctx context.Context, page int, dpi float64) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	img, err := d.doc.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, errors.Errorf("rendering page %d: %w", page, err)
	}
	return img, nil
}

func (d *document) Text(ctx context.Context, page int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	text, err := d.doc.Text(page - 1)
	if err != nil {
		return "", errors.Errorf("extracting text of page %d: %w", page, err)
	}
	return text, nil
}

func (d *document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Close()
}
