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

// Package pdftest provides an in-memory pdf.Engine and pdf.Raster for tests.
//
// Documents are small JSON files listing their pages, so tests can build
// inputs, inspect outputs and mark individual pages as corrupted without a
// native PDF toolchain.
package pdftest

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/pdf"
)

const magic = "FAKEPDF"

// 📄 Page is one page of a fake document
type Page struct {
	Label    string `json:"label"`
	Rotation int    `json:"rotation,omitempty"`
	Text     string `json:"text,omitempty"`
	Corrupt  bool   `json:"corrupt,omitempty"`
}

// Doc is the on-disk layout of a fake document.
type Doc struct {
	Magic string            `json:"magic"`
	Pages []Page            `json:"pages"`
	Meta  map[string]string `json:"meta,omitempty"`
	Pad   string            `json:"pad,omitempty"`
}

// Encode renders pages as a fake document. pad adds that many filler bytes,
// which Optimize strips.
func Encode(pages []Page, pad int) []byte {
	data, err := json.Marshal(Doc{Magic: magic, Pages: pages, Pad: strings.Repeat("x", pad)})
	if err != nil {
		panic(err)
	}
	return data
}

// Decode parses a fake document.
func Decode(data []byte) (*Doc, error) {
	var d Doc
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Errorf("not a fake pdf: %w", err)
	}
	if d.Magic != magic {
		return nil, errors.New("not a fake pdf: bad magic")
	}
	return &d, nil
}

// Labels lists the page labels of a fake document.
func Labels(t testing.TB, data []byte) []string {
	t.Helper()
	d, err := Decode(data)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	out := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = p.Label
	}
	return out
}

// ReadPages decodes the fake document at path.
func ReadPages(t testing.TB, path string) []Page {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	d, err := Decode(data)
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	return d.Pages
}

// WriteFile stores a fake document with the given pages in dir.
func WriteFile(t testing.TB, dir, name string, pad int, pages ...Page) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, Encode(pages, pad), 0o644); err != nil {
		t.Fatalf("writing %s: %v", p, err)
	}
	return p
}

// SimplePages returns n healthy pages labelled prefix1..prefixN.
func SimplePages(prefix string, n int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		label := prefix + strconv.Itoa(i+1)
		pages[i] = Page{Label: label, Text: "text of " + label}
	}
	return pages
}

// Hook runs before every per-page unit of work. Returning an error fails that
// unit; blocking simulates a slow library call.
type Hook func(ctx context.Context, op string, page int) error

// 🔧 Engine is a fake pdf.Engine
type Engine struct {
	mu   sync.Mutex
	hook Hook

	// Grow adds filler bytes in Optimize instead of stripping them.
	Grow int
}

var _ pdf.Engine = (*Engine)(nil)

// SetHook installs the per-page hook.
func (e *Engine) SetHook(h Hook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hook = h
}

func (e *Engine) runHook(ctx context.Context, op string, page int) error {
	e.mu.Lock()
	h := e.hook
	e.mu.Unlock()
	if h == nil {
		return nil
	}
	return h(ctx, op, page)
}

func (e *Engine) Name() string { return "fake" }

func (e *Engine) Open(ctx context.Context, path string) (pdf.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading: %w", err)
	}
	d, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &document{engine: e, doc: d}, nil
}

func (e *Engine) Info(ctx context.Context, path string) (*pdf.Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading: %w", err)
	}
	d, err := Decode(data)
	if err != nil {
		return nil, err
	}
	info := &pdf.Info{
		FileName: filepath.Base(path),
		FileSize: int64(len(data)),
		Pages:    len(d.Pages),
		Title:    d.Meta["Title"],
		Author:   d.Meta["Author"],
		Version:  "1.7",
		Extra:    map[string]string{},
	}
	for k, v := range d.Meta {
		if k != "Title" && k != "Author" {
			info.Extra[k] = v
		}
	}
	return info, nil
}

func (e *Engine) Rotate(ctx context.Context, part []byte, angle int) ([]byte, error) {
	d, err := Decode(part)
	if err != nil {
		return nil, err
	}
	for i := range d.Pages {
		d.Pages[i].Rotation = (d.Pages[i].Rotation + angle) % 360
	}
	return Encode(d.Pages, len(d.Pad)), nil
}

func (e *Engine) Optimize(ctx context.Context, part []byte) ([]byte, error) {
	d, err := Decode(part)
	if err != nil {
		return nil, err
	}
	return Encode(d.Pages, e.Grow), nil
}

func (e *Engine) Assemble(ctx context.Context, parts [][]byte, w io.Writer) error {
	var pages []Page
	for _, p := range parts {
		d, err := Decode(p)
		if err != nil {
			return err
		}
		pages = append(pages, d.Pages...)
	}
	_, err := w.Write(Encode(pages, 0))
	return err
}

func (e *Engine) FromImages(ctx context.Context, images []io.Reader, w io.Writer) error {
	pages := make([]Page, 0, len(images))
	for range images {
		pages = append(pages, Page{Label: "image"})
	}
	_, err := w.Write(Encode(pages, 0))
	return err
}

type document struct {
	engine *Engine
	doc    *Doc
}

func (d *document) PageCount() int { return len(d.doc.Pages) }

func (d *document) ExtractPages(ctx context.Context, pages []int) ([]byte, error) {
	var out []Page
	for _, n := range pages {
		if n < 1 || n > len(d.doc.Pages) {
			return nil, errors.Errorf("page %d out of range", n)
		}
		if err := d.engine.runHook(ctx, "extract", n); err != nil {
			return nil, err
		}
		p := d.doc.Pages[n-1]
		if p.Corrupt {
			return nil, errors.Errorf("page %d is corrupted", n)
		}
		out = append(out, p)
	}
	return Encode(out, 0), nil
}

func (d *document) Close() error { return nil }

// 🖌️ Raster is a fake pdf.Raster sharing the document format of Engine
type Raster struct {
	Engine *Engine
}

var _ pdf.Raster = (*Raster)(nil)

func (r *Raster) Name() string { return "fake-raster" }

func (r *Raster) Open(ctx context.Context, path string) (pdf.RasterDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading: %w", err)
	}
	d, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &rasterDocument{raster: r, doc: d}, nil
}

type rasterDocument struct {
	raster *Raster
	doc    *Doc
}

func (d *rasterDocument) PageCount() int { return len(d.doc.Pages) }

func (d *rasterDocument) page(ctx context.Context, op string, n int) (Page, error) {
	if n < 1 || n > len(d.doc.Pages) {
		return Page{}, errors.Errorf("page %d out of range", n)
	}
	if d.raster.Engine != nil {
		if err := d.raster.Engine.runHook(ctx, op, n); err != nil {
			return Page{}, err
		}
	}
	p := d.doc.Pages[n-1]
	if p.Corrupt {
		return Page{}, errors.Errorf("page %d is corrupted", n)
	}
	return p, nil
}

func (d *rasterDocument) Render(ctx context.Context, n int, dpi float64) (image.Image, error) {
	if _, err := d.page(ctx, "render", n); err != nil {
		return nil, err
	}
	side := int(dpi / 72)
	if side < 1 {
		side = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			img.Set(x, y, color.White)
		}
	}
	return img, nil
}

func (d *rasterDocument) Text(ctx context.Context, n int) (string, error) {
	p, err := d.page(ctx, "text", n)
	if err != nil {
		return "", err
	}
	return p.Text, nil
}

func (d *rasterDocument) Close() error { return nil }

// Backend returns a fake backend with both halves present.
func Backend() (pdf.Backend, *Engine) {
	e := &Engine{}
	return pdf.Backend{Engine: e, Raster: &Raster{Engine: e}}, e
}

// StructureOnly returns a fake backend without rendering support.
func StructureOnly() (pdf.Backend, *Engine) {
	e := &Engine{}
	return pdf.Backend{Engine: e}, e
}
