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

// Package pdfcpu implements pdf.Engine on top of github.com/pdfcpu/pdfcpu.
package pdfcpu

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpulib "github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/pdf"
)

// 🔧 Engine runs every structural operation in memory
type Engine struct {
	conf *model.Configuration
}

var _ pdf.Engine = (*Engine)(nil)

// 🏭 New creates an engine with relaxed validation and no on-disk pdfcpu
// configuration directory.
func New() *Engine {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Engine{conf: conf}
}

func (e *Engine) Name() string { return "pdfcpu" }

// Open reads the whole input so that every page extraction is independent.
// The page tree is walked without validating the pages themselves, which
// leaves a damaged page to fail on its own extraction.
func (e *Engine) Open(ctx context.Context, path string) (pdf.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	pctx, err := readContext(data, e.conf)
	if err != nil {
		return nil, errors.Errorf("counting pages: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("pages", pctx.PageCount).Msg("document opened")
	return &document{data: data, pages: pctx.PageCount, conf: e.conf}, nil
}

// readContext parses data into an unvalidated context with a known page count.
func readContext(data []byte, conf *model.Configuration) (*model.Context, error) {
	pctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, err
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, err
	}
	return pctx, nil
}

func (e *Engine) Info(ctx context.Context, path string) (*pdf.Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	pctx, err := api.ReadAndValidate(bytes.NewReader(data), e.conf)
	if err != nil {
		return nil, errors.Errorf("reading document: %w", err)
	}

	// Configuration and XRefTable both carry a CreationDate.
	xrt := pctx.XRefTable
	info := &pdf.Info{
		FileName:     filepath.Base(path),
		FileSize:     int64(len(data)),
		Pages:        xrt.PageCount,
		Title:        xrt.Title,
		Author:       xrt.Author,
		Subject:      xrt.Subject,
		Keywords:     xrt.Keywords,
		Creator:      xrt.Creator,
		Producer:     xrt.Producer,
		CreationDate: xrt.CreationDate,
		ModDate:      xrt.ModDate,
		Encrypted:    xrt.Encrypt != nil,
		Extra:        map[string]string{},
	}
	if xrt.HeaderVersion != nil {
		info.Version = xrt.HeaderVersion.String()
	}
	for k, v := range xrt.Properties {
		info.Extra[k] = v
	}
	return info, nil
}

func (e *Engine) Rotate(ctx context.Context, part []byte, angle int) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.Rotate(bytes.NewReader(part), &buf, angle, nil, e.conf); err != nil {
		return nil, errors.Errorf("rotating by %d: %w", angle, err)
	}
	return buf.Bytes(), nil
}

func (e *Engine) Optimize(ctx context.Context, part []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(part), &buf, e.conf); err != nil {
		return nil, errors.Errorf("optimizing: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Engine) Assemble(ctx context.Context, parts [][]byte, w io.Writer) error {
	switch len(parts) {
	case 0:
		return errors.New("nothing to assemble")
	case 1:
		_, err := w.Write(parts[0])
		return err
	}

	readers := make([]io.ReadSeeker, len(parts))
	for i, p := range parts {
		readers[i] = bytes.NewReader(p)
	}
	if err := api.MergeRaw(readers, w, false, e.conf); err != nil {
		return errors.Errorf("merging %d parts: %w", len(parts), err)
	}
	return nil
}

func (e *Engine) FromImages(ctx context.Context, images []io.Reader, w io.Writer) error {
	if len(images) == 0 {
		return errors.New("no images to import")
	}
	if err := api.ImportImages(nil, w, images, pdfcpulib.DefaultImportConfig(), e.conf); err != nil {
		return errors.Errorf("importing %d images: %w", len(images), err)
	}
	return nil
}

type document struct {
	data  []byte
	pages int
	conf  *model.Configuration
}

func (d *document) PageCount() int { return d.pages }

func (d *document) ExtractPages(ctx context.Context, pages []int) ([]byte, error) {
	if len(pages) == 0 {
		return nil, errors.New("no pages selected")
	}
	sorted := append([]int(nil), pages...)
	sort.Ints(sorted)

	for _, p := range sorted {
		if p < 1 || p > d.pages {
			return nil, errors.Errorf("page %d out of range 1-%d", p, d.pages)
		}
	}

	// A fresh context per call keeps concurrent extractions apart.
	src, err := readContext(d.data, d.conf)
	if err != nil {
		return nil, errors.Errorf("reading document: %w", err)
	}

	dst, err := pdfcpulib.ExtractPages(src, sorted, false)
	if err != nil {
		return nil, errors.Errorf("extracting pages %v: %w", sorted, err)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(dst, &buf); err != nil {
		return nil, errors.Errorf("writing pages %v: %w", sorted, err)
	}
	return buf.Bytes(), nil
}

func (d *document) Close() error {
	d.data = nil
	return nil
}
