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

package operation

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/atomicfile"
	"github.com/walteh/safepdf/pkg/pdf"
	"github.com/walteh/safepdf/pkg/progress"
)

// QualityProfile is the render resolution and JPEG quality of a level.
type QualityProfile struct {
	DPI  float64
	JPEG int
}

// Profiles maps every compression level to its render settings.
var Profiles = map[string]QualityProfile{
	QualityLow:    {DPI: 100, JPEG: 40},
	QualityMedium: {DPI: 150, JPEG: 60},
	QualityHigh:   {DPI: 220, JPEG: 85},
	QualityUltra:  {DPI: 300, JPEG: 95},
}

// 🗜️ compressor rebuilds the document from re-encoded page images when a
// raster backend exists, and falls back to the structural optimiser otherwise.
// The result is kept in memory and only written when it is smaller.
type compressor struct {
	backend pdf.Backend
}

func (c *compressor) Run(ctx context.Context, req Request) (string, error) {
	p := req.sink()
	quality := req.Settings.String(SettingQuality)
	if quality == QualityUltra && !req.Pro {
		return "", fail(KindProRequired, "Ultra quality requires an active Pro license")
	}
	profile, ok := Profiles[quality]
	if !ok {
		profile = Profiles[QualityMedium]
	}

	p.Report(5)

	st, err := os.Stat(req.Input)
	if err != nil {
		return "", errors.Errorf("reading input: %w", err)
	}
	originalSize := st.Size()
	if originalSize == 0 {
		return "", fail(KindFailed, "Original file size is zero. Cannot calculate compression.")
	}

	var out bytes.Buffer
	if c.backend.RasterAvailable() {
		err = c.rasterize(ctx, req.Input, profile, p, &out)
	} else {
		zerolog.Ctx(ctx).Debug().Msg("no raster backend, using structural optimisation")
		err = c.optimize(ctx, req.Input, p, &out)
	}
	if err != nil {
		return "", err
	}
	p.Report(90)

	compressedSize := int64(out.Len())
	if compressedSize == originalSize {
		return "", fail(KindNoReduction, "No size reduction achieved. Please try a different quality setting.")
	}
	if compressedSize > originalSize {
		increase := (float64(compressedSize)/float64(originalSize) - 1) * 100
		return "", fail(KindSizeIncreased, "Compression increased file size by %.1f%%. Please try a different quality setting.", increase)
	}

	if err := checkpoint(ctx); err != nil {
		return "", err
	}
	if err := atomicfile.WriteBytes(ctx, req.Target.File, out.Bytes()); err != nil {
		return "", err
	}
	p.Report(100)

	reduction := (1 - float64(compressedSize)/float64(originalSize)) * 100
	zerolog.Ctx(ctx).Info().
		Int64("original", originalSize).
		Int64("compressed", compressedSize).
		Str("quality", quality).
		Msg("compressed")
	return fmt.Sprintf("PDF compressed successfully. Quality: %s. Size reduced by %.1f%%", quality, reduction), nil
}

func (c *compressor) rasterize(ctx context.Context, input string, profile QualityProfile, p progress.Sink, w io.Writer) error {
	doc, err := c.backend.Raster.Open(ctx, input)
	if err != nil {
		return err
	}
	defer doc.Close()

	total := doc.PageCount()
	if total == 0 {
		return fail(KindFailed, "Input PDF has no pages")
	}
	p.Report(15)

	images := make([]io.Reader, 0, total)
	for i := 1; i <= total; i++ {
		if err := checkpoint(ctx); err != nil {
			return err
		}
		img, err := doc.Render(ctx, i, profile.DPI)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: profile.JPEG}); err != nil {
			return errors.Errorf("encoding page %d: %w", i, err)
		}
		images = append(images, &buf)
		p.Report(progress.Scale(15, 90, i, total))
	}

	if err := checkpoint(ctx); err != nil {
		return err
	}
	return c.backend.Engine.FromImages(ctx, images, w)
}

func (c *compressor) optimize(ctx context.Context, input string, p progress.Sink, w io.Writer) error {
	doc, err := c.backend.Engine.Open(ctx, input)
	if err != nil {
		return err
	}
	defer doc.Close()

	total := doc.PageCount()
	if total == 0 {
		return fail(KindFailed, "Input PDF has no pages")
	}
	p.Report(15)

	parts := make([][]byte, 0, total)
	for i := 1; i <= total; i++ {
		if err := checkpoint(ctx); err != nil {
			return err
		}
		part, err := doc.ExtractPages(ctx, []int{i})
		if err != nil {
			return err
		}
		parts = append(parts, part)
		p.Report(progress.Scale(15, 85, i, total))
	}

	var assembled bytes.Buffer
	if err := c.backend.Engine.Assemble(ctx, parts, &assembled); err != nil {
		return err
	}
	optimized, err := c.backend.Engine.Optimize(ctx, assembled.Bytes())
	if err != nil {
		return err
	}
	_, err = w.Write(optimized)
	return err
}
