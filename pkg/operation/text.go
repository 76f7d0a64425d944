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
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/safepdf/pkg/atomicfile"
	"github.com/walteh/safepdf/pkg/docx"
	"github.com/walteh/safepdf/pkg/pdf"
	"github.com/walteh/safepdf/pkg/progress"
)

// pageTexts extracts the text of every page, reporting up to 90.
func pageTexts(ctx context.Context, raster pdf.Raster, input string, p progress.Sink) ([]string, error) {
	doc, err := raster.Open(ctx, input)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	total := doc.PageCount()

	texts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := checkpoint(ctx); err != nil {
			return nil, err
		}
		text, err := doc.Text(ctx, i)
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
		p.Report(progress.Scale(0, 90, i, total))
	}
	return texts, nil
}

// 📝 wordConverter writes a "Page N" heading per page and a paragraph per
// line of its text
type wordConverter struct {
	backend pdf.Backend
}

func (c *wordConverter) Run(ctx context.Context, req Request) (string, error) {
	p := req.sink()

	texts, err := pageTexts(ctx, c.backend.Raster, req.Input, p)
	if err != nil {
		return "", err
	}

	doc := docx.New()
	for i, text := range texts {
		if i > 0 {
			doc.AddPageBreak()
		}
		doc.AddHeading(fmt.Sprintf("Page %d", i+1), 1)
		for _, line := range strings.Split(text, "\n") {
			doc.AddParagraph(line)
		}
	}

	if err := checkpoint(ctx); err != nil {
		return "", err
	}
	if err := doc.SaveAtomic(ctx, req.Target.File); err != nil {
		return "", err
	}
	p.Report(100)

	zerolog.Ctx(ctx).Info().Int("pages", len(texts)).Str("output", req.Target.File).Msg("converted to word")
	return fmt.Sprintf("PDF converted to Word document: %s", req.Target.File), nil
}

type textExtractor struct {
	backend pdf.Backend
}

func (t *textExtractor) Run(ctx context.Context, req Request) (string, error) {
	p := req.sink()

	texts, err := pageTexts(ctx, t.backend.Raster, req.Input, p)
	if err != nil {
		return "", err
	}

	if err := checkpoint(ctx); err != nil {
		return "", err
	}
	err = atomicfile.WriteFile(ctx, req.Target.File, func(w io.Writer) error {
		_, err := io.WriteString(w, strings.Join(texts, "\n\n"))
		return err
	})
	if err != nil {
		return "", err
	}
	p.Report(100)

	zerolog.Ctx(ctx).Info().Int("pages", len(texts)).Str("output", req.Target.File).Msg("text extracted")
	return fmt.Sprintf("Text extracted to %s", req.Target.File), nil
}
