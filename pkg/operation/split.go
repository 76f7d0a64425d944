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
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/walteh/safepdf/pkg/atomicfile"
	"github.com/walteh/safepdf/pkg/pdf"
	"github.com/walteh/safepdf/pkg/progress"
)

// ✂️ splitter writes page_{n}.pdf per page or pages_{s}-{e}.pdf per range
type splitter struct {
	backend pdf.Backend
}

func (s *splitter) Run(ctx context.Context, req Request) (string, error) {
	p := req.sink()
	method := req.Settings.String(SettingMethod)
	spec := req.Settings.String(SettingPageRange)
	if method == MethodRange && spec == "" {
		return "", fail(KindInvalidSettings, "Invalid split method or parameters: page_range is required when method is range")
	}

	p.Report(10)

	doc, err := s.backend.Engine.Open(ctx, req.Input)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	total := doc.PageCount()
	p.Report(20)

	var units []PageRange
	if method == MethodRange {
		units, err = ParsePageRange(spec, total)
		if err != nil {
			return "", fail(KindInvalidRange, "Invalid page range %q: %v", spec, err)
		}
	} else {
		for i := 1; i <= total; i++ {
			units = append(units, PageRange{Start: i, End: i})
		}
	}

	for i, unit := range units {
		if err := checkpoint(ctx); err != nil {
			return "", err
		}
		part, err := doc.ExtractPages(ctx, unit.Pages())
		if err != nil {
			return "", err
		}

		name := unit.FileName()
		if method != MethodRange {
			name = fmt.Sprintf("page_%d.pdf", unit.Start)
		}
		if err := atomicfile.WriteBytes(ctx, filepath.Join(req.Target.Dir, name), part); err != nil {
			return "", err
		}
		p.Report(progress.Scale(20, 90, i+1, len(units)))
	}

	p.Report(100)
	zerolog.Ctx(ctx).Info().Int("files", len(units)).Str("dir", req.Target.Dir).Msg("split written")

	if method == MethodRange {
		return fmt.Sprintf("PDF split into %d files based on ranges", len(units)), nil
	}
	return fmt.Sprintf("PDF split into %d files", len(units)), nil
}
