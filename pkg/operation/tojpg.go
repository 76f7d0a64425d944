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
	"image/jpeg"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/walteh/safepdf/pkg/atomicfile"
	"github.com/walteh/safepdf/pkg/pdf"
	"github.com/walteh/safepdf/pkg/progress"
)

const jpgQuality = 95

type jpgConverter struct {
	backend pdf.Backend
}

func (j *jpgConverter) Run(ctx context.Context, req Request) (string, error) {
	p := req.sink()
	dpi := req.Settings.Int(SettingDPI)

	p.Report(10)

	doc, err := j.backend.Raster.Open(ctx, req.Input)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	total := doc.PageCount()
	p.Report(20)

	for i := 1; i <= total; i++ {
		if err := checkpoint(ctx); err != nil {
			return "", err
		}
		img, err := doc.Render(ctx, i, float64(dpi))
		if err != nil {
			return "", err
		}
		path := filepath.Join(req.Target.Dir, fmt.Sprintf("page_%d.jpg", i))
		err = atomicfile.WriteFile(ctx, path, func(w io.Writer) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: jpgQuality})
		})
		if err != nil {
			return "", err
		}
		p.Report(progress.Scale(20, 90, i, total))
	}

	p.Report(100)
	zerolog.Ctx(ctx).Info().Int("pages", total).Int("dpi", dpi).Str("dir", req.Target.Dir).Msg("rendered")
	return fmt.Sprintf("Converted %d pages to JPG images", total), nil
}
