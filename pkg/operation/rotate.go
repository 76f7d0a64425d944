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

	"github.com/rs/zerolog"

	"github.com/walteh/safepdf/pkg/atomicfile"
	"github.com/walteh/safepdf/pkg/pdf"
	"github.com/walteh/safepdf/pkg/progress"
)

type rotator struct {
	backend pdf.Backend
}

func (r *rotator) Run(ctx context.Context, req Request) (string, error) {
	p := req.sink()
	angle := req.Settings.Int(SettingAngle)

	p.Report(10)

	doc, err := r.backend.Engine.Open(ctx, req.Input)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	total := doc.PageCount()
	p.Report(30)

	parts := make([][]byte, 0, total)
	for i := 1; i <= total; i++ {
		if err := checkpoint(ctx); err != nil {
			return "", err
		}
		part, err := doc.ExtractPages(ctx, []int{i})
		if err != nil {
			return "", err
		}
		rotated, err := r.backend.Engine.Rotate(ctx, part, angle)
		if err != nil {
			return "", err
		}
		parts = append(parts, rotated)
		p.Report(progress.Scale(30, 90, i, total))
	}

	if err := checkpoint(ctx); err != nil {
		return "", err
	}
	err = atomicfile.WriteFile(ctx, req.Target.File, func(w io.Writer) error {
		return r.backend.Engine.Assemble(ctx, parts, w)
	})
	if err != nil {
		return "", err
	}
	p.Report(100)

	zerolog.Ctx(ctx).Info().Int("angle", angle).Int("pages", total).Msg("rotated")
	return fmt.Sprintf("PDF rotated by %d degrees", angle), nil
}
