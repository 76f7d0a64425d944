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
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/safepdf/pkg/atomicfile"
	"github.com/walteh/safepdf/pkg/pdf"
	"github.com/walteh/safepdf/pkg/progress"
)

// 🔗 merger combines the selected file with settings[second_file]
type merger struct {
	backend pdf.Backend
}

func (m *merger) Run(ctx context.Context, req Request) (string, error) {
	p := req.sink()

	second := req.Settings.String(SettingSecondFile)
	if second == "" {
		return "", fail(KindSecondFileMissing, "Merge requires a second PDF file (setting: %s)", SettingSecondFile)
	}
	if _, err := os.Stat(second); err != nil {
		return "", errors.WithStack(&Failure{
			Kind:    KindSecondFileNotFound,
			Message: fmt.Sprintf("Second file not found: %s", second),
			Err:     err,
		})
	}

	inputs := []string{req.Input, second}
	if req.Settings.String(SettingMergeOrder) == OrderBeginning {
		inputs = []string{second, req.Input}
	}

	p.Report(10)

	parts, err := m.load(ctx, inputs, p)
	if err != nil {
		return "", err
	}

	if err := checkpoint(ctx); err != nil {
		return "", err
	}
	err = atomicfile.WriteFile(ctx, req.Target.File, func(w io.Writer) error {
		return m.backend.Engine.Assemble(ctx, parts, w)
	})
	if err != nil {
		return "", err
	}
	p.Report(100)

	zerolog.Ctx(ctx).Info().Strs("inputs", inputs).Str("output", req.Target.File).Msg("merged")
	return fmt.Sprintf("Successfully merged %d PDF files", len(inputs)), nil
}

// load reads every input concurrently; parts keep the order of inputs.
func (m *merger) load(ctx context.Context, inputs []string, p progress.Sink) ([][]byte, error) {
	parts := make([][]byte, len(inputs))

	var (
		mu     sync.Mutex
		loaded int
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range inputs {
		g.Go(func() error {
			if err := checkpoint(gctx); err != nil {
				return err
			}
			doc, err := m.backend.Engine.Open(gctx, path)
			if err != nil {
				return errors.Errorf("opening %s: %w", filepath.Base(path), err)
			}
			defer doc.Close()

			pages := make([]int, doc.PageCount())
			for n := range pages {
				pages[n] = n + 1
			}
			part, err := doc.ExtractPages(gctx, pages)
			if err != nil {
				return errors.Errorf("reading %s: %w", filepath.Base(path), err)
			}
			parts[i] = part

			mu.Lock()
			loaded++
			p.Report(progress.Scale(10, 90, loaded, len(inputs)))
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, Cancelled()
		}
		return nil, err
	}
	return parts, nil
}
