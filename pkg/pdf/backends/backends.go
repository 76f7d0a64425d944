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

package backends

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/walteh/safepdf/pkg/pdf"
	"github.com/walteh/safepdf/pkg/pdf/fitz"
	"github.com/walteh/safepdf/pkg/pdf/pdfcpu"
)

// 🧰 Default wires every backend compiled into this binary
func Default(ctx context.Context) pdf.Backend {
	b := pdf.Backend{Engine: pdfcpu.New()}

	raster, err := fitz.New()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("raster backend unavailable, rendering and text features disabled")
		return b
	}
	b.Raster = raster

	zerolog.Ctx(ctx).Debug().Interface("backends", b.Describe()).Msg("pdf backends ready")
	return b
}
