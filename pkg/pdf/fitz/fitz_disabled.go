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

//go:build nofitz

package fitz

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/pdf"
)

const Available = false

type Raster struct{}

var _ pdf.Raster = (*Raster)(nil)

// New always fails: this binary was built without MuPDF.
func New() (*Raster, error) {
	return nil, errors.Errorf("built without MuPDF (nofitz): %w", pdf.ErrUnavailable)
}

func (r *Raster) Name() string { return "none" }

func (r *Raster) Open(ctx context.Context, path string) (pdf.RasterDocument, error) {
	return nil, errors.WithStack(pdf.ErrUnavailable)
}
