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
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/safepdf/pkg/atomicfile"
	"github.com/walteh/safepdf/pkg/pdf"
)

// 🔍 infoExtractor dumps metadata and the extra info dictionary to text
type infoExtractor struct {
	backend pdf.Backend
}

func (x *infoExtractor) Run(ctx context.Context, req Request) (string, error) {
	p := req.sink()
	p.Report(10)

	info, err := x.backend.Engine.Info(ctx, req.Input)
	if err != nil {
		return "", err
	}
	p.Report(50)

	if err := checkpoint(ctx); err != nil {
		return "", err
	}
	err = atomicfile.WriteFile(ctx, req.Target.File, func(w io.Writer) error {
		_, err := io.WriteString(w, FormatInfo(info))
		return err
	})
	if err != nil {
		return "", err
	}
	p.Report(100)

	zerolog.Ctx(ctx).Info().Int("extra_keys", len(info.Extra)).Str("output", req.Target.File).Msg("info extracted")
	return fmt.Sprintf("Hidden information extracted to %s", req.Target.File), nil
}

// FormatInfo renders the extract_info report.
func FormatInfo(info *pdf.Info) string {
	var b strings.Builder
	na := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}

	b.WriteString("=== PDF METADATA ===\n")
	fmt.Fprintf(&b, "Title: %s\n", na(info.Title))
	fmt.Fprintf(&b, "Author: %s\n", na(info.Author))
	fmt.Fprintf(&b, "Creator: %s\n", na(info.Creator))
	fmt.Fprintf(&b, "Producer: %s\n", na(info.Producer))
	fmt.Fprintf(&b, "Pages: %d\n", info.Pages)
	fmt.Fprintf(&b, "File Size: %d bytes\n", info.FileSize)

	optional := []struct{ label, value string }{
		{"Subject", info.Subject},
		{"Keywords", info.Keywords},
		{"Created", info.CreationDate},
		{"Modified", info.ModDate},
		{"PDF Version", info.Version},
	}
	for _, o := range optional {
		if o.value != "" {
			fmt.Fprintf(&b, "%s: %s\n", o.label, o.value)
		}
	}
	if info.Encrypted {
		b.WriteString("Encrypted: yes\n")
	}

	if len(info.Extra) > 0 {
		b.WriteString("\n=== ADDITIONAL INFO DICTIONARY ===\n")
		keys := make([]string, 0, len(info.Extra))
		for k := range info.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %s\n", k, info.Extra[k])
		}
	}

	b.WriteString("\n=== END OF EXTRACTED INFORMATION ===\n")
	b.WriteString("These details are extracted by SafePDF.\n")
	return b.String()
}
