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
package pdfcpu

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

// buildPDF lays out objs as objects 1..n behind a classic xref table.
func buildPDF(objs []string, trailer string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, trailer, xref)
	return buf.Bytes()
}

// damagedDocument has three pages; the second lost its parent and carries
// an unusable media box.
func damagedDocument() []byte {
	return buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 4 0 R 5 0 R] /Count 3 /MediaBox [0 0 612 792] >>",
		"<< /Type /Page /Parent 2 0 R >>",
		"<< /Type /Page /MediaBox (broken) >>",
		"<< /Type /Page /Parent 2 0 R /Rotate 90 >>",
	}, "")
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDamagedPageFailsAlone(t *testing.T) {
	ctx := testContext(t)
	e := New()
	data := damagedDocument()

	_, err := api.ReadAndValidate(bytes.NewReader(data), e.conf)
	require.Error(t, err, "whole document validation rejects the damaged page")

	doc, err := e.Open(ctx, writeFile(t, "damaged.pdf", data))
	require.NoError(t, err, "opening must not validate every page")
	defer doc.Close()
	require.Equal(t, 3, doc.PageCount())

	tests := []struct {
		name    string
		page    int
		wantErr bool
	}{
		{name: "first_page", page: 1},
		{name: "damaged_page", page: 2, wantErr: true},
		{name: "last_page", page: 3},
	}

	parts := [][]byte{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part, err := doc.ExtractPages(ctx, []int{tt.page})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			pctx, err := readContext(part, e.conf)
			require.NoError(t, err)
			assert.Equal(t, 1, pctx.PageCount, "extracted part holds one page")
			parts = append(parts, part)
		})
	}

	require.Len(t, parts, 2)
	var out bytes.Buffer
	require.NoError(t, e.Assemble(ctx, parts, &out))

	n, err := api.PageCount(bytes.NewReader(out.Bytes()), e.conf)
	require.NoError(t, err, "recovered document validates")
	assert.Equal(t, 2, n)
}

func TestExtractPagesRejectsBadSelection(t *testing.T) {
	ctx := testContext(t)
	e := New()

	doc, err := e.Open(ctx, writeFile(t, "damaged.pdf", damagedDocument()))
	require.NoError(t, err)
	defer doc.Close()

	_, err = doc.ExtractPages(ctx, nil)
	assert.Error(t, err, "empty selection")

	_, err = doc.ExtractPages(ctx, []int{4})
	assert.ErrorContains(t, err, "page 4 out of range 1-3")
}

func TestInfo(t *testing.T) {
	ctx := testContext(t)
	data := buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>",
		"<< /Type /Page /Parent 2 0 R >>",
		"<< /Title (Quarterly) /Author (Ops) /Department (Finance) >>",
	}, " /Info 4 0 R")

	info, err := New().Info(ctx, writeFile(t, "quarterly.pdf", data))
	require.NoError(t, err)

	assert.Equal(t, "quarterly.pdf", info.FileName)
	assert.Equal(t, int64(len(data)), info.FileSize)
	assert.Equal(t, 1, info.Pages)
	assert.Equal(t, "Quarterly", info.Title)
	assert.Equal(t, "Ops", info.Author)
	assert.Equal(t, "1.4", info.Version)
	assert.False(t, info.Encrypted)
	assert.Equal(t, "Finance", info.Extra["Department"])
}
