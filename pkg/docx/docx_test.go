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

package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readParts(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err, "valid zip")

	parts := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = string(body)
	}
	return parts
}

func TestWrite(t *testing.T) {
	doc := New()
	doc.AddHeading("Page 1", 1)
	doc.AddParagraph("a < b\nsecond line")
	doc.AddPageBreak()
	doc.AddHeading("Section", 2)
	doc.AddParagraph("bell\x07 removed\ttab kept")

	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf))
	parts := readParts(t, buf.Bytes())

	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/_rels/document.xml.rels", "word/styles.xml", "word/document.xml"} {
		assert.Contains(t, parts, name)
	}

	body := parts["word/document.xml"]
	assert.Contains(t, body, `<w:pStyle w:val="Heading1"/>`)
	assert.Contains(t, body, `<w:pStyle w:val="Heading2"/>`)
	assert.Contains(t, body, "a &lt; b</w:t><w:br/>")
	assert.Contains(t, body, `<w:br w:type="page"/>`)
	assert.Contains(t, body, "bell removed&#x9;tab kept")
	assert.NotContains(t, body, "\x07")

	dec := xml.NewDecoder(strings.NewReader(body))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err, "document.xml is well formed")
	}
}

func TestSaveAtomic(t *testing.T) {
	ctx := zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())
	path := filepath.Join(t.TempDir(), "nested", "out.docx")

	doc := New()
	doc.AddParagraph("hello")
	require.NoError(t, doc.SaveAtomic(ctx, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, readParts(t, data)["word/document.xml"], "hello")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}
