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

package paths

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
	"pgregory.net/rapid"

	"github.com/walteh/safepdf/pkg/operation"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())
}

func TestResolveDefaults(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "report.final.pdf")

	tests := []struct {
		op   operation.Name
		want operation.Target
	}{
		{operation.Compress, operation.Target{File: filepath.Join(dir, "report.final_compress.pdf")}},
		{operation.Rotate, operation.Target{File: filepath.Join(dir, "report.final_rotate.pdf")}},
		{operation.Repair, operation.Target{File: filepath.Join(dir, "report.final_repair.pdf")}},
		{operation.Merge, operation.Target{File: filepath.Join(dir, "report.final_merged.pdf")}},
		{operation.ToWord, operation.Target{File: filepath.Join(dir, "report.final.docx")}},
		{operation.ToTXT, operation.Target{File: filepath.Join(dir, "report.final.txt")}},
		{operation.ExtractInfo, operation.Target{File: filepath.Join(dir, "report.final_info.txt")}},
		{operation.Split, operation.Target{Dir: filepath.Join(dir, "report.final_split")}},
		{operation.ToJPG, operation.Target{Dir: filepath.Join(dir, "report.final_to_jpg")}},
	}

	r := NewResolver()
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			got, err := r.Resolve(testContext(t), tt.op, input, "", true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			if tt.want.Dir != "" {
				assert.DirExists(t, tt.want.Dir, "directory created eagerly")
			}
		})
	}
}

func TestResolveCustom(t *testing.T) {
	r := NewResolver()
	ctx := testContext(t)

	got, err := r.Resolve(ctx, operation.Split, "/in/a.pdf", "/out/parts", false)
	require.NoError(t, err)
	assert.Equal(t, operation.Target{Dir: "/out/parts"}, got)

	got, err = r.Resolve(ctx, operation.Compress, "/in/a.pdf", "/out/small.pdf", false)
	require.NoError(t, err)
	assert.Equal(t, operation.Target{File: "/out/small.pdf"}, got)

	got, err = r.Resolve(ctx, operation.Compress, "/in/a.pdf", "/out/small.pdf", true)
	require.NoError(t, err)
	assert.Equal(t, operation.Target{File: "/in/a_compress.pdf"}, got, "default wins when requested")

	got, err = r.Resolve(ctx, operation.Rotate, "/in/a.pdf", "", false)
	require.NoError(t, err)
	assert.Equal(t, operation.Target{File: "/in/a_rotate.pdf"}, got, "empty custom falls back to default")
}

func TestResolveErrors(t *testing.T) {
	ctx := testContext(t)
	errDisk := errors.New("disk full")

	r := &Resolver{MkdirAll: func(string, os.FileMode) error { return errDisk }}

	_, err := r.Resolve(ctx, operation.Split, "/in/a.pdf", "", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk, "mkdir failure propagates")

	_, err = r.Resolve(ctx, operation.Split, "", "", true)
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = r.Resolve(ctx, "shred", "/in/a.pdf", "", true)
	require.Error(t, err)
}

func TestResolveIsDeterministic(t *testing.T) {
	base := t.TempDir()
	r := NewResolver()
	ops := operation.All()

	rapid.Check(t, func(t *rapid.T) {
		op := rapid.SampledFrom(ops).Draw(t, "op")
		name := rapid.StringMatching(`[a-z][a-z0-9_]{0,12}`).Draw(t, "name")
		input := filepath.Join(base, name+".pdf")

		first, err := r.Resolve(context.Background(), op, input, "", true)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		second, err := r.Resolve(context.Background(), op, input, "", true)
		if err != nil {
			t.Fatalf("resolve again: %v", err)
		}
		if first != second {
			t.Fatalf("resolve changed between calls: %+v vs %+v", first, second)
		}
		if first.Empty() {
			t.Fatalf("no target for %s", op)
		}
	})
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.PDF", "notes.txt", "nested/c.pdf", "nested/deeper/d.pdf"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	got, err := Expand(testContext(t), filepath.Join(dir, "**", "*"), []string{".pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b.PDF"),
		filepath.Join(dir, "nested", "c.pdf"),
		filepath.Join(dir, "nested", "deeper", "d.pdf"),
	}, got)

	_, err = Expand(testContext(t), "[", []string{".pdf"})
	require.Error(t, err, "bad pattern")
}
