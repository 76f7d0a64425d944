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
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		total   int
		want    []PageRange
		wantErr bool
	}{
		{name: "single_page", spec: "3", total: 5, want: []PageRange{{3, 3}}},
		{name: "mixed_list", spec: "1-2,4,5-5", total: 5, want: []PageRange{{1, 2}, {4, 4}, {5, 5}}},
		{name: "spaces", spec: " 1 - 2 , 4 ", total: 5, want: []PageRange{{1, 2}, {4, 4}}},
		{name: "end_clamped", spec: "4-99", total: 5, want: []PageRange{{4, 5}}},
		{name: "start_clamped_low", spec: "0-2", total: 5, want: []PageRange{{1, 2}}},
		{name: "single_beyond_end", spec: "9", total: 5, want: []PageRange{{5, 5}}},
		{name: "empty", spec: "  ", total: 5, wantErr: true},
		{name: "empty_item", spec: "1,,2", total: 5, wantErr: true},
		{name: "reversed", spec: "4-2", total: 5, wantErr: true},
		{name: "not_a_number", spec: "one-two", total: 5, wantErr: true},
		{name: "no_pages", spec: "1", total: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageRange(tt.spec, tt.total)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageRangeNames(t *testing.T) {
	r := PageRange{Start: 2, End: 4}
	assert.Equal(t, []int{2, 3, 4}, r.Pages())
	assert.Equal(t, "pages_2-4.pdf", r.FileName())
}

func TestParsePageRangeStaysInDocument(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(1, 50).Draw(t, "total")
		n := rapid.IntRange(1, 5).Draw(t, "parts")

		parts := make([]string, n)
		for i := range parts {
			a := rapid.IntRange(0, 80).Draw(t, "a")
			b := rapid.IntRange(a, 80).Draw(t, "b")
			if rapid.Bool().Draw(t, "single") {
				parts[i] = fmt.Sprint(a)
			} else {
				parts[i] = fmt.Sprintf("%d-%d", a, b)
			}
		}

		got, err := ParsePageRange(strings.Join(parts, ","), total)
		if err != nil {
			t.Fatalf("well formed spec rejected: %v", err)
		}
		if len(got) != n {
			t.Fatalf("got %d ranges, want %d", len(got), n)
		}
		for _, r := range got {
			if r.Start < 1 || r.End > total || r.Start > r.End {
				t.Fatalf("range %+v escapes document of %d pages", r, total)
			}
		}
	})
}
