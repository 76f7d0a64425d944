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
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📑 PageRange is an inclusive 1-based page interval
type PageRange struct {
	Start int
	End   int
}

// Pages expands the range.
func (r PageRange) Pages() []int {
	out := make([]int, 0, r.End-r.Start+1)
	for p := r.Start; p <= r.End; p++ {
		out = append(out, p)
	}
	return out
}

// FileName is the split output name of the range.
func (r PageRange) FileName() string {
	return fmt.Sprintf("pages_%d-%d.pdf", r.Start, r.End)
}

// ParsePageRange parses specs such as "1-5,7,10-12" for a document of total
// pages. Values beyond the document are clamped into [1, total]; empty items,
// non-numeric values and reversed ranges are rejected.
func ParsePageRange(spec string, total int) ([]PageRange, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("range is empty")
	}
	if total < 1 {
		return nil, errors.New("document has no pages")
	}

	var out []PageRange
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, errors.New("empty item in list")
		}

		startStr, endStr, isRange := strings.Cut(part, "-")
		start, err := parsePage(startStr)
		if err != nil {
			return nil, err
		}
		end := start
		if isRange {
			if end, err = parsePage(endStr); err != nil {
				return nil, err
			}
			if end < start {
				return nil, errors.Errorf("range %d-%d is reversed", start, end)
			}
		}

		start = clamp(start, 1, total)
		end = clamp(end, start, total)
		out = append(out, PageRange{Start: start, End: end})
	}
	return out, nil
}

func parsePage(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("%q is not a page number", s)
	}
	return n, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
