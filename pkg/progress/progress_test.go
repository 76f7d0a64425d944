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

package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t})
	return logger.WithContext(context.Background())
}

type recorder struct {
	mu     sync.Mutex
	values []int
}

func (r *recorder) listen(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) get() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.values...)
}

func TestRunReport(t *testing.T) {
	tests := []struct {
		name   string
		inputs []int
		want   []int
	}{
		{
			name:   "increasing_values_pass_through",
			inputs: []int{10, 20, 90, 100},
			want:   []int{0, 10, 20, 90, 100},
		},
		{
			name:   "regressions_are_dropped",
			inputs: []int{30, 20, 40},
			want:   []int{0, 30, 40},
		},
		{
			name:   "values_are_clamped",
			inputs: []int{-5, 150},
			want:   []int{0, 0, 100},
		},
		{
			name:   "repeats_are_allowed",
			inputs: []int{50, 50},
			want:   []int{0, 50, 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r := New()
			r.SetListener(rec.listen)

			run := start(r, testContext(t))
			for _, v := range tt.inputs {
				run.Report(v)
			}

			assert.Equal(t, tt.want, rec.get())
		})
	}
}

// start begins a run and reports its initial zero, as the controller does.
func start(r *Reporter, ctx context.Context) *Run {
	run := r.Begin(ctx)
	run.Report(Min)
	return run
}

func TestReportWithoutListener(t *testing.T) {
	r := New()
	run := start(r, testContext(t))
	assert.NotPanics(t, func() {
		run.Report(40)
		run.Finish()
	})
	assert.Equal(t, Max, r.Value())
}

func TestListenerPanicIsContained(t *testing.T) {
	r := New()
	r.SetListener(func(int) { panic("ui went away") })

	run := start(r, testContext(t))
	assert.NotPanics(t, func() { run.Report(10) })
	assert.Equal(t, 10, r.Value())
}

func TestSupersededRunIsIgnored(t *testing.T) {
	ctx := testContext(t)
	rec := &recorder{}
	r := New()
	r.SetListener(rec.listen)

	old := start(r, ctx)
	old.Report(80)

	fresh := start(r, ctx)
	old.Report(90)
	fresh.Report(5)

	assert.Equal(t, []int{0, 80, 0, 5}, rec.get())
	assert.Equal(t, 5, r.Value())
}

func TestNilRunIsSafe(t *testing.T) {
	var run *Run
	assert.NotPanics(t, func() {
		run.Report(1)
		run.Finish()
	})
}

func TestScale(t *testing.T) {
	assert.Equal(t, 20, Scale(20, 90, 0, 7))
	assert.Equal(t, 90, Scale(20, 90, 7, 7))
	assert.Equal(t, 55, Scale(20, 90, 1, 2))
	assert.Equal(t, 90, Scale(20, 90, 0, 0))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "⏳ Progress: 42%", Format(42))
	assert.Equal(t, "✅ Progress: 100%", Format(100))
	assert.Equal(t, "✅ Progress: 100%", Format(120))
}

func TestMonotonicProperty(t *testing.T) {
	ctx := testContext(t)

	rapid.Check(t, func(rt *rapid.T) {
		rec := &recorder{}
		r := New()
		r.SetListener(rec.listen)
		run := start(r, ctx)

		inputs := rapid.SliceOf(rapid.IntRange(-50, 150)).Draw(rt, "inputs")
		for _, v := range inputs {
			run.Report(v)
		}
		run.Finish()

		got := rec.get()
		require.NotEmpty(rt, got)
		for i := 1; i < len(got); i++ {
			if got[i] < got[i-1] {
				rt.Fatalf("progress went backwards: %v", got)
			}
		}
		for _, v := range got {
			if v < Min || v > Max {
				rt.Fatalf("value out of range: %d", v)
			}
		}
		if got[len(got)-1] != Max {
			rt.Fatalf("run did not end at 100: %v", got)
		}
	})
}
