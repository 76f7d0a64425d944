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
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

const (
	Min = 0
	Max = 100
)

// 📡 Sink receives integer progress values in the range [0, 100]
type Sink interface {
	Report(value int)
}

// 👂 Listener is invoked for every accepted progress value
type Listener func(value int)

// 📈 Reporter is the single progress channel shared between the controller and
// whatever presentation layer is listening.
//
// Each dispatched operation obtains its own Run through Begin. Values reported
// through a superseded Run are ignored, so a detached worker can never move the
// bar of the operation that replaced it.
type Reporter struct {
	mu       sync.Mutex
	listener Listener
	current  *Run
	value    int
	gen      uint64

	// serializes listener calls so they arrive in report order
	deliver sync.Mutex
}

// 🏭 New creates a reporter with no listener attached
func New() *Reporter {
	return &Reporter{}
}

// 👂 SetListener replaces the listener; nil detaches it
func (r *Reporter) SetListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = l
}

// 🔢 Value returns the last accepted value of the current run
func (r *Reporter) Value() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// 🚀 Begin starts a new run, resets the value to zero and supersedes any
// previous run. The listener hears nothing until the run reports, so Begin is
// safe to call while holding locks the listener may take.
func (r *Reporter) Begin(ctx context.Context) *Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	run := &Run{reporter: r, gen: r.gen, ctx: ctx}
	r.current = run
	r.value = Min
	return run
}

// 🔄 Reset forgets the current run and zeroes the value
func (r *Reporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.current = nil
	r.value = Min
}

func (r *Reporter) accept(run *Run, value int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != run || run.gen != r.gen {
		return false
	}
	if value < r.value {
		zerolog.Ctx(run.ctx).Warn().Int("value", value).Int("current", r.value).Msg("dropping progress regression")
		return false
	}
	r.value = value
	return true
}

func (r *Reporter) emit(ctx context.Context, run *Run, value int) {
	r.deliver.Lock()
	defer r.deliver.Unlock()

	r.mu.Lock()
	l := r.listener
	stale := r.current != run
	r.mu.Unlock()
	if l == nil || stale {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			zerolog.Ctx(ctx).Error().Interface("panic", p).Msg("progress listener panicked")
		}
	}()
	l(value)
}

// 🏃 Run is the progress handle of one dispatched operation
type Run struct {
	reporter *Reporter
	gen      uint64
	ctx      context.Context
}

var _ Sink = (*Run)(nil)

// Report clamps value into [0, 100] and delivers it unless it would move the
// progress backwards or the run has been superseded. It never panics.
func (run *Run) Report(value int) {
	if run == nil || run.reporter == nil {
		return
	}
	value = Clamp(value)
	if !run.reporter.accept(run, value) {
		return
	}
	run.reporter.emit(run.ctx, run, value)
}

// ✅ Finish reports completion
func (run *Run) Finish() {
	run.Report(Max)
}

// Clamp bounds value to [0, 100].
func Clamp(value int) int {
	if value < Min {
		return Min
	}
	if value > Max {
		return Max
	}
	return value
}

// Scale maps step i of n onto the [from, to] segment of the bar.
func Scale(from, to, i, n int) int {
	if n <= 0 {
		return to
	}
	return from + (to-from)*i/n
}

// 🎨 Format renders value for log lines and plain consoles
func Format(value int) string {
	value = Clamp(value)
	if value >= Max {
		return fmt.Sprintf("✅ Progress: %d%%", value)
	}
	return fmt.Sprintf("⏳ Progress: %d%%", value)
}

type discard struct{}

func (discard) Report(int) {}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}
