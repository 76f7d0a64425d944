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

package controller

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/operation"
	"github.com/walteh/safepdf/pkg/progress"
)

// ✅ Completion is the outcome of one dispatched operation
type Completion struct {
	TaskID    string         `json:"task_id"`
	Operation operation.Name `json:"operation"`
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Output    string         `json:"output,omitempty"`
	// Kind is the failure kind ("cancelled", "invalid_range", ...), empty on success.
	Kind string `json:"kind,omitempty"`
}

// 🎫 Task is the handle of one dispatched operation.
//
// Its completion is delivered exactly once, either by the worker or, when the
// controller gives up waiting for a cancelled worker, by the controller.
type Task struct {
	id     string
	op     operation.Name
	cancel context.CancelFunc
	run    *progress.Run

	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	result Completion
}

func newTask(op operation.Name, cancel context.CancelFunc, run *progress.Run) *Task {
	return &Task{
		id:     uuid.NewString(),
		op:     op,
		cancel: cancel,
		run:    run,
		done:   make(chan struct{}),
	}
}

func (t *Task) ID() string { return t.id }

func (t *Task) Operation() operation.Name { return t.op }

// RequestCancel asks the worker to stop at its next checkpoint.
func (t *Task) RequestCancel() { t.cancel() }

// Done is closed once the completion has been delivered.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the completion is delivered or ctx is done.
func (t *Task) Wait(ctx context.Context) (Completion, error) {
	select {
	case <-t.done:
		c, _ := t.Result()
		return c, nil
	case <-ctx.Done():
		return Completion{}, errors.Errorf("waiting for task %s: %w", t.id, ctx.Err())
	}
}

// Result returns the completion if it has been delivered.
func (t *Task) Result() (Completion, bool) {
	select {
	case <-t.done:
	default:
		return Completion{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, true
}

// record stores c as the result. Only the first call has any effect; it
// reports whether it was that call.
func (t *Task) record(c Completion) bool {
	recorded := false
	t.once.Do(func() {
		recorded = true
		t.mu.Lock()
		t.result = c
		t.mu.Unlock()
	})
	return recorded
}

// release closes Done once the recorded completion has been handed out.
func (t *Task) release() { close(t.done) }
