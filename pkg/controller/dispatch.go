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
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/operation"
)

// ▶️ ExecuteOperationAsync starts the selected operation in the background and
// returns immediately.
//
// An empty target is replaced by the default output location. The completion
// is delivered to the OnComplete callback and through the returned Task.
func (c *Controller) ExecuteOperationAsync(ctx context.Context, target operation.Target) (*Task, string, error) {
	c.mu.Lock()

	file, op := c.state.file, c.state.operation
	if file == "" || op == "" {
		c.mu.Unlock()
		return nil, "", refuse(ErrMissingSelection, "Please select a file and operation first!")
	}
	if c.state.running {
		c.mu.Unlock()
		return nil, "", refuse(ErrAlreadyRunning, "Operation is already running!")
	}

	if target.Empty() {
		resolved, err := c.opts.Resolver.Resolve(ctx, op, file, "", true)
		if err != nil {
			c.mu.Unlock()
			return nil, "", errors.Errorf("preparing output location: %w", err)
		}
		target = resolved
	}

	// the worker outlives the caller's request, but keeps its values
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := c.opts.Progress.Begin(taskCtx)
	task := newTask(op, cancel, run)

	logger := zerolog.Ctx(ctx).With().Str("task", task.id).Str("operation", string(op)).Logger()
	taskCtx = logger.WithContext(taskCtx)

	req := operation.Request{
		Input:    file,
		Target:   target,
		Settings: c.state.settings.Clone(),
		Progress: run,
		Pro:      c.proLocked(),
	}

	c.state.running = true
	c.task = task
	c.mu.Unlock()

	run.Report(0)
	go c.work(taskCtx, task, req)

	logger.Info().Str("input", file).Str("target", target.Location()).Msg("operation started")
	return task, "Operation started", nil
}

func (c *Controller) work(ctx context.Context, t *Task, req operation.Request) {
	comp := Completion{TaskID: t.id, Operation: t.op}

	msg, err := c.invoke(ctx, t.op, req)
	if err != nil {
		comp.Message = operation.Message(err)
		comp.Kind = operation.KindFailed.String()
		if f, ok := operation.AsFailure(err); ok {
			comp.Kind = f.Kind.String()
		}
	} else {
		comp.Success = true
		comp.Message = msg
		comp.Output = req.Target.Location()
		t.run.Finish()
	}

	c.finish(ctx, t, comp)
}

// invoke is the worker boundary: nothing it calls can panic past it.
func (c *Controller) invoke(ctx context.Context, name operation.Name, req operation.Request) (msg string, err error) {
	defer func() {
		if p := recover(); p != nil {
			zerolog.Ctx(ctx).Error().Interface("panic", p).Msg("operation panicked")
			err = errors.Errorf("Operation failed with error: %v", p)
		}
	}()
	return c.opts.Registry.Run(ctx, name, req)
}

func (c *Controller) finish(ctx context.Context, t *Task, comp Completion) {
	logger := zerolog.Ctx(ctx)

	c.mu.Lock()
	if c.task != t {
		c.mu.Unlock()
		logger.Warn().Bool("success", comp.Success).Str("message", comp.Message).Msg("discarding result of detached operation")
		t.cancel()
		return
	}
	c.task = nil
	c.state.running = false
	if comp.Success {
		c.state.output = comp.Output
	} else {
		c.state.output = ""
	}
	c.mu.Unlock()

	t.cancel()
	logger.Info().Bool("success", comp.Success).Str("message", comp.Message).Msg("operation finished")
	c.notify(ctx, t, comp)
}

// delivery is a completion waiting for the OnComplete callback
type delivery struct {
	ctx  context.Context
	task *Task
	comp Completion
}

// notify hands comp to the OnComplete callback and then closes the task's
// Done channel. Callbacks run one at a time, in the order completions were
// raised, with no controller lock held. A completion raised while a callback
// is running, from inside it or not, is queued and delivered once that
// callback returns.
func (c *Controller) notify(ctx context.Context, t *Task, comp Completion) {
	if !t.record(comp) {
		return
	}

	c.notifyMu.Lock()
	c.pending = append(c.pending, delivery{ctx: ctx, task: t, comp: comp})
	if c.draining {
		c.notifyMu.Unlock()
		return
	}
	c.draining = true

	for len(c.pending) > 0 {
		d := c.pending[0]
		c.pending = c.pending[1:]
		c.notifyMu.Unlock()

		c.mu.Lock()
		cb := c.onComplete
		c.mu.Unlock()

		runCallback(d.ctx, cb, d.comp)
		d.task.release()

		c.notifyMu.Lock()
	}
	c.draining = false
	c.notifyMu.Unlock()
}

func runCallback(ctx context.Context, cb func(Completion), comp Completion) {
	if cb == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			zerolog.Ctx(ctx).Error().Interface("panic", p).Msg("completion callback panicked")
		}
	}()
	cb(comp)
}

// ⏹️ CancelOperation asks the running operation to stop and waits briefly for
// it. A worker that does not stop in time is detached: the session no longer
// shows it as running and it receives the cancelled completion, while the
// worker itself keeps going until its next checkpoint and its result is
// dropped.
//
// It reports whether the worker stopped (or nothing was running).
func (c *Controller) CancelOperation(ctx context.Context) bool {
	logger := zerolog.Ctx(ctx)

	c.mu.Lock()
	t := c.task
	c.mu.Unlock()
	if t == nil {
		logger.Debug().Msg("cancel requested with no operation running")
		return true
	}

	t.RequestCancel()
	logger.Info().Str("task", t.id).Msg("cancellation requested")

	timer := time.NewTimer(time.Duration(c.opts.CancelPollAttempts) * c.opts.CancelPollInterval)
	defer timer.Stop()

	select {
	case <-t.Done():
		return true
	case <-timer.C:
	case <-ctx.Done():
	}

	c.detach(ctx, t)
	return false
}

func (c *Controller) detach(ctx context.Context, t *Task) {
	c.mu.Lock()
	if c.task != t {
		c.mu.Unlock()
		return
	}
	c.task = nil
	c.state.running = false
	c.state.output = ""
	c.mu.Unlock()

	c.opts.Progress.Reset()
	zerolog.Ctx(ctx).Warn().Str("task", t.id).Msg("operation did not stop in time, detaching it")

	c.notify(ctx, t, Completion{
		TaskID:    t.id,
		Operation: t.op,
		Message:   operation.CancelledMessage,
		Kind:      operation.KindCancelled.String(),
	})
}

// 🔄 ResetState cancels any running operation and clears the session.
// The license activation is kept.
func (c *Controller) ResetState(ctx context.Context) {
	c.CancelOperation(ctx)

	c.mu.Lock()
	c.state = newSession()
	c.mu.Unlock()

	c.opts.Progress.Reset()
	zerolog.Ctx(ctx).Info().Msg("session reset")
}
