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
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
	"pgregory.net/rapid"

	"github.com/walteh/safepdf/pkg/license"
	"github.com/walteh/safepdf/pkg/operation"
	"github.com/walteh/safepdf/pkg/pdf"
	"github.com/walteh/safepdf/pkg/pdf/pdftest"
	"github.com/walteh/safepdf/pkg/progress"
)

const waitTimeout = 5 * time.Second

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

// completions records every completion delivered to the callback
type completions struct {
	mu   sync.Mutex
	list []Completion
}

func (c *completions) add(comp Completion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append(c.list, comp)
}

func (c *completions) all() []Completion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Completion(nil), c.list...)
}

type harness struct {
	ctx    context.Context
	dir    string
	engine *pdftest.Engine
	ctrl   *Controller
	done   *completions
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	backend, engine := pdftest.Backend()
	opts := Options{
		Registry:           operation.NewDefaultRegistry(backend),
		CancelPollAttempts: 20,
		CancelPollInterval: 25 * time.Millisecond,
	}
	for _, m := range mutate {
		m(&opts)
	}

	h := &harness{
		ctx:    testContext(t),
		dir:    t.TempDir(),
		engine: engine,
		ctrl:   New(opts),
		done:   &completions{},
	}
	h.ctrl.OnComplete(h.done.add)
	return h
}

func (h *harness) input(t *testing.T, name string, pages int) string {
	return pdftest.WriteFile(t, h.dir, name, 0, pdftest.SimplePages("p", pages)...)
}

func (h *harness) selectAll(t *testing.T, file string, op operation.Name) {
	_, err := h.ctrl.SelectFile(h.ctx, file)
	require.NoError(t, err)
	require.True(t, h.ctrl.SelectOperation(h.ctx, op))
}

func (h *harness) wait(t *testing.T, task *Task) Completion {
	ctx, cancel := context.WithTimeout(h.ctx, waitTimeout)
	defer cancel()
	comp, err := task.Wait(ctx)
	require.NoError(t, err, "task should complete")
	return comp
}

// gate blocks the fake engine at the first page until released
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

// cooperative blocks until released or cancelled.
func (g *gate) cooperative(ctx context.Context, op string, page int) error {
	if page != 1 {
		return nil
	}
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
	}
	return nil
}

// stuck ignores cancellation, like a library call that never returns early.
func (g *gate) stuck(ctx context.Context, op string, page int) error {
	if page != 1 {
		return nil
	}
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return nil
}

func (g *gate) waitEntered(t *testing.T) {
	select {
	case <-g.entered:
	case <-time.After(waitTimeout):
		t.Fatal("worker never reached the first page")
	}
}

func TestSelectFile(t *testing.T) {
	h := newHarness(t)
	pdfPath := h.input(t, "doc.pdf", 1)
	upper := h.input(t, "SCAN.PDF", 1)
	txt := filepath.Join(h.dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantMsg string
		wantErr error
		errMsg  string
	}{
		{name: "pdf", path: pdfPath, wantMsg: "Selected: doc.pdf"},
		{name: "uppercase_extension", path: upper, wantMsg: "Selected: SCAN.PDF"},
		{name: "missing", path: filepath.Join(h.dir, "nope.pdf"), wantErr: ErrNotFound, errMsg: "File does not exist: " + filepath.Join(h.dir, "nope.pdf")},
		{name: "wrong_extension", path: txt, wantErr: ErrWrongExtension, errMsg: "Please select PDF files only. Invalid: notes.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := h.ctrl.SelectFile(h.ctx, tt.path)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.errMsg, Message(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMsg, msg)
			assert.Equal(t, tt.path, h.ctrl.Snapshot().SelectedFile)
		})
	}
}

func TestSelectOperationKeepsSettings(t *testing.T) {
	h := newHarness(t)

	assert.False(t, h.ctrl.SelectOperation(h.ctx, "shred"))
	assert.Empty(t, h.ctrl.Snapshot().SelectedOperation)

	require.True(t, h.ctrl.SelectOperation(h.ctx, operation.Split))
	h.ctrl.SetOperationSettings(operation.Settings{operation.SettingPageRange: "1-2"})
	h.ctrl.SetOperationSettings(operation.Settings{operation.SettingMethod: operation.MethodRange, operation.SettingPageRange: "3"})

	require.True(t, h.ctrl.SelectOperation(h.ctx, operation.Rotate))
	assert.Equal(t, operation.Settings{
		operation.SettingMethod:    operation.MethodRange,
		operation.SettingPageRange: "3",
	}, h.ctrl.Settings(), "merged, last write wins, kept across operation change")
}

func TestSelectOperationResetsSettingsWhenConfigured(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.ResetSettingsOnOperationChange = true })

	require.True(t, h.ctrl.SelectOperation(h.ctx, operation.Split))
	h.ctrl.SetOperationSettings(operation.Settings{operation.SettingPageRange: "1-2"})

	require.True(t, h.ctrl.SelectOperation(h.ctx, operation.Split))
	assert.NotEmpty(t, h.ctrl.Settings(), "reselecting the same operation keeps settings")

	require.True(t, h.ctrl.SelectOperation(h.ctx, operation.Rotate))
	assert.Empty(t, h.ctrl.Settings())
}

func TestCanProceedToStage(t *testing.T) {
	tests := []struct {
		name    string
		file    bool
		op      bool
		stage   Stage
		want    bool
		wantWhy string
	}{
		{name: "first_stage_always", stage: StageSelectFile, want: true},
		{name: "operation_needs_file", stage: StageOperation, wantWhy: "Please select a file first!"},
		{name: "operation_with_file", file: true, stage: StageOperation, want: true},
		{name: "settings_needs_operation", file: true, stage: StageSettings, wantWhy: "Please select an operation first!"},
		{name: "settings_needs_file_first", op: true, stage: StageSettings, wantWhy: "Please select a file first!"},
		{name: "execute_ready", file: true, op: true, stage: StageExecute, want: true},
		{name: "results_ready", file: true, op: true, stage: StageResults, want: true},
		{name: "unknown_stage", file: true, op: true, stage: Stage(9), wantWhy: "Unknown workflow stage: 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.file {
				_, err := h.ctrl.SelectFile(h.ctx, h.input(t, "a.pdf", 1))
				require.NoError(t, err)
			}
			if tt.op {
				require.True(t, h.ctrl.SelectOperation(h.ctx, operation.Rotate))
			}

			ok, why := h.ctrl.CanProceedToStage(tt.stage)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.wantWhy, why)

			err := h.ctrl.SetStage(tt.stage)
			if tt.want {
				require.NoError(t, err)
				assert.Equal(t, tt.stage, h.ctrl.Snapshot().CurrentTab)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantWhy, Message(err))
			}
		})
	}
}

func TestParseStage(t *testing.T) {
	s, ok := ParseStage("settings")
	assert.True(t, ok)
	assert.Equal(t, StageSettings, s)

	s, ok = ParseStage("3")
	assert.True(t, ok)
	assert.Equal(t, StageExecute, s)

	_, ok = ParseStage("12")
	assert.False(t, ok)
}

func TestExecuteRequiresSelection(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSelection)
	assert.Equal(t, "Please select a file and operation first!", Message(err))

	_, err = h.ctrl.SelectFile(h.ctx, h.input(t, "a.pdf", 1))
	require.NoError(t, err)
	_, _, err = h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	assert.ErrorIs(t, err, ErrMissingSelection)
	assert.False(t, h.ctrl.Running())
}

func TestExecuteSuccessRecordsOutput(t *testing.T) {
	h := newHarness(t)
	in := h.input(t, "report.pdf", 3)
	h.selectAll(t, in, operation.Rotate)
	h.ctrl.SetOperationSettings(operation.Settings{operation.SettingAngle: 270})

	var runningAtCallback []bool
	var mu sync.Mutex
	h.ctrl.OnComplete(func(c Completion) {
		mu.Lock()
		defer mu.Unlock()
		runningAtCallback = append(runningAtCallback, h.ctrl.Running())
		h.done.add(c)
	})

	task, msg, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	assert.Equal(t, "Operation started", msg)
	assert.NotEmpty(t, task.ID())
	assert.Equal(t, operation.Rotate, task.Operation())

	comp := h.wait(t, task)
	want := filepath.Join(h.dir, "report_rotate.pdf")
	assert.True(t, comp.Success, comp.Message)
	assert.Equal(t, "PDF rotated by 270 degrees", comp.Message)
	assert.Equal(t, want, comp.Output)
	assert.Equal(t, task.ID(), comp.TaskID)
	assert.Empty(t, comp.Kind)

	assert.Equal(t, []Completion{comp}, h.done.all(), "callback fired exactly once")
	mu.Lock()
	assert.Equal(t, []bool{false}, runningAtCallback, "running cleared before the callback")
	mu.Unlock()

	snap := h.ctrl.Snapshot()
	assert.False(t, snap.OperationRunning)
	assert.True(t, snap.HasOutput)
	assert.Equal(t, want, snap.OutputLocation)
	assert.Equal(t, 100, snap.Progress)
	assert.Len(t, pdftest.ReadPages(t, want), 3)
}

func TestFailureClearsOutput(t *testing.T) {
	h := newHarness(t)
	in := h.input(t, "a.pdf", 2)
	h.selectAll(t, in, operation.Rotate)

	task, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	require.True(t, h.wait(t, task).Success)
	require.NotEmpty(t, h.ctrl.CurrentOutput())

	require.True(t, h.ctrl.SelectOperation(h.ctx, operation.Split))
	h.ctrl.SetOperationSettings(operation.Settings{operation.SettingMethod: operation.MethodRange, operation.SettingPageRange: "2-1"})

	task, _, err = h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	comp := h.wait(t, task)
	assert.False(t, comp.Success)
	assert.Equal(t, operation.KindInvalidRange.String(), comp.Kind)
	assert.Contains(t, comp.Message, `Invalid page range "2-1"`)
	assert.Empty(t, comp.Output)
	assert.Empty(t, h.ctrl.CurrentOutput(), "failure clears the previous output")
}

func TestAtMostOneOperation(t *testing.T) {
	h := newHarness(t)
	g := newGate()
	h.engine.SetHook(g.cooperative)

	in := h.input(t, "a.pdf", 3)
	h.selectAll(t, in, operation.Rotate)

	task, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	g.waitEntered(t)

	rapid.Check(t, func(rt *rapid.T) {
		op := rapid.SampledFrom(operation.All()).Draw(rt, "op")
		if !h.ctrl.SelectOperation(h.ctx, op) {
			rt.Fatalf("select %s", op)
		}
		_, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
		if !errors.Is(err, ErrAlreadyRunning) {
			rt.Fatalf("second dispatch of %s not refused: %v", op, err)
		}
		if Message(err) != "Operation is already running!" {
			rt.Fatalf("unexpected message %q", Message(err))
		}
	})

	assert.Same(t, task, h.ctrl.CurrentTask())
	close(g.release)
	comp := h.wait(t, task)
	assert.True(t, comp.Success, comp.Message)
	assert.Len(t, h.done.all(), 1, "only the first dispatch completed")
}

func TestCancelCooperative(t *testing.T) {
	h := newHarness(t)
	g := newGate()
	h.engine.SetHook(g.cooperative)

	in := h.input(t, "a.pdf", 4)
	h.selectAll(t, in, operation.Rotate)

	task, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	g.waitEntered(t)

	assert.True(t, h.ctrl.CancelOperation(h.ctx), "worker stops within the poll window")
	assert.False(t, h.ctrl.Running())

	comp := h.wait(t, task)
	assert.False(t, comp.Success)
	assert.Equal(t, operation.CancelledMessage, comp.Message)
	assert.Equal(t, operation.KindCancelled.String(), comp.Kind)
	assert.Len(t, h.done.all(), 1)
	assert.NoFileExists(t, filepath.Join(h.dir, "a_rotate.pdf"))
}

func TestCancelDetachesStuckWorker(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.CancelPollAttempts = 3
		o.CancelPollInterval = 10 * time.Millisecond
	})
	g := newGate()
	h.engine.SetHook(g.stuck)

	in := h.input(t, "a.pdf", 3)
	h.selectAll(t, in, operation.Rotate)

	task, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	g.waitEntered(t)

	assert.False(t, h.ctrl.CancelOperation(h.ctx), "worker had to be detached")
	assert.False(t, h.ctrl.Running(), "visible state reset")
	assert.Nil(t, h.ctrl.CurrentTask())

	comp, ok := task.Result()
	require.True(t, ok, "detached task already has its completion")
	assert.Equal(t, operation.CancelledMessage, comp.Message)

	// a new operation can start while the orphan is still blocked
	h.engine.SetHook(nil)
	other := h.input(t, "b.pdf", 2)
	_, err = h.ctrl.SelectFile(h.ctx, other)
	require.NoError(t, err)
	next, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	require.True(t, h.wait(t, next).Success)

	close(g.release)
	assert.Never(t, func() bool { return len(h.done.all()) > 2 }, 200*time.Millisecond, 20*time.Millisecond,
		"the orphan's own result is never delivered")
	assert.Equal(t, filepath.Join(h.dir, "b_rotate.pdf"), h.ctrl.CurrentOutput(), "orphan does not touch the session")
}

func TestCancelWithNothingRunning(t *testing.T) {
	h := newHarness(t)
	assert.True(t, h.ctrl.CancelOperation(h.ctx))
	assert.Empty(t, h.done.all())
}

func TestPanicIsContained(t *testing.T) {
	backend, _ := pdftest.Backend()
	reg := operation.NewRegistry(backend)
	require.NoError(t, reg.Register(operation.Spec{
		Name:  operation.Repair,
		Label: "Repair",
		Needs: operation.NeedsStructure,
		Capability: operation.CapabilityFunc(func(ctx context.Context, req operation.Request) (string, error) {
			panic("kaboom")
		}),
	}))

	h := newHarness(t, func(o *Options) { o.Registry = reg })
	h.selectAll(t, h.input(t, "a.pdf", 1), operation.Repair)

	task, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	comp := h.wait(t, task)
	assert.False(t, comp.Success)
	assert.Equal(t, "Operation failed with error: kaboom", comp.Message)
	assert.False(t, h.ctrl.Running())
}

func TestCallbackPanicDoesNotBreakController(t *testing.T) {
	h := newHarness(t)
	h.ctrl.OnComplete(func(Completion) { panic("ui exploded") })
	h.selectAll(t, h.input(t, "a.pdf", 1), operation.Rotate)

	task, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	assert.True(t, h.wait(t, task).Success)
	assert.False(t, h.ctrl.Running())
}

func TestCallbackMayReenterController(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.CancelPollAttempts = 3
		o.CancelPollInterval = 10 * time.Millisecond
	})
	g := newGate()
	defer close(g.release)
	h.selectAll(t, h.input(t, "a.pdf", 2), operation.Rotate)

	var (
		once     sync.Once
		second   *Task
		stopped  = true
		entered  bool
		startErr error
	)
	h.ctrl.OnComplete(func(c Completion) {
		h.done.add(c)
		once.Do(func() {
			h.engine.SetHook(g.stuck)
			second, _, startErr = h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
			if startErr != nil {
				return
			}
			select {
			case <-g.entered:
				entered = true
			case <-time.After(waitTimeout):
				return
			}
			stopped = h.ctrl.CancelOperation(h.ctx)
		})
	})

	first, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	require.True(t, h.wait(t, first).Success, "callback returned without deadlocking")

	require.NoError(t, startErr)
	require.True(t, entered, "second worker started from inside the callback")
	assert.False(t, stopped, "stuck worker was detached")

	comp := h.wait(t, second)
	assert.Equal(t, operation.KindCancelled.String(), comp.Kind)

	all := h.done.all()
	require.Len(t, all, 2)
	assert.Equal(t, first.ID(), all[0].TaskID, "completions keep their order")
	assert.Equal(t, second.ID(), all[1].TaskID)
	assert.False(t, h.ctrl.Running())
}

func TestExplicitTarget(t *testing.T) {
	h := newHarness(t)
	h.selectAll(t, h.input(t, "a.pdf", 3), operation.Split)

	target, err := h.ctrl.PrepareOutputPaths(h.ctx, filepath.Join(h.dir, "custom"), false)
	require.NoError(t, err)
	assert.Equal(t, operation.Target{Dir: filepath.Join(h.dir, "custom")}, target)

	task, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, target)
	require.NoError(t, err)
	comp := h.wait(t, task)
	require.True(t, comp.Success, comp.Message)
	assert.Equal(t, "PDF split into 3 files", comp.Message)
	assert.FileExists(t, filepath.Join(h.dir, "custom", "page_3.pdf"))
}

func TestPrepareOutputPathsNeedsSelection(t *testing.T) {
	h := newHarness(t)
	_, err := h.ctrl.PrepareOutputPaths(h.ctx, "", true)
	assert.ErrorIs(t, err, ErrMissingSelection)

	require.True(t, h.ctrl.SelectOperation(h.ctx, operation.Compress))
	_, err = h.ctrl.PrepareOutputPaths(h.ctx, "", true)
	assert.ErrorIs(t, err, ErrMissingSelection)
	assert.Equal(t, "Please select a file first!", Message(err))
}

func TestResetState(t *testing.T) {
	h := newHarness(t)
	g := newGate()
	h.engine.SetHook(g.cooperative)

	h.selectAll(t, h.input(t, "a.pdf", 3), operation.Rotate)
	h.ctrl.SetOperationSettings(operation.Settings{operation.SettingAngle: 180})
	require.NoError(t, h.ctrl.SetStage(StageExecute))

	task, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	g.waitEntered(t)

	h.ctrl.ResetState(h.ctx)

	comp := h.wait(t, task)
	assert.Equal(t, operation.CancelledMessage, comp.Message)
	assert.Equal(t, Summary{Settings: operation.Settings{}}, h.ctrl.Snapshot())
}

func TestProgressListener(t *testing.T) {
	h := newHarness(t)
	var (
		mu     sync.Mutex
		values []int
	)
	h.ctrl.SetProgressListener(func(v int) {
		mu.Lock()
		defer mu.Unlock()
		values = append(values, v)
	})

	h.selectAll(t, h.input(t, "a.pdf", 6), operation.Repair)
	task, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	require.True(t, h.wait(t, task).Success)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, values)
	assert.Equal(t, 0, values[0], "starts at zero")
	assert.Equal(t, 100, values[len(values)-1], "ends at 100")
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1])
	}
	assert.Equal(t, progress.Max, h.ctrl.Progress())
}

func TestDocumentInfo(t *testing.T) {
	h := newHarness(t)
	_, err := h.ctrl.DocumentInfo(h.ctx)
	assert.ErrorIs(t, err, ErrMissingSelection)

	in := h.input(t, "a.pdf", 4)
	_, err = h.ctrl.SelectFile(h.ctx, in)
	require.NoError(t, err)

	info, err := h.ctrl.DocumentInfo(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Pages)
	assert.Equal(t, "a.pdf", info.FileName)

	bare := New(Options{Registry: operation.NewDefaultRegistry(pdf.Backend{})})
	_, err = bare.SelectFile(h.ctx, in)
	require.NoError(t, err)
	_, err = bare.DocumentInfo(h.ctx)
	assert.ErrorIs(t, err, operation.ErrUnavailable)
}

func writeSignedLicense(t *testing.T, dir string, key *rsa.PrivateKey, typ, expires string) string {
	t.Helper()
	var fields []license.Field
	for _, kv := range [][2]string{{"email", "user@example.com"}, {"type", typ}, {"expires", expires}} {
		f, err := license.NewField(kv[0], kv[1])
		require.NoError(t, err)
		fields = append(fields, f)
	}
	data, err := license.Sign(fields, key)
	require.NoError(t, err)
	p := filepath.Join(dir, typ+".lic")
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestLicenseActivationUnlocksUltra(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pub, err := license.EncodePublicKey(&key.PublicKey)
	require.NoError(t, err)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ctx := testContext(t)
	verifier := license.NewVerifier(ctx, license.Options{PublicKeyPEM: pub, Now: func() time.Time { return now }})

	h := newHarness(t, func(o *Options) { o.Verifier = verifier })
	in := pdftest.WriteFile(t, h.dir, "big.pdf", 4096, pdftest.SimplePages("p", 2)...)
	h.selectAll(t, in, operation.Compress)
	h.ctrl.SetOperationSettings(operation.Settings{operation.SettingQuality: operation.QualityUltra})

	task, _, err := h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	comp := h.wait(t, task)
	assert.Equal(t, operation.KindProRequired.String(), comp.Kind)

	basic := writeSignedLicense(t, h.dir, key, "basic", "2025-12-31")
	msg, err := h.ctrl.ActivateLicense(h.ctx, basic)
	require.NoError(t, err)
	assert.Equal(t, "License valid - Type: basic, Remaining days: 296", msg)
	assert.False(t, h.ctrl.ProEnabled(), "basic does not unlock pro settings")

	pro := writeSignedLicense(t, h.dir, key, "pro", "2025-04-09")
	msg, err = h.ctrl.ActivateLicense(h.ctx, pro)
	require.NoError(t, err)
	assert.Equal(t, "License valid - Type: pro, Remaining days: 30", msg)
	assert.True(t, h.ctrl.ProEnabled())
	assert.True(t, h.ctrl.Snapshot().Pro)

	task, _, err = h.ctrl.ExecuteOperationAsync(h.ctx, operation.Target{})
	require.NoError(t, err)
	comp = h.wait(t, task)
	assert.True(t, comp.Success, comp.Message)
	assert.Contains(t, comp.Message, "Quality: ultra")

	expired := writeSignedLicense(t, h.dir, key, "trial", "2025-03-09")
	_, err = h.ctrl.ActivateLicense(h.ctx, expired)
	require.Error(t, err)
	assert.ErrorIs(t, err, license.ErrExpired)
	assert.False(t, h.ctrl.ProEnabled(), "rejected license deactivates")

	h.ctrl.DeactivateLicense(h.ctx)
	assert.Nil(t, h.ctrl.License())
}

func TestActivateWithoutVerifier(t *testing.T) {
	h := newHarness(t)
	_, err := h.ctrl.ActivateLicense(h.ctx, "x.lic")
	assert.ErrorIs(t, err, ErrNoLicense)
	_, _, err = h.ctrl.CheckLicense(h.ctx, []byte("{}"))
	assert.ErrorIs(t, err, ErrNoLicense)
}

func TestCheckLicenseDoesNotActivate(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pub, err := license.EncodePublicKey(&key.PublicKey)
	require.NoError(t, err)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	verifier := license.NewVerifier(testContext(t), license.Options{PublicKeyPEM: pub, Now: func() time.Time { return now }})
	h := newHarness(t, func(o *Options) { o.Verifier = verifier })

	data, err := os.ReadFile(writeSignedLicense(t, h.dir, key, "pro", "2025-04-09"))
	require.NoError(t, err)

	msg, lic, err := h.ctrl.CheckLicense(h.ctx, data)
	require.NoError(t, err)
	assert.Equal(t, "License valid - Type: pro, Remaining days: 30", msg)
	assert.Equal(t, license.TypePro, lic.Type)
	assert.False(t, h.ctrl.ProEnabled())
	assert.Nil(t, h.ctrl.License())

	tampered := bytes.Replace(data, []byte("user@example.com"), []byte("evil@example.com"), 1)
	_, _, err = h.ctrl.CheckLicense(h.ctx, tampered)
	assert.ErrorIs(t, err, license.ErrTamperedSignature)
}
