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
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/license"
	"github.com/walteh/safepdf/pkg/operation"
	"github.com/walteh/safepdf/pkg/paths"
	"github.com/walteh/safepdf/pkg/pdf"
	"github.com/walteh/safepdf/pkg/progress"
)

const (
	DefaultCancelPollAttempts = 20
	DefaultCancelPollInterval = 50 * time.Millisecond
)

// DefaultDocumentExtensions are accepted by SelectFile when none are configured.
var DefaultDocumentExtensions = []string{".pdf"}

// ⚙️ Options wire the controller to its collaborators
type Options struct {
	Registry *operation.Registry
	Resolver *paths.Resolver
	// Verifier is optional; without it licenses cannot be activated.
	Verifier *license.Verifier
	Progress *progress.Reporter

	DocumentExtensions []string

	// CancelOperation waits CancelPollAttempts * CancelPollInterval for the
	// worker to stop before detaching it.
	CancelPollAttempts int
	CancelPollInterval time.Duration

	ResetSettingsOnOperationChange bool
}

// 🎛️ Controller owns the session state and runs at most one operation at a time
type Controller struct {
	opts Options

	mu         sync.Mutex
	state      session
	task       *Task
	onComplete func(Completion)
	lic        *license.License

	// guards the completion queue
	notifyMu sync.Mutex
	pending  []delivery
	draining bool
}

// 🏭 New creates a controller with an empty session
func New(opts Options) *Controller {
	if opts.Registry == nil {
		opts.Registry = operation.NewDefaultRegistry(pdf.Backend{})
	}
	if opts.Resolver == nil {
		opts.Resolver = paths.NewResolver()
	}
	if opts.Progress == nil {
		opts.Progress = progress.New()
	}
	if len(opts.DocumentExtensions) == 0 {
		opts.DocumentExtensions = DefaultDocumentExtensions
	}
	if opts.CancelPollAttempts <= 0 {
		opts.CancelPollAttempts = DefaultCancelPollAttempts
	}
	if opts.CancelPollInterval <= 0 {
		opts.CancelPollInterval = DefaultCancelPollInterval
	}
	return &Controller{opts: opts, state: newSession()}
}

// Registry returns the operation registry used for dispatch.
func (c *Controller) Registry() *operation.Registry { return c.opts.Registry }

// 📄 SelectFile validates and stores the input document
func (c *Controller) SelectFile(ctx context.Context, path string) (string, error) {
	logger := zerolog.Ctx(ctx)

	if _, err := os.Stat(path); err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("rejecting missing file")
		return "", refuse(ErrNotFound, fmt.Sprintf("File does not exist: %s", path))
	}
	if !paths.HasExtension(path, c.opts.DocumentExtensions) {
		return "", refuse(ErrWrongExtension, fmt.Sprintf("Please select PDF files only. Invalid: %s", filepath.Base(path)))
	}

	c.mu.Lock()
	c.state.file = path
	c.mu.Unlock()

	logger.Info().Str("path", path).Msg("file selected")
	return fmt.Sprintf("Selected: %s", filepath.Base(path)), nil
}

// SelectOperation stores name and reports whether it is a known operation.
// Settings survive the change unless ResetSettingsOnOperationChange is set.
func (c *Controller) SelectOperation(ctx context.Context, name operation.Name) bool {
	if !name.Valid() {
		zerolog.Ctx(ctx).Debug().Str("operation", string(name)).Msg("ignoring unknown operation")
		return false
	}

	c.mu.Lock()
	changed := c.state.operation != name
	c.state.operation = name
	if changed && c.opts.ResetSettingsOnOperationChange {
		c.state.settings = operation.Settings{}
	}
	c.mu.Unlock()

	zerolog.Ctx(ctx).Info().Str("operation", string(name)).Msg("operation selected")
	return true
}

// SetOperationSettings merges partial into the settings, last write wins.
// Values are validated when the operation runs.
func (c *Controller) SetOperationSettings(partial operation.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.settings = c.state.settings.Merge(partial)
}

// Settings returns a copy of the accumulated settings.
func (c *Controller) Settings() operation.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.settings.Clone()
}

// 🚦 CanProceedToStage reports whether the wizard may move to stage and, if not,
// why.
func (c *Controller) CanProceedToStage(stage Stage) (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canProceedLocked(stage)
}

func (c *Controller) canProceedLocked(stage Stage) (bool, string) {
	if !stage.Valid() {
		return false, fmt.Sprintf("Unknown workflow stage: %d", int(stage))
	}
	if stage >= StageOperation && c.state.file == "" {
		return false, "Please select a file first!"
	}
	if stage >= StageSettings && c.state.operation == "" {
		return false, "Please select an operation first!"
	}
	return true, ""
}

// SetStage moves the wizard to stage when the gate allows it.
func (c *Controller) SetStage(stage Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, why := c.canProceedLocked(stage); !ok {
		kind := ErrMissingSelection
		if !stage.Valid() {
			kind = ErrUnknownStage
		}
		return refuse(kind, why)
	}
	c.state.stage = stage
	return nil
}

// 📁 PrepareOutputPaths resolves the output target of the current selection
func (c *Controller) PrepareOutputPaths(ctx context.Context, custom string, useDefault bool) (operation.Target, error) {
	c.mu.Lock()
	file, op := c.state.file, c.state.operation
	c.mu.Unlock()

	if op == "" {
		return operation.Target{}, refuse(ErrMissingSelection, "Please select an operation first!")
	}
	target, err := c.opts.Resolver.Resolve(ctx, op, file, custom, useDefault)
	if err != nil {
		if errors.Is(err, paths.ErrNoInput) {
			return operation.Target{}, refuse(ErrMissingSelection, "Please select a file first!")
		}
		return operation.Target{}, err
	}
	return target, nil
}

// OnComplete registers the completion callback; nil removes it. The callback
// may call back into the controller.
func (c *Controller) OnComplete(fn func(Completion)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = fn
}

// SetProgressListener forwards progress of the active operation to l.
func (c *Controller) SetProgressListener(l progress.Listener) {
	c.opts.Progress.SetListener(l)
}

// Progress returns the last progress value of the active operation.
func (c *Controller) Progress() int {
	return c.opts.Progress.Value()
}

// Running reports whether an operation is in flight.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.running
}

// CurrentOutput is the location written by the last successful operation.
func (c *Controller) CurrentOutput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.output
}

// CurrentTask returns the in-flight task, if any.
func (c *Controller) CurrentTask() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task
}

// 📸 Snapshot summarises the session
func (c *Controller) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		SelectedFile:      c.state.file,
		SelectedOperation: c.state.operation,
		Settings:          c.state.settings.Clone(),
		CurrentTab:        c.state.stage,
		OperationRunning:  c.state.running,
		HasOutput:         c.state.output != "",
		OutputLocation:    c.state.output,
		Progress:          c.opts.Progress.Value(),
		Pro:               c.proLocked(),
	}
	if c.task != nil {
		s.TaskID = c.task.id
	}
	return s
}

// 📋 DocumentInfo reads the metadata of the selected document
func (c *Controller) DocumentInfo(ctx context.Context) (*pdf.Info, error) {
	c.mu.Lock()
	file := c.state.file
	c.mu.Unlock()

	if file == "" {
		return nil, refuse(ErrMissingSelection, "Please select a file first!")
	}
	backend := c.opts.Registry.Backend()
	if !backend.StructureAvailable() {
		return nil, operation.Unavailable("Document information", pdf.ErrUnavailable)
	}
	info, err := backend.Engine.Info(ctx, file)
	if err != nil {
		return nil, errors.Errorf("reading document information: %w", err)
	}
	return info, nil
}
