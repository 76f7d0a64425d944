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

package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/cmd/safepdf/opts"
	"github.com/walteh/safepdf/pkg/controller"
	pkglog "github.com/walteh/safepdf/pkg/log"
	"github.com/walteh/safepdf/pkg/operation"
	"github.com/walteh/safepdf/pkg/progress"
)

// parseSettings turns repeated key=value flags into settings. Values stay
// strings; the operation converts them.
func parseSettings(pairs []string) (operation.Settings, error) {
	out := operation.Settings{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Errorf("invalid setting %q, expected key=value", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

// job is one pass through the wizard.
type job struct {
	op       operation.Name
	file     string
	settings operation.Settings
	output   string
	progress bool
}

// drive walks the controller through every stage for j and waits for the
// completion. Cancelling ctx requests cancellation of the operation.
func drive(ctx context.Context, ro *opts.RootOpts, j job) (controller.Completion, error) {
	ctrl := ro.Controller
	logger := zerolog.Ctx(ctx)

	if _, err := ctrl.SelectFile(ctx, j.file); err != nil {
		return controller.Completion{}, err
	}
	if err := ctrl.SetStage(controller.StageOperation); err != nil {
		return controller.Completion{}, err
	}
	if !ctrl.SelectOperation(ctx, j.op) {
		return controller.Completion{}, errors.Errorf("unknown operation %q", j.op)
	}
	if err := ctrl.SetStage(controller.StageSettings); err != nil {
		return controller.Completion{}, err
	}
	if spec, ok := ctrl.Registry().Lookup(j.op); ok {
		for key := range j.settings {
			if _, known := spec.Setting(key); !known {
				ro.Console.Warningf("%s ignores setting %q", j.op, key)
			}
		}
	}
	ctrl.SetOperationSettings(j.settings)
	if err := ctrl.SetStage(controller.StageExecute); err != nil {
		return controller.Completion{}, err
	}

	target, err := ctrl.PrepareOutputPaths(ctx, j.output, j.output == "")
	if err != nil {
		return controller.Completion{}, err
	}
	_, statErr := os.Stat(target.Location())
	existed := statErr == nil

	ro.Console.StartOperation(ctx, pkglog.Job{Operation: string(j.op), Input: j.file, Target: target.Location()})

	stopBar := func() {}
	if j.progress {
		stopBar = attachProgressBar(ctx, ctrl, string(j.op))
	}

	task, _, err := ctrl.ExecuteOperationAsync(ctx, target)
	if err != nil {
		stopBar()
		ro.Console.EndOperation(ctx, false, controller.Message(err))
		return controller.Completion{}, err
	}

	select {
	case <-task.Done():
	case <-ctx.Done():
		ro.Console.Warning("Cancelling " + string(j.op) + "...")
		if !ctrl.CancelOperation(context.WithoutCancel(ctx)) {
			logger.Warn().Str("task", task.ID()).Msg("operation did not stop in time")
		}
		<-task.Done()
	}
	stopBar()

	comp, _ := task.Result()
	if comp.Success {
		logArtifacts(ctx, ro.Console, comp.Output, existed)
		if err := ctrl.SetStage(controller.StageResults); err != nil {
			logger.Debug().Err(err).Msg("results stage refused")
		}
	}
	ro.Console.EndOperation(ctx, comp.Success, comp.Message)
	return comp, nil
}

// attachProgressBar forwards controller progress to a terminal bar and returns
// the function that stops it. Without a bar, progress goes to the debug log.
func attachProgressBar(ctx context.Context, ctrl *controller.Controller, title string) func() {
	bar, err := pterm.DefaultProgressbar.WithTotal(100).WithTitle(title).WithRemoveWhenDone(true).Start()
	if err != nil {
		logger := zerolog.Ctx(ctx)
		logger.Debug().Err(err).Msg("progress bar unavailable")
		ctrl.SetProgressListener(func(v int) {
			logger.Debug().Str("operation", title).Msg(progress.Format(v))
		})
		return func() { ctrl.SetProgressListener(nil) }
	}

	var (
		mu   sync.Mutex
		last int
	)
	ctrl.SetProgressListener(func(v int) {
		mu.Lock()
		defer mu.Unlock()
		if v > last {
			bar.Add(v - last)
			last = v
		}
	})

	return func() {
		ctrl.SetProgressListener(nil)
		_, _ = bar.Stop()
	}
}

// logArtifacts lists what landed at location; replaced marks outputs that
// overwrote an existing file or directory.
func logArtifacts(ctx context.Context, console *pkglog.Logger, location string, replaced bool) {
	st, err := os.Stat(location)
	if err != nil {
		return
	}
	if !st.IsDir() {
		console.LogArtifact(ctx, pkglog.Artifact{Path: location, Size: st.Size(), Replaced: replaced})
		return
	}
	entries, err := os.ReadDir(location)
	if err != nil {
		return
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || e.IsDir() {
			continue
		}
		console.LogArtifact(ctx, pkglog.Artifact{Path: filepath.Join(location, e.Name()), Size: info.Size(), Replaced: replaced})
	}
}
