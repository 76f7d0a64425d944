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
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/pdf"
)

// 🗂️ Registry maps operation names to their specs
type Registry struct {
	mu      sync.RWMutex
	specs   map[Name]*Spec
	backend pdf.Backend
}

// 🏭 NewRegistry creates an empty registry whose availability checks use backend
func NewRegistry(backend pdf.Backend) *Registry {
	return &Registry{
		specs:   make(map[Name]*Spec),
		backend: backend,
	}
}

// Option tweaks the default registry.
type Option func(*Registry)

// WithDefaults overrides setting defaults by key across every operation.
func WithDefaults(defaults Settings) Option {
	return func(r *Registry) {
		for _, spec := range r.specs {
			for i := range spec.Settings {
				if v, ok := defaults[spec.Settings[i].Key]; ok && v != nil && v != "" {
					spec.Settings[i].Default = v
				}
			}
		}
	}
}

// 🏭 NewDefaultRegistry registers every operation backed by backend
func NewDefaultRegistry(backend pdf.Backend, opts ...Option) *Registry {
	r := NewRegistry(backend)
	for _, spec := range defaultSpecs(backend) {
		if err := r.Register(spec); err != nil {
			// the default table has no duplicates
			panic(err)
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds spec; a name can only be registered once.
func (r *Registry) Register(spec Spec) error {
	if !spec.Name.Valid() {
		return errors.Errorf("unknown operation %q", spec.Name)
	}
	if spec.Capability == nil {
		return errors.Errorf("operation %q has no capability", spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.Name]; exists {
		return errors.Errorf("operation %q already registered", spec.Name)
	}
	s := spec
	s.Settings = append([]SettingSpec(nil), spec.Settings...)
	r.specs[spec.Name] = &s
	return nil
}

// Backend returns the document libraries the registry dispatches to.
func (r *Registry) Backend() pdf.Backend {
	return r.backend
}

// Lookup returns the spec registered for name.
func (r *Registry) Lookup(name Name) (*Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	return s, ok
}

// Names lists registered operations in menu order.
func (r *Registry) Names() []Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Name
	for _, n := range allNames {
		if _, ok := r.specs[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Available reports whether name can run with the current backend and, if
// not, why.
func (r *Registry) Available(name Name) (bool, string) {
	spec, ok := r.Lookup(name)
	if !ok {
		return false, "operation not registered"
	}
	if spec.Needs&NeedsStructure != 0 && !r.backend.StructureAvailable() {
		return false, "no PDF structure backend in this build"
	}
	if spec.Needs&NeedsRaster != 0 && !r.backend.RasterAvailable() {
		return false, "no PDF rendering backend in this build (built with nofitz)"
	}
	return true, ""
}

// ▶️ Run resolves settings and invokes the capability of name.
//
// Every error returned is a *Failure.
func (r *Registry) Run(ctx context.Context, name Name, req Request) (string, error) {
	spec, ok := r.Lookup(name)
	if !ok {
		return "", fail(KindInvalidSettings, "Unknown operation: %s", name)
	}

	if ok, why := r.Available(name); !ok {
		return "", Unavailable(spec.Label, errors.Errorf("%s: %w", why, pdf.ErrUnavailable))
	}

	settings, err := spec.Resolve(req.Settings)
	if err != nil {
		return "", err
	}
	req.Settings = settings
	req.Progress = req.sink()

	logger := zerolog.Ctx(ctx).With().Str("operation", string(name)).Logger()
	ctx = logger.WithContext(ctx)
	logger.Debug().Interface("settings", map[string]any(settings)).Str("input", req.Input).Msg("running capability")

	msg, err := spec.Capability.Run(ctx, req)
	if err != nil {
		if _, isFailure := AsFailure(err); isFailure {
			return "", err
		}
		if ctx.Err() != nil {
			return "", Cancelled()
		}
		if errors.Is(err, pdf.ErrUnavailable) {
			return "", Unavailable(spec.Label, err)
		}
		return "", Failed(spec.Label, err)
	}
	return msg, nil
}
