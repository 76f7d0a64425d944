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
	"fmt"
	"strconv"
	"strings"

	"github.com/walteh/safepdf/pkg/progress"
)

// 🎯 Target is where an operation writes its artifact. Exactly one of File and
// Dir is used, depending on the operation's OutputKind.
type Target struct {
	File string `json:"file,omitempty"`
	Dir  string `json:"dir,omitempty"`
}

// Empty reports whether no location is set.
func (t Target) Empty() bool { return t.File == "" && t.Dir == "" }

// Location returns whichever of File and Dir is set.
func (t Target) Location() string {
	if t.File != "" {
		return t.File
	}
	return t.Dir
}

// 📦 Request carries everything a capability needs for one run
type Request struct {
	Input    string
	Target   Target
	Settings Settings
	Progress progress.Sink
	// Pro is true when an active pro license unlocks premium settings.
	Pro bool
}

func (r Request) sink() progress.Sink {
	if r.Progress == nil {
		return progress.Discard
	}
	return r.Progress
}

// ⚡ Capability performs one operation and returns its success message.
//
// Implementations check ctx once per unit of work and report Cancelled when it
// is done. Failures returned as *Failure keep their kind; any other error is
// wrapped as a generic failure by the registry.
type Capability interface {
	Run(ctx context.Context, req Request) (string, error)
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(ctx context.Context, req Request) (string, error)

func (f CapabilityFunc) Run(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// OutputKind tells path resolution whether an operation writes one file or a
// directory of files.
type OutputKind int

const (
	OutputFile OutputKind = iota
	OutputDir
)

func (o OutputKind) String() string {
	if o == OutputDir {
		return "directory"
	}
	return "file"
}

// Needs is a bit set of backends an operation depends on.
type Needs int

const (
	NeedsStructure Needs = 1 << iota
	NeedsRaster
)

// ValueKind is the type of a setting value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindPath
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindPath:
		return "path"
	default:
		return "string"
	}
}

// 🔧 SettingSpec describes one setting an operation understands
type SettingSpec struct {
	Key         string
	Kind        ValueKind
	Default     any
	Allowed     []string
	Min, Max    int // inclusive bounds for KindInt, ignored when both are zero
	Description string
}

// 📋 Spec is an entry of the registry
type Spec struct {
	Name        Name
	Label       string // used in "<Label> failed: ..." messages
	Description string
	Output      OutputKind
	Extension   string
	Settings    []SettingSpec
	Needs       Needs
	Capability  Capability
}

// Setting looks up the schema of key.
func (s *Spec) Setting(key string) (SettingSpec, bool) {
	for _, st := range s.Settings {
		if st.Key == key {
			return st, true
		}
	}
	return SettingSpec{}, false
}

// Resolve applies defaults and validates the settings this operation
// recognises. Keys it does not know are passed through untouched.
func (s *Spec) Resolve(in Settings) (Settings, error) {
	out := in.Clone()
	for _, st := range s.Settings {
		raw, present := out[st.Key]
		if !present || raw == nil || raw == "" {
			if st.Default == nil {
				delete(out, st.Key)
				continue
			}
			raw = st.Default
		}

		switch st.Kind {
		case KindInt:
			n, err := toInt(raw)
			if err != nil {
				return nil, fail(KindInvalidSettings, "Invalid value for setting %s: %v", st.Key, err)
			}
			if (st.Min != 0 || st.Max != 0) && (n < st.Min || n > st.Max) {
				return nil, fail(KindInvalidSettings, "Invalid value for setting %s: %d is outside %d-%d", st.Key, n, st.Min, st.Max)
			}
			if len(st.Allowed) > 0 && !contains(st.Allowed, strconv.Itoa(n)) {
				return nil, fail(KindInvalidSettings, "Invalid value for setting %s: %d (allowed: %s)", st.Key, n, strings.Join(st.Allowed, ", "))
			}
			out[st.Key] = n
		default:
			str := strings.TrimSpace(fmt.Sprint(raw))
			if st.Kind == KindString {
				str = strings.ToLower(str)
			}
			if len(st.Allowed) > 0 && !contains(st.Allowed, str) {
				return nil, fail(KindInvalidSettings, "Invalid value for setting %s: %q (allowed: %s)", st.Key, str, strings.Join(st.Allowed, ", "))
			}
			out[st.Key] = str
		}
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
