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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/walteh/safepdf/cmd/safepdf/opts"
	"github.com/walteh/safepdf/pkg/operation"
)

// NewOpsCmd creates the ops command
func NewOpsCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List operations, their availability and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := ro.Controller.Registry()
			rows := [][]string{{"Operation", "Output", "Available", "Settings"}}
			for _, name := range reg.Names() {
				spec, _ := reg.Lookup(name)
				available, why := reg.Available(name)
				status := "yes"
				if !available {
					status = "no: " + why
				}
				rows = append(rows, []string{string(name), spec.Output.String(), status, describeSettings(spec.Settings)})
			}
			return ro.UserLogger.LogTable(rows)
		},
	}
}

func describeSettings(settings []operation.SettingSpec) string {
	var parts []string
	for _, s := range settings {
		desc := s.Key
		switch {
		case len(s.Allowed) > 0:
			desc += "=" + strings.Join(s.Allowed, "|")
		case s.Min != 0 || s.Max != 0:
			desc += fmt.Sprintf("=%d..%d", s.Min, s.Max)
		default:
			desc += "=<" + s.Kind.String() + ">"
		}
		if s.Default != nil {
			desc += fmt.Sprintf(" (default %v)", s.Default)
		}
		parts = append(parts, desc)
	}
	return strings.Join(parts, "\n")
}
