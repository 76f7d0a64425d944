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
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/cmd/safepdf/opts"
	"github.com/walteh/safepdf/pkg/operation"
)

// NewRunCmd creates the run command
func NewRunCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		sets   []string
		output string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "run <operation> <file>",
		Short: "Run one operation on a PDF",
		Long: `Run executes an operation on a single document.

Settings are passed with --set, for example:
  safepdf run compress report.pdf --set quality=high
  safepdf run split report.pdf --set method=range --set page_range=1-3,7
  safepdf run merge a.pdf --set second_file=b.pdf --set merge_order=beginning`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := parseSettings(sets)
			if err != nil {
				return err
			}

			comp, err := drive(cmd.Context(), ro, job{
				op:       operation.Name(args[0]),
				file:     args[1],
				settings: settings,
				output:   output,
				progress: !quiet,
			})
			if err != nil {
				return err
			}
			if !comp.Success {
				return errors.New(comp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "operation setting as key=value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or directory (default next to the input)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

func names() []string {
	var out []string
	for _, n := range operation.All() {
		out = append(out, string(n))
	}
	return out
}
