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
	"path/filepath"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/cmd/safepdf/opts"
	"github.com/walteh/safepdf/pkg/controller"
	"github.com/walteh/safepdf/pkg/operation"
	"github.com/walteh/safepdf/pkg/paths"
)

// NewBatchCmd creates the batch command
func NewBatchCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		sets     []string
		failFast bool
	)

	cmd := &cobra.Command{
		Use:   "batch <operation> <glob>",
		Short: "Run one operation on every PDF matching a glob",
		Long: `Batch expands a glob (** matches any depth) and runs the operation on
each matching document in turn. Outputs go next to each input.

  safepdf batch compress 'scans/**/*.pdf' --set quality=low`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			op := operation.Name(args[0])
			if !op.Valid() {
				return errors.Errorf("unknown operation %q", op)
			}
			settings, err := parseSettings(sets)
			if err != nil {
				return err
			}

			files, err := paths.Expand(ctx, args[1], ro.Config.Controller.DocumentExtensions)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				ro.Console.Warningf("No documents match %s", args[1])
				return nil
			}

			ro.Console.Header(fmt.Sprintf("%s %d documents", op, len(files)))

			rows := [][]string{{"File", "Result", "Message"}}
			failed := 0
			for _, file := range files {
				if ctx.Err() != nil {
					rows = append(rows, []string{filepath.Base(file), "skipped", operation.CancelledMessage})
					continue
				}

				comp, err := drive(ctx, ro, job{op: op, file: file, settings: settings.Clone()})
				switch {
				case err != nil:
					failed++
					rows = append(rows, []string{filepath.Base(file), "refused", controller.Message(err)})
				case !comp.Success:
					failed++
					rows = append(rows, []string{filepath.Base(file), "failed", comp.Message})
				default:
					rows = append(rows, []string{filepath.Base(file), "ok", comp.Message})
				}
				ro.Console.LogNewline()

				if failed > 0 && failFast {
					break
				}
			}

			if err := ro.UserLogger.LogTable(rows); err != nil {
				return err
			}
			if failed > 0 {
				ro.Console.Errorf("%d of %d documents failed", failed, len(files))
				return errors.Errorf("%d of %d documents failed", failed, len(files))
			}
			ro.Console.Successf("Processed %d documents", len(files))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "operation setting as key=value (repeatable)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first failure")
	return cmd
}
