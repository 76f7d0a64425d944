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

	"github.com/spf13/cobra"

	"github.com/walteh/safepdf/cmd/safepdf/opts"
	"github.com/walteh/safepdf/pkg/operation"
)

// NewInfoCmd creates the info command
func NewInfoCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print document metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := ro.Controller.SelectFile(ctx, args[0]); err != nil {
				return err
			}
			info, err := ro.Controller.DocumentInfo(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), operation.FormatInfo(info))
			return nil
		},
	}
}
