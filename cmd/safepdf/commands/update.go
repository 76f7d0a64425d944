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
	"os"

	"github.com/spf13/cobra"

	"github.com/walteh/safepdf/cmd/safepdf/opts"
	"github.com/walteh/safepdf/pkg/update"
)

// NewUpdateCmd creates the update command
func NewUpdateCmd(ro *opts.RootOpts) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check GitHub releases for a newer version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := update.NewGitHubClient(update.ClientOptions{Token: token})
			if err != nil {
				return err
			}

			current := ro.Config.Update.CurrentVersion
			if current == "" {
				current = ro.Version
			}
			checker := &update.Checker{
				Client:         client,
				Owner:          ro.Config.Update.Owner,
				Repo:           ro.Config.Update.Repo,
				CurrentVersion: current,
			}

			info, err := checker.Check(cmd.Context())
			if err != nil {
				return err
			}
			if !info.Available {
				ro.Console.Successf("safepdf %s is up to date (latest %s)", current, info.LatestVersion)
				return nil
			}

			ro.Console.Warningf("Version %s is available (running %s)", info.LatestVersion, current)
			ro.Console.Infof("Download:  %s", info.DownloadURL)
			if info.SignatureURL != "" {
				ro.Console.Infof("Signature: %s", info.SignatureURL)
			}
			ro.Console.Infof("Release:   %s", info.ReleaseURL)
			if info.Changelog != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", info.Changelog)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", os.Getenv("GITHUB_TOKEN"), "GitHub token, raises the API rate limit")
	return cmd
}
