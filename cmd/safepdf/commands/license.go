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
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/cmd/safepdf/opts"
	"github.com/walteh/safepdf/pkg/atomicfile"
	"github.com/walteh/safepdf/pkg/license"
)

// NewLicenseCmd creates the license command group
func NewLicenseCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "license",
		Short: "Verify, issue and watch license files",
	}
	cmd.AddCommand(
		newLicenseVerifyCmd(ro),
		newLicenseIssueCmd(ro),
		newLicenseWatchCmd(ro),
	)
	return cmd
}

func newLicenseVerifyCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file.lic>",
		Short: "Check a license file against the configured public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, msg, lic := ro.Verifier.Status(cmd.Context(), args[0])
			if !ok {
				ro.Console.Error(msg)
				return errors.New(msg)
			}
			ro.Console.Success(msg)
			if lic.Unlocks(ro.Verifier.Now()) {
				ro.Console.Info("Pro features unlocked")
			}
			return nil
		},
	}
}

func newLicenseIssueCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		keyPath string
		typ     string
		expires string
		extra   []string
	)

	cmd := &cobra.Command{
		Use:   "issue <out.lic>",
		Short: "Sign a new license file with a private key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := args[0]

			if !strings.HasSuffix(strings.ToLower(out), license.Extension) {
				return errors.Errorf("license files must end in %s", license.Extension)
			}
			if !license.Type(typ).Known() {
				return errors.Errorf("unknown license type %q", typ)
			}
			if _, err := time.Parse(license.DateLayout, expires); err != nil {
				return errors.Errorf("--expires must be YYYY-MM-DD: %w", err)
			}

			key, err := license.LoadPrivateKey(keyPath)
			if err != nil {
				return err
			}

			var fields []license.Field
			for _, kv := range extra {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" || k == license.SignatureField || k == "type" || k == "expires" {
					return errors.Errorf("invalid --field %q", kv)
				}
				f, err := license.NewField(k, v)
				if err != nil {
					return err
				}
				fields = append(fields, f)
			}
			for _, kv := range [][2]string{{"type", typ}, {"expires", expires}} {
				f, err := license.NewField(kv[0], kv[1])
				if err != nil {
					return err
				}
				fields = append(fields, f)
			}

			data, err := license.Sign(fields, key)
			if err != nil {
				return err
			}
			if err := atomicfile.WriteBytes(ctx, out, data); err != nil {
				return err
			}

			ro.Console.Successf("Issued %s license valid until %s: %s", typ, expires, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "", "PEM encoded RSA private key")
	cmd.Flags().StringVar(&typ, "type", string(license.TypePro), "license type (pro, trial, basic)")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry date YYYY-MM-DD")
	cmd.Flags().StringArrayVar(&extra, "field", nil, "extra member as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("expires")
	return cmd
}

func newLicenseWatchCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file.lic>",
		Short: "Re-verify a license every time the file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ro.UserLogger.LogStateChange("Watching " + args[0] + " (Ctrl-C to stop)")
			return license.Watch(cmd.Context(), args[0], ro.Verifier, func(lic *license.License, err error) {
				if err != nil {
					ro.Console.Error(license.Message(err))
					return
				}
				ro.Console.Success(lic.Summary(ro.Verifier.Now()))
			})
		},
	}
}
