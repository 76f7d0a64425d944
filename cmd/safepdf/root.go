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

package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/cmd/safepdf/commands"
	"github.com/walteh/safepdf/cmd/safepdf/opts"
	"github.com/walteh/safepdf/pkg/config"
	"github.com/walteh/safepdf/pkg/controller"
	"github.com/walteh/safepdf/pkg/license"
	pkglog "github.com/walteh/safepdf/pkg/log"
	"github.com/walteh/safepdf/pkg/operation"
	"github.com/walteh/safepdf/pkg/pdf/backends"
)

type rootFlags struct {
	configFile string
	debug      bool
}

func newRootCmd() *cobra.Command {
	var (
		flags  rootFlags
		closer io.Closer
	)
	ro := &opts.RootOpts{Version: resolvedVersion()}

	cmd := &cobra.Command{
		Use:   "safepdf",
		Short: "Local PDF toolkit: compress, split, merge, rotate, repair and convert",
		Long: `safepdf runs PDF operations entirely on this machine.

Every operation reads one input document and writes its result next to it
unless an output path is given. Progress is shown while it runs and Ctrl-C
cancels it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx, c, err := newRootOpts(cmd.Context(), flags, ro)
			if err != nil {
				return err
			}
			closer = c
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closer == nil {
				return nil
			}
			return closer.Close()
		},
	}

	addRootFlags(cmd, &flags)

	cmd.AddCommand(
		newVersionCmd(),
		commands.NewRunCmd(ro),
		commands.NewBatchCmd(ro),
		commands.NewInfoCmd(ro),
		commands.NewOpsCmd(ro),
		commands.NewLicenseCmd(ro),
		commands.NewServeCmd(ro),
		commands.NewUpdateCmd(ro),
	)
	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path (default $XDG_CONFIG_HOME/safepdf/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
}

// newRootOpts loads the config, sets up logging and wires the controller.
func newRootOpts(ctx context.Context, flags rootFlags, ro *opts.RootOpts) (context.Context, io.Closer, error) {
	path := flags.configFile
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return ctx, nil, err
		}
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		return ctx, nil, errors.Errorf("loading config: %w", err)
	}

	level, consoleLevel := cfg.Log.Level, "warn"
	if flags.debug {
		level, consoleLevel = "debug", "debug"
	}
	logger, closer, err := pkglog.Setup(pkglog.Options{Level: level, ConsoleLevel: consoleLevel, Dir: cfg.Log.Dir})
	if err != nil {
		return ctx, nil, err
	}
	ctx = logger.WithContext(ctx)

	reg := operation.NewDefaultRegistry(backends.Default(ctx), operation.WithDefaults(cfg.RegistryDefaults()))

	verifier := license.NewVerifier(ctx, license.Options{
		PublicKeyPath:               cfg.License.PublicKeyPath,
		AllowUnsignedWhenKeyMissing: cfg.License.AllowUnsignedWhenKeyMissing,
	})

	ctrl := controller.New(controller.Options{
		Registry:                       reg,
		Verifier:                       verifier,
		DocumentExtensions:             cfg.Controller.DocumentExtensions,
		CancelPollAttempts:             cfg.Controller.CancelPollAttempts,
		CancelPollInterval:             cfg.Controller.PollInterval(),
		ResetSettingsOnOperationChange: cfg.Controller.ResetSettingsOnOperationChange,
	})

	if cfg.License.Path != "" {
		if _, err := os.Stat(cfg.License.Path); err == nil {
			if msg, err := ctrl.ActivateLicense(ctx, cfg.License.Path); err != nil {
				logger.Warn().Err(err).Msg("configured license rejected")
			} else {
				logger.Debug().Str("license", msg).Msg("license activated")
			}
		}
	}

	ro.Config = cfg
	ro.Controller = ctrl
	ro.Verifier = verifier
	ro.Console = pkglog.New(os.Stdout, logger)
	ro.UserLogger = opts.NewUserLogger(ctx)
	return ctx, closer, nil
}
