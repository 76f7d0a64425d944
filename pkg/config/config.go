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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/safepdf/pkg/operation"
)

const (
	DefaultUpdateOwner = "mcagriaksoy"
	DefaultUpdateRepo  = "SafePDF"
	DefaultLogLevel    = "info"
	DefaultDPI         = 200
	DefaultAngle       = 90
	DefaultPollCount   = 20
	DefaultPollEvery   = 50 * time.Millisecond
)

// 🎚️ Defaults seed the per-operation settings
type Defaults struct {
	Quality     string `json:"quality,omitempty" yaml:"quality,omitempty" hcl:"quality,optional"`
	Angle       int    `json:"angle,omitempty" yaml:"angle,omitempty" hcl:"angle,optional"`
	DPI         int    `json:"dpi,omitempty" yaml:"dpi,omitempty" hcl:"dpi,optional"`
	SplitMethod string `json:"split_method,omitempty" yaml:"split_method,omitempty" hcl:"split_method,optional"`
	MergeOrder  string `json:"merge_order,omitempty" yaml:"merge_order,omitempty" hcl:"merge_order,optional"`
}

// 🎛️ Controller tunes the operation controller
type Controller struct {
	ResetSettingsOnOperationChange bool     `json:"reset_settings_on_operation_change,omitempty" yaml:"reset_settings_on_operation_change,omitempty" hcl:"reset_settings_on_operation_change,optional"`
	CancelPollAttempts             int      `json:"cancel_poll_attempts,omitempty" yaml:"cancel_poll_attempts,omitempty" hcl:"cancel_poll_attempts,optional"`
	CancelPollInterval             string   `json:"cancel_poll_interval,omitempty" yaml:"cancel_poll_interval,omitempty" hcl:"cancel_poll_interval,optional"`
	DocumentExtensions             []string `json:"document_extensions,omitempty" yaml:"document_extensions,omitempty" hcl:"document_extensions,optional"`

	pollInterval time.Duration
}

// PollInterval is CancelPollInterval parsed by Validate.
func (c Controller) PollInterval() time.Duration { return c.pollInterval }

// 🔑 License locates the license file and the key that signs it
type License struct {
	Path                        string `json:"path,omitempty" yaml:"path,omitempty" hcl:"path,optional"`
	PublicKeyPath               string `json:"public_key_path,omitempty" yaml:"public_key_path,omitempty" hcl:"public_key_path,optional"`
	AllowUnsignedWhenKeyMissing bool   `json:"allow_unsigned_when_key_missing,omitempty" yaml:"allow_unsigned_when_key_missing,omitempty" hcl:"allow_unsigned_when_key_missing,optional"`
}

// Update names the GitHub repository whose releases are checked.
type Update struct {
	Owner          string `json:"owner,omitempty" yaml:"owner,omitempty" hcl:"owner,optional"`
	Repo           string `json:"repo,omitempty" yaml:"repo,omitempty" hcl:"repo,optional"`
	CurrentVersion string `json:"current_version,omitempty" yaml:"current_version,omitempty" hcl:"current_version,optional"`
}

type Log struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty" hcl:"level,optional"`
	Dir   string `json:"dir,omitempty" yaml:"dir,omitempty" hcl:"dir,optional"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Defaults   Defaults   `json:"defaults" yaml:"defaults"`
	Controller Controller `json:"controller" yaml:"controller"`
	License    License    `json:"license" yaml:"license"`
	Update     Update     `json:"update" yaml:"update"`
	Log        Log        `json:"log" yaml:"log"`

	location string
}

// 🏭 Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		// the zero config always validates
		panic(err)
	}
	return cfg
}

// Location is the file the config was loaded from, empty for defaults.
func (cfg *Config) Location() string { return cfg.location }

// 🔍 Validate fills unset values with defaults, normalises the rest and rejects
// values no operation accepts
func (cfg *Config) Validate() error {
	d := &cfg.Defaults
	d.Quality = orDefault(strings.ToLower(strings.TrimSpace(d.Quality)), operation.QualityMedium)
	if !slices.Contains([]string{operation.QualityLow, operation.QualityMedium, operation.QualityHigh, operation.QualityUltra}, d.Quality) {
		return errors.Errorf("defaults.quality: unknown quality %q", d.Quality)
	}
	if d.Angle == 0 {
		d.Angle = DefaultAngle
	}
	if d.Angle != 90 && d.Angle != 180 && d.Angle != 270 {
		return errors.Errorf("defaults.angle: %d is not one of 90, 180, 270", d.Angle)
	}
	if d.DPI == 0 {
		d.DPI = DefaultDPI
	}
	if d.DPI < operation.MinDPI || d.DPI > operation.MaxDPI {
		return errors.Errorf("defaults.dpi: %d is outside %d-%d", d.DPI, operation.MinDPI, operation.MaxDPI)
	}
	d.SplitMethod = orDefault(strings.ToLower(strings.TrimSpace(d.SplitMethod)), operation.MethodPages)
	if d.SplitMethod != operation.MethodPages && d.SplitMethod != operation.MethodRange {
		return errors.Errorf("defaults.split_method: unknown method %q", d.SplitMethod)
	}
	d.MergeOrder = orDefault(strings.ToLower(strings.TrimSpace(d.MergeOrder)), operation.OrderEnd)
	if d.MergeOrder != operation.OrderBeginning && d.MergeOrder != operation.OrderEnd {
		return errors.Errorf("defaults.merge_order: unknown order %q", d.MergeOrder)
	}

	c := &cfg.Controller
	if c.CancelPollAttempts == 0 {
		c.CancelPollAttempts = DefaultPollCount
	}
	if c.CancelPollAttempts < 0 {
		return errors.Errorf("controller.cancel_poll_attempts: must be positive, got %d", c.CancelPollAttempts)
	}
	c.pollInterval = DefaultPollEvery
	if c.CancelPollInterval != "" {
		every, err := time.ParseDuration(c.CancelPollInterval)
		if err != nil {
			return errors.Errorf("controller.cancel_poll_interval: %w", err)
		}
		if every <= 0 {
			return errors.Errorf("controller.cancel_poll_interval: must be positive, got %s", every)
		}
		c.pollInterval = every
	}
	c.CancelPollInterval = c.pollInterval.String()
	if len(c.DocumentExtensions) == 0 {
		c.DocumentExtensions = []string{".pdf"}
	}
	for i, ext := range c.DocumentExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			return errors.Errorf("controller.document_extensions: empty extension at index %d", i)
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.DocumentExtensions[i] = ext
	}

	cfg.License.Path = expandHome(cfg.License.Path)
	cfg.License.PublicKeyPath = expandHome(cfg.License.PublicKeyPath)

	cfg.Update.Owner = orDefault(cfg.Update.Owner, DefaultUpdateOwner)
	cfg.Update.Repo = orDefault(cfg.Update.Repo, DefaultUpdateRepo)

	cfg.Log.Level = orDefault(strings.ToLower(strings.TrimSpace(cfg.Log.Level)), DefaultLogLevel)
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return errors.Errorf("log.level: %w", err)
	}
	cfg.Log.Dir = expandHome(orDefault(cfg.Log.Dir, filepath.Join("~", ".safepdf")))

	return nil
}

// RegistryDefaults maps the defaults section onto operation settings.
func (cfg *Config) RegistryDefaults() operation.Settings {
	return operation.Settings{
		operation.SettingQuality:    cfg.Defaults.Quality,
		operation.SettingAngle:      cfg.Defaults.Angle,
		operation.SettingDPI:        cfg.Defaults.DPI,
		operation.SettingMethod:     cfg.Defaults.SplitMethod,
		operation.SettingMergeOrder: cfg.Defaults.MergeOrder,
	}
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	src := cfg.location
	if src == "" {
		src = "defaults"
	}
	return fmt.Sprintf("%s: quality=%s angle=%d dpi=%d log=%s@%s", src, cfg.Defaults.Quality, cfg.Defaults.Angle, cfg.Defaults.DPI, cfg.Log.Level, cfg.Log.Dir)
}

// DefaultPath is $XDG_CONFIG_HOME/safepdf/config.yaml, falling back to
// ~/.config/safepdf/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "safepdf", "config.yaml"), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
