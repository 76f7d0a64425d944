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

package controller

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/walteh/safepdf/pkg/license"
)

// 🔑 ActivateLicense verifies the license at path and, when valid, unlocks the
// pro settings. A rejected license deactivates any previous one.
func (c *Controller) ActivateLicense(ctx context.Context, path string) (string, error) {
	if c.opts.Verifier == nil {
		return "", refuse(ErrNoLicense, "License verification is not configured.")
	}

	lic, err := c.opts.Verifier.Verify(ctx, path)

	c.mu.Lock()
	c.lic = lic
	c.mu.Unlock()

	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("license rejected")
		return "", err
	}

	zerolog.Ctx(ctx).Info().Str("type", string(lic.Type)).Bool("signature_verified", lic.SignatureVerified).Msg("license activated")
	return lic.Summary(c.opts.Verifier.Now()), nil
}

// CheckLicense verifies an in memory license document without activating it.
func (c *Controller) CheckLicense(ctx context.Context, data []byte) (string, *license.License, error) {
	if c.opts.Verifier == nil {
		return "", nil, refuse(ErrNoLicense, "License verification is not configured.")
	}
	lic, err := c.opts.Verifier.VerifyBytes(ctx, data)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("license check failed")
		return "", nil, err
	}
	return lic.Summary(c.opts.Verifier.Now()), lic, nil
}

// DeactivateLicense drops the active license.
func (c *Controller) DeactivateLicense(ctx context.Context) {
	c.mu.Lock()
	c.lic = nil
	c.mu.Unlock()
	zerolog.Ctx(ctx).Info().Msg("license deactivated")
}

// ProEnabled reports whether an unexpired pro or trial license is active.
func (c *Controller) ProEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proLocked()
}

// License returns the active license, nil when none.
func (c *Controller) License() *license.License {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lic
}

func (c *Controller) proLocked() bool {
	if c.lic == nil || c.opts.Verifier == nil {
		return false
	}
	return c.lic.Unlocks(c.opts.Verifier.Now())
}
