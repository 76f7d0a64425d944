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

// Package license validates signed license files for the pro tier.
//
// A license is a JSON object with at least the members signature, expires and
// type. The signature is a base64 RSA PKCS#1 v1.5 signature over the SHA-256 of
// the canonical payload (see CanonicalPayload).
//
// Verification walks the artifact through a fixed sequence of checks:
//
//	read → parse → signature → expiry → type → valid
//
// and stops at the first failing check with a *Rejection describing it.
package license

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// Extension is the only accepted license file extension.
	Extension = ".lic"
	// DateLayout is the format of the expires member.
	DateLayout = "2006-01-02"
)

// 🏷️ Type is the tier a license unlocks
type Type string

const (
	TypePro   Type = "pro"
	TypeTrial Type = "trial"
	TypeBasic Type = "basic"
)

// Known reports whether t is a recognised tier.
func (t Type) Known() bool {
	switch t {
	case TypePro, TypeTrial, TypeBasic:
		return true
	}
	return false
}

// 📄 License is a parsed and verified license artifact
type License struct {
	Path    string
	Type    Type
	Expires time.Time // midnight UTC of the expiry date
	Fields  []Field   // every member in document order, signature included

	// SignatureVerified is false only when verification was skipped because no
	// public key was available and unsigned acceptance is allowed.
	SignatureVerified bool
}

// Get returns the decoded value of a top level member.
func (l *License) Get(key string) (any, bool) {
	if l == nil {
		return nil, false
	}
	for _, f := range l.Fields {
		if f.Key == key {
			var v any
			if err := json.Unmarshal(f.Value, &v); err != nil {
				return nil, false
			}
			return v, true
		}
	}
	return nil, false
}

// Text returns a top level member as a string when it is one.
func (l *License) Text(key string) string {
	v, ok := l.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// 📆 RemainingDays returns the whole days left until expiry, never negative.
func (l *License) RemainingDays(now time.Time) int {
	if l == nil || l.Expires.IsZero() {
		return 0
	}
	d := daysBetween(civilDate(now), l.Expires)
	if d < 0 {
		return 0
	}
	return d
}

// ⌛ IsExpired reports whether now is strictly after the expiry date.
func (l *License) IsExpired(now time.Time) bool {
	if l == nil || l.Expires.IsZero() {
		return false
	}
	return civilDate(now).After(l.Expires)
}

// Summary is the confirmation shown after a successful verification.
func (l *License) Summary(now time.Time) string {
	msg := fmt.Sprintf("License valid - Type: %s, Remaining days: %d", l.Type, l.RemainingDays(now))
	if !l.SignatureVerified {
		msg += " (signature not verified)"
	}
	return msg
}

// Unlocks reports whether the license tier enables premium features.
func (l *License) Unlocks(now time.Time) bool {
	if l == nil || l.IsExpired(now) {
		return false
	}
	return l.Type == TypePro || l.Type == TypeTrial
}

// ⚙️ Options configure a Verifier
type Options struct {
	// PublicKeyPath points to a PEM encoded RSA public key.
	PublicKeyPath string
	// PublicKeyPEM takes precedence over PublicKeyPath when set.
	PublicKeyPEM []byte
	// AllowUnsignedWhenKeyMissing accepts licenses without checking their
	// signature when no public key could be loaded.
	AllowUnsignedWhenKeyMissing bool
	// Now is used for expiry checks, time.Now when nil.
	Now func() time.Time
}

// 🔐 Verifier validates license files against one public key
type Verifier struct {
	key           *rsa.PublicKey
	keyErr        error
	allowUnsigned bool
	now           func() time.Time
}

// 🏭 NewVerifier loads the public key described by opts.
//
// A key that cannot be loaded does not fail construction; it is reported by
// KeyError and handled at verification time.
func NewVerifier(ctx context.Context, opts Options) *Verifier {
	v := &Verifier{
		allowUnsigned: opts.AllowUnsignedWhenKeyMissing,
		now:           opts.Now,
	}
	if v.now == nil {
		v.now = time.Now
	}

	logger := zerolog.Ctx(ctx)

	pemData := opts.PublicKeyPEM
	if len(pemData) == 0 {
		if opts.PublicKeyPath == "" {
			v.keyErr = errors.New("public key path not configured")
			logger.Warn().Msg("public key path not configured, license signatures cannot be verified")
			return v
		}
		data, err := os.ReadFile(opts.PublicKeyPath)
		if err != nil {
			v.keyErr = errors.Errorf("reading public key: %w", err)
			logger.Warn().Err(err).Str("path", opts.PublicKeyPath).Msg("public key not loaded")
			return v
		}
		pemData = data
	}

	key, err := ParsePublicKey(pemData)
	if err != nil {
		v.keyErr = err
		logger.Warn().Err(err).Msg("public key not loaded")
		return v
	}
	v.key = key
	logger.Debug().Int("bits", key.N.BitLen()).Msg("public key loaded")
	return v
}

// KeyLoaded reports whether signatures can be checked.
func (v *Verifier) KeyLoaded() bool { return v.key != nil }

// KeyError explains why no key is loaded.
func (v *Verifier) KeyError() error { return v.keyErr }

// Now returns the verifier's notion of the current time.
func (v *Verifier) Now() time.Time { return v.now() }

// ✅ Verify runs every check on the license at path.
func (v *Verifier) Verify(ctx context.Context, path string) (*License, error) {
	logger := zerolog.Ctx(ctx).With().Str("license", path).Logger()

	if path == "" {
		return nil, reject(ErrNotFound, "License file path not provided.")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, rejectCause(ErrNotFound, fmt.Sprintf("License file not found: %s", path), err)
	}
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return nil, reject(ErrBadExtension, "Invalid license file extension. Expected "+Extension)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rejectCause(ErrNotFound, fmt.Sprintf("Error reading license: %v", err), err)
	}

	lic, err := v.verifyBytes(ctx, data)
	if err != nil {
		logger.Debug().Err(err).Msg("license rejected")
		return nil, err
	}
	lic.Path = path

	logger.Info().
		Str("type", string(lic.Type)).
		Int("remaining_days", lic.RemainingDays(v.now())).
		Bool("signature_verified", lic.SignatureVerified).
		Msg("license verified")
	return lic, nil
}

// VerifyBytes runs the content checks on an in memory license document.
func (v *Verifier) VerifyBytes(ctx context.Context, data []byte) (*License, error) {
	return v.verifyBytes(ctx, data)
}

func (v *Verifier) verifyBytes(ctx context.Context, data []byte) (*License, error) {
	fields, err := parseFields(data)
	if err != nil {
		return nil, rejectCause(ErrMalformedPayload, "License file is not valid JSON.", err)
	}

	lic := &License{Fields: fields}

	sig := lic.Text(SignatureField)
	if sig == "" {
		return nil, reject(ErrMalformedPayload, "License file missing signature.")
	}

	if err := v.checkSignature(ctx, fields, sig); err != nil {
		return nil, err
	}
	lic.SignatureVerified = v.key != nil

	rawExpires, ok := lic.Get("expires")
	if !ok {
		return nil, reject(ErrMissingExpiry, "License file missing expiry date.")
	}
	expiresStr, _ := rawExpires.(string)
	expires, err := time.Parse(DateLayout, expiresStr)
	if err != nil {
		return nil, rejectCause(ErrBadExpiryFormat, "License expiry date format invalid (expected YYYY-MM-DD).", err)
	}
	lic.Expires = expires

	now := v.now()
	if lic.IsExpired(now) {
		days := daysBetween(lic.Expires, civilDate(now))
		return nil, reject(ErrExpired, fmt.Sprintf("License has expired %d days ago.", days))
	}

	lic.Type = TypePro
	if rawType, ok := lic.Get("type"); ok {
		s, isString := rawType.(string)
		if !isString || !Type(s).Known() {
			return nil, reject(ErrUnknownType, fmt.Sprintf("Unknown license type: %v", rawType))
		}
		lic.Type = Type(s)
	}

	return lic, nil
}

func (v *Verifier) checkSignature(ctx context.Context, fields []Field, sig string) error {
	if v.key == nil {
		if !v.allowUnsigned {
			return rejectCause(ErrKeyUnavailable,
				"License signature cannot be verified: no public key is available.", v.keyErr)
		}
		zerolog.Ctx(ctx).Warn().Msg("public key not available, signature verification skipped (reduced security)")
		return nil
	}

	payload, err := CanonicalPayload(fields)
	if err != nil {
		return rejectCause(ErrMalformedPayload, "License file is not valid JSON.", err)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(sig))
	if err != nil {
		return rejectCause(ErrTamperedSignature, "License signature verification failed. License may be tampered.", err)
	}

	digest := sha256.Sum256(payload)
	if err := rsa.VerifyPKCS1v15(v.key, crypto.SHA256, digest[:], raw); err != nil {
		return rejectCause(ErrTamperedSignature, "License signature verification failed. License may be tampered.", err)
	}

	zerolog.Ctx(ctx).Debug().Msg("signature verification successful")
	return nil
}

// 📋 Status is Verify flattened into (ok, message, license) for presentation
// layers.
func (v *Verifier) Status(ctx context.Context, path string) (bool, string, *License) {
	lic, err := v.Verify(ctx, path)
	if err != nil {
		return false, Message(err), nil
	}
	return true, lic.Summary(v.now()), lic
}

// Message extracts the user facing text of a verification error.
func Message(err error) string {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Message
	}
	return fmt.Sprintf("Error verifying license: %v", err)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
