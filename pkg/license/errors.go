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

package license

import (
	"gitlab.com/tozd/go/errors"
)

var (
	ErrNotFound          = errors.Base("license not found")
	ErrBadExtension      = errors.Base("bad license extension")
	ErrMalformedPayload  = errors.Base("malformed license payload")
	ErrTamperedSignature = errors.Base("license signature mismatch")
	ErrMissingExpiry     = errors.Base("license expiry missing")
	ErrBadExpiryFormat   = errors.Base("license expiry format invalid")
	ErrExpired           = errors.Base("license expired")
	ErrUnknownType       = errors.Base("unknown license type")
	ErrKeyUnavailable    = errors.Base("license public key unavailable")
)

// ❌ Rejection is returned for every license that fails verification. Its
// message is meant for end users; errors.Is matches the Kind sentinel.
type Rejection struct {
	Kind    error
	Message string
	Cause   error
}

func (r *Rejection) Error() string { return r.Message }

func (r *Rejection) Unwrap() []error {
	if r.Cause == nil {
		return []error{r.Kind}
	}
	return []error{r.Kind, r.Cause}
}

func reject(kind error, message string) error {
	return errors.WithStack(&Rejection{Kind: kind, Message: message})
}

func rejectCause(kind error, message string, cause error) error {
	return errors.WithStack(&Rejection{Kind: kind, Message: message, Cause: cause})
}
