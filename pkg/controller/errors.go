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
	"gitlab.com/tozd/go/errors"
)

var (
	ErrNotFound         = errors.Base("file does not exist")
	ErrWrongExtension   = errors.Base("wrong file extension")
	ErrUnknownOperation = errors.Base("unknown operation")
	ErrMissingSelection = errors.Base("missing selection")
	ErrAlreadyRunning   = errors.Base("operation already running")
	ErrUnknownStage     = errors.Base("unknown workflow stage")
	ErrNoLicense        = errors.Base("no license")
)

// 🚫 Refusal is a synchronous rejection of a request. Error returns the
// message shown to the user; errors.Is matches the kind sentinel.
type Refusal struct {
	Kind    error
	Message string
}

func (r *Refusal) Error() string { return r.Message }

func (r *Refusal) Unwrap() error { return r.Kind }

func refuse(kind error, message string) error {
	return errors.WithStack(&Refusal{Kind: kind, Message: message})
}

// Message returns the user facing text of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var r *Refusal
	if errors.As(err, &r) {
		return r.Message
	}
	return err.Error()
}
