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

package operation

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Kind classifies why an operation did not succeed
type Kind int

const (
	KindFailed Kind = iota
	KindCancelled
	KindUnavailable
	KindInvalidSettings
	KindInvalidRange
	KindSecondFileMissing
	KindSecondFileNotFound
	KindNoReduction
	KindSizeIncreased
	KindNothingRecovered
	KindProRequired
)

func (k Kind) String() string {
	switch k {
	case KindCancelled:
		return "cancelled"
	case KindUnavailable:
		return "unavailable"
	case KindInvalidSettings:
		return "invalid_settings"
	case KindInvalidRange:
		return "invalid_range"
	case KindSecondFileMissing:
		return "second_file_missing"
	case KindSecondFileNotFound:
		return "second_file_not_found"
	case KindNoReduction:
		return "no_reduction"
	case KindSizeIncreased:
		return "size_increased"
	case KindNothingRecovered:
		return "nothing_recovered"
	case KindProRequired:
		return "pro_required"
	default:
		return "failed"
	}
}

// CancelledMessage is reported for every operation stopped on request.
const CancelledMessage = "Operation cancelled by user"

// ❌ Failure is the outcome of an operation that did not succeed. Error returns
// the message shown to the user.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// Is matches any Failure of the same kind, so the sentinels below work with
// errors.Is.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Kind == f.Kind
}

var (
	ErrCancelled          = &Failure{Kind: KindCancelled, Message: CancelledMessage}
	ErrUnavailable        = &Failure{Kind: KindUnavailable, Message: "feature unavailable"}
	ErrInvalidSettings    = &Failure{Kind: KindInvalidSettings, Message: "invalid settings"}
	ErrInvalidRange       = &Failure{Kind: KindInvalidRange, Message: "invalid page range"}
	ErrSecondFileMissing  = &Failure{Kind: KindSecondFileMissing, Message: "second file missing"}
	ErrSecondFileNotFound = &Failure{Kind: KindSecondFileNotFound, Message: "second file not found"}
	ErrNoReduction        = &Failure{Kind: KindNoReduction, Message: "no size reduction"}
	ErrSizeIncreased      = &Failure{Kind: KindSizeIncreased, Message: "size increased"}
	ErrNothingRecovered   = &Failure{Kind: KindNothingRecovered, Message: "nothing recovered"}
	ErrProRequired        = &Failure{Kind: KindProRequired, Message: "pro license required"}
)

func fail(kind Kind, format string, args ...any) error {
	return errors.WithStack(&Failure{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Cancelled builds the failure reported when the dispatch context is done.
func Cancelled() error {
	return errors.WithStack(&Failure{Kind: KindCancelled, Message: CancelledMessage})
}

// Unavailable reports a feature whose backend is missing.
func Unavailable(feature string, reason error) error {
	return errors.WithStack(&Failure{
		Kind:    KindUnavailable,
		Message: fmt.Sprintf("%s is unavailable: %v", feature, reason),
		Err:     reason,
	})
}

// Failed wraps a library or I/O error as "<label> failed: <cause>".
func Failed(label string, cause error) error {
	return errors.WithStack(&Failure{
		Kind:    KindFailed,
		Message: fmt.Sprintf("%s failed: %v", label, cause),
		Err:     cause,
	})
}

// AsFailure extracts the Failure carried by err, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Message returns the user facing text of err.
func Message(err error) string {
	if f, ok := AsFailure(err); ok {
		return f.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
