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
	"math"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ⚙️ Settings holds operation specific values keyed by setting name.
//
// Values arrive from several surfaces (CLI flags, JSON bodies, config files) so
// the getters accept Go integers, JSON float64 and numeric strings alike.
type Settings map[string]any

// Clone returns a shallow copy.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge copies every key of other into s, last write wins.
func (s Settings) Merge(other Settings) Settings {
	if s == nil {
		s = Settings{}
	}
	for k, v := range other {
		s[k] = v
	}
	return s
}

// String returns the value of key rendered as a string, "" when absent.
func (s Settings) String(key string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// Int returns the value of key as an int, 0 when absent or not numeric.
func (s Settings) Int(key string) int {
	v, ok := s[key]
	if !ok {
		return 0
	}
	n, err := toInt(v)
	if err != nil {
		return 0
	}
	return n
}

// Bool returns the value of key as a bool, false when absent.
func (s Settings) Bool(key string) bool {
	switch v := s[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	}
	return false
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Errorf("%q is not a number", n)
		}
		return floatToInt(f)
	case fmt.Stringer:
		return toInt(n.String())
	}
	return 0, errors.Errorf("%v (%T) is not a number", v, v)
}

func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errors.Errorf("%v is not a whole number", f)
	}
	return int(f), nil
}
