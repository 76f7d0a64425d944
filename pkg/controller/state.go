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
	"fmt"
	"strconv"

	"github.com/walteh/safepdf/pkg/operation"
)

// 🪜 Stage is a step of the wizard
type Stage int

const (
	StageSelectFile Stage = iota
	StageOperation
	StageSettings
	StageExecute
	StageResults
)

var stageNames = map[Stage]string{
	StageSelectFile: "select_file",
	StageOperation:  "operation",
	StageSettings:   "settings",
	StageExecute:    "execute",
	StageResults:    "results",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// ParseStage accepts a stage name or its number.
func ParseStage(v string) (Stage, bool) {
	for s, n := range stageNames {
		if n == v {
			return s, true
		}
	}
	if n, err := strconv.Atoi(v); err == nil && Stage(n).Valid() {
		return Stage(n), true
	}
	return 0, false
}

// session is the mutable selection state; only the controller touches it.
type session struct {
	file      string
	operation operation.Name
	settings  operation.Settings
	stage     Stage
	running   bool
	output    string
}

func newSession() session {
	return session{settings: operation.Settings{}}
}

// 📸 Summary is a copy of the session state for presentation layers
type Summary struct {
	SelectedFile      string             `json:"selected_file"`
	SelectedOperation operation.Name     `json:"selected_operation"`
	Settings          operation.Settings `json:"settings"`
	CurrentTab        Stage              `json:"current_tab"`
	OperationRunning  bool               `json:"operation_running"`
	HasOutput         bool               `json:"has_output"`
	OutputLocation    string             `json:"output_location"`
	TaskID            string             `json:"task_id,omitempty"`
	Progress          int                `json:"progress"`
	Pro               bool               `json:"pro"`
}
