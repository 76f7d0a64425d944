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

// 🏷️ Name identifies one of the fixed operations
type Name string

const (
	Compress    Name = "compress"
	Split       Name = "split"
	Merge       Name = "merge"
	ToJPG       Name = "to_jpg"
	Rotate      Name = "rotate"
	Repair      Name = "repair"
	ToWord      Name = "to_word"
	ToTXT       Name = "to_txt"
	ExtractInfo Name = "extract_info"
)

var allNames = []Name{Compress, Split, Merge, ToJPG, Rotate, Repair, ToWord, ToTXT, ExtractInfo}

// All returns every operation in menu order.
func All() []Name {
	return append([]Name(nil), allNames...)
}

// Valid reports whether n is one of the fixed operations.
func (n Name) Valid() bool {
	for _, v := range allNames {
		if v == n {
			return true
		}
	}
	return false
}

// MultiFile reports whether the operation writes a directory of files.
func (n Name) MultiFile() bool {
	return n == Split || n == ToJPG
}

// Setting keys shared between the registry, the controller and the CLI.
const (
	SettingQuality    = "quality"
	SettingAngle      = "angle"
	SettingDPI        = "dpi"
	SettingMethod     = "method"
	SettingPageRange  = "page_range"
	SettingSecondFile = "second_file"
	SettingMergeOrder = "merge_order"
)

const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
	QualityUltra  = "ultra"

	MethodPages = "pages"
	MethodRange = "range"

	OrderBeginning = "beginning"
	OrderEnd       = "end"
)
