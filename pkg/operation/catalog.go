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
	"context"

	"github.com/walteh/safepdf/pkg/pdf"
)

// MinDPI and MaxDPI bound the to_jpg resolution.
const (
	MinDPI = 36
	MaxDPI = 600
)

func defaultSpecs(b pdf.Backend) []Spec {
	return []Spec{
		{
			Name:        Compress,
			Label:       "Compression",
			Description: "Reduce file size by re-encoding page content",
			Output:      OutputFile,
			Extension:   ".pdf",
			Needs:       NeedsStructure,
			Settings: []SettingSpec{
				{Key: SettingQuality, Kind: KindString, Default: QualityMedium,
					Allowed:     []string{QualityLow, QualityMedium, QualityHigh, QualityUltra},
					Description: "compression level; ultra needs a pro license"},
			},
			Capability: &compressor{backend: b},
		},
		{
			Name:        Split,
			Label:       "Split",
			Description: "Write every page, or every page range, to its own file",
			Output:      OutputDir,
			Extension:   ".pdf",
			Needs:       NeedsStructure,
			Settings: []SettingSpec{
				{Key: SettingMethod, Kind: KindString, Default: MethodPages,
					Allowed: []string{MethodPages, MethodRange}, Description: "split per page or per range"},
				{Key: SettingPageRange, Kind: KindString,
					Description: `ranges such as "1-3,5" when method is range`},
			},
			Capability: &splitter{backend: b},
		},
		{
			Name:        Merge,
			Label:       "Merge",
			Description: "Combine the selected file with a second PDF",
			Output:      OutputFile,
			Extension:   ".pdf",
			Needs:       NeedsStructure,
			Settings: []SettingSpec{
				{Key: SettingSecondFile, Kind: KindPath, Description: "the PDF to merge with"},
				{Key: SettingMergeOrder, Kind: KindString, Default: OrderEnd,
					Allowed:     []string{OrderBeginning, OrderEnd},
					Description: "where the second file's pages go"},
			},
			Capability: &merger{backend: b},
		},
		{
			Name:        ToJPG,
			Label:       "PDF to JPG conversion",
			Description: "Render every page as a JPEG image",
			Output:      OutputDir,
			Extension:   ".jpg",
			Needs:       NeedsRaster,
			Settings: []SettingSpec{
				{Key: SettingDPI, Kind: KindInt, Default: 200, Min: MinDPI, Max: MaxDPI,
					Description: "render resolution"},
			},
			Capability: &jpgConverter{backend: b},
		},
		{
			Name:        Rotate,
			Label:       "Rotation",
			Description: "Rotate every page clockwise",
			Output:      OutputFile,
			Extension:   ".pdf",
			Needs:       NeedsStructure,
			Settings: []SettingSpec{
				{Key: SettingAngle, Kind: KindInt, Default: 90,
					Allowed: []string{"90", "180", "270"}, Description: "degrees clockwise"},
			},
			Capability: &rotator{backend: b},
		},
		{
			Name:        Repair,
			Label:       "Repair",
			Description: "Rebuild the document from every page that can still be read",
			Output:      OutputFile,
			Extension:   ".pdf",
			Needs:       NeedsStructure,
			Capability:  &repairer{backend: b},
		},
		{
			Name:        ToWord,
			Label:       "PDF to Word conversion",
			Description: "Export the text of every page to a .docx document",
			Output:      OutputFile,
			Extension:   ".docx",
			Needs:       NeedsRaster,
			Capability:  &wordConverter{backend: b},
		},
		{
			Name:        ToTXT,
			Label:       "Text extraction",
			Description: "Export the text of every page to a .txt file",
			Output:      OutputFile,
			Extension:   ".txt",
			Needs:       NeedsRaster,
			Capability:  &textExtractor{backend: b},
		},
		{
			Name:        ExtractInfo,
			Label:       "Hidden info extraction",
			Description: "Dump document metadata to a text file",
			Output:      OutputFile,
			Extension:   ".txt",
			Needs:       NeedsStructure,
			Capability:  &infoExtractor{backend: b},
		},
	}
}

// checkpoint is called once per unit of work.
func checkpoint(ctx context.Context) error {
	if ctx.Err() != nil {
		return Cancelled()
	}
	return nil
}
