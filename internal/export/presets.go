/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocatalog/internal/catalog"
	"gocatalog/internal/storage"
)

// PresetName represents a named publish preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
	PresetAll   PresetName = "all"
)

// PriceListFileName is the default PDF name inside BatchOptions.OutDir.
const PriceListFileName = "prix.pdf"

// BatchOptions controls a publish across several formats.
//
// Path semantics:
//   - js always goes to the Publisher's target.
//   - pdf is written to OutDir/prix.pdf; a relative OutDir is resolved
//     against the directory of the catalog file.
type BatchOptions struct {
	Preset    PresetName
	Formats   []string // allowed: js, pdf; empty means preset defaults
	OutDir    string
	PriceList PriceListOptions
}

// BatchResult lists what a batch wrote.
type BatchResult struct {
	Published int
	Files     []string
}

// Batch runs the formats of a preset against the Publisher's source.
// It stops at the first failing format.
func Batch(p *Publisher, opt BatchOptions) (BatchResult, error) {
	var res BatchResult
	if p == nil {
		return res, fmt.Errorf("publisher is nil")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	outDir := opt.OutDir
	if outDir == "" {
		outDir = "exports"
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(filepath.Dir(p.Source()), outDir)
	}

	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "js":
			n, err := p.Export()
			if err != nil {
				return res, fmt.Errorf("js: %w", err)
			}
			res.Published = n
			res.Files = append(res.Files, p.Target())
		case "pdf":
			ps, err := storage.ReadStrict(p.Source())
			if err != nil {
				return res, fmt.Errorf("pdf: %w", catalog.SourceUnavailable(err))
			}
			out := filepath.Join(outDir, PriceListFileName)
			if err := ExportPriceListPDF(ps, out, opt.PriceList); err != nil {
				return res, fmt.Errorf("pdf: %w", err)
			}
			res.Files = append(res.Files, out)
		default:
			return res, fmt.Errorf("unknown format: %s", f)
		}
	}
	return res, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPrint:
		return []string{"pdf"}
	case PresetAll:
		return []string{"js", "pdf"}
	default:
		return []string{"js"}
	}
}
