/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gocatalog/internal/domain"
)

func TestExportPriceListPDF_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	var ps []domain.Product
	for i := 1; i <= 80; i++ {
		ps = append(ps, domain.Product{
			ID:       i,
			Name:     "Crème hydratante à l'aloe vera édition très limitée numéro " + strings.Repeat("x", i%7),
			Price:    float64(i) + 0.5,
			Category: domain.Categories[i%len(domain.Categories)],
			Rating:   1 + i%5,
		})
	}
	out := filepath.Join(dir, "exports", "prix.pdf")
	err := ExportPriceListPDF(ps, out, PriceListOptions{GroupByCategory: true, Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a PDF")
	}
	ents, _ := os.ReadDir(filepath.Dir(out))
	if len(ents) != 1 {
		t.Fatalf("temp files left behind: %v", ents)
	}
}

func TestExportPriceListPDF_Empty(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.pdf")
	if err := ExportPriceListPDF(nil, out, PriceListOptions{Title: "Tarifs"}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		t.Fatalf("pdf missing or empty: %v", err)
	}
}
