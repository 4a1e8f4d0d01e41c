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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"gocatalog/internal/domain"
	"gocatalog/internal/storage"
)

// PriceListOptions controls the printable price list.
// Units are millimetres on A4 portrait.
type PriceListOptions struct {
	Title string
	// GroupByCategory sorts by category and prints a heading per category.
	GroupByCategory bool
	// Date is printed under the title and stored as the creation date.
	// Zero means now.
	Date time.Time
}

type column struct {
	title string
	width float64
	align string
}

var priceListColumns = []column{
	{"Réf.", 14, "R"},
	{"Produit", 68, "L"},
	{"Catégorie", 42, "L"},
	{"Badge", 22, "L"},
	{"Note", 12, "C"},
	{"Prix", 24, "R"},
}

// ExportPriceListPDF renders ps as a one-table price list and writes it to
// outPath atomically.
func ExportPriceListPDF(ps []domain.Product, outPath string, opt PriceListOptions) error {
	title := opt.Title
	if title == "" {
		title = "Liste des prix"
	}
	date := opt.Date
	if date.IsZero() {
		date = time.Now()
	}
	rows := domain.CloneAll(ps)
	if opt.GroupByCategory {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; accented French text goes through the translator.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetCreator("gocatalog", false)
	pdf.SetCreationDate(date)
	pdf.SetMargins(14, 16, 14)
	pdf.SetAutoPageBreak(true, 16)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(235, 228, 240)
		pdf.SetTextColor(40, 40, 40)
		for _, c := range priceListColumns {
			pdf.CellFormat(c.width, 7, tr(c.title), "B", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	pdf.SetHeaderFuncMode(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	}, false)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s · %d produit(s)", date.Format("02/01/2006"), len(rows))), "", 1, "L", false, 0, "")
	pdf.Ln(3)
	header()

	category := "\x00"
	for i, p := range rows {
		if opt.GroupByCategory && p.Category != category {
			category = p.Category
			label := category
			if label == "" {
				label = "Sans catégorie"
			}
			pdf.SetFont("Helvetica", "B", 9)
			pdf.CellFormat(0, 7, tr(label), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
		}
		fill := i%2 == 1
		pdf.SetFillColor(248, 246, 250)
		cells := []string{
			strconv.Itoa(p.ID),
			p.Name,
			p.Category,
			p.BadgeText(),
			fmt.Sprintf("%d/%d", p.Rating, domain.MaxRating),
			domain.DisplayPrice(p.Price),
		}
		for j, c := range priceListColumns {
			pdf.CellFormat(c.width, 6, fit(pdf, tr(cells[j]), c.width-2), "", 0, c.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := storage.WriteFileAtomic(outPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fit shortens s with an ellipsis until it fits into width. s is already
// translated to the single-byte font encoding.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	n := len(s)
	for n > 0 && pdf.GetStringWidth(s[:n]+"...") > width {
		n--
	}
	return s[:n] + "..."
}
