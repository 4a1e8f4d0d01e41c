/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gocatalog/internal/catalog"
	"gocatalog/internal/domain"
	applog "gocatalog/internal/log"
	"gocatalog/internal/storage"
	"gocatalog/internal/workspace"
)

const (
	msgImageRequired = "Veuillez sélectionner une image"
	msgImageCopy     = "Erreur copie image"
	msgNoSelection   = "Aucun produit sélectionné"

	noBadge     = "(aucun)"
	allProducts = "Toutes catégories"
)

// Options configures the desktop UI.
type Options struct {
	// Theme is "light", "dark" or "system".
	Theme string
}

var ratingOptions = []string{"1", "2", "3", "4", "5"}

// badgeOptions lists domain.Badges with the empty badge shown as noBadge.
func badgeOptions() []string {
	out := make([]string, 0, len(domain.Badges))
	for _, b := range domain.Badges {
		if b == "" {
			b = noBadge
		}
		out = append(out, b)
	}
	return out
}

func badgeFromOption(s string) string {
	if s == noBadge {
		return ""
	}
	return s
}

func optionFromBadge(b string) string {
	if b == "" {
		return noBadge
	}
	return b
}

func ratingFromOption(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func categoryFilterOptions() []string {
	return append([]string{allProducts}, domain.Categories...)
}

// rowText renders a product as a line of the product list.
func rowText(p domain.Product) string {
	parts := []string{fmt.Sprintf("#%d", p.ID), p.Name}
	if p.Category != "" {
		parts = append(parts, p.Category)
	}
	parts = append(parts, domain.DisplayPrice(p.Price), domain.Stars(p.Rating))
	if b := p.BadgeText(); b != "" {
		parts = append(parts, "["+b+"]")
	}
	return strings.Join(parts, "  ·  ")
}

// editor is the state behind the editor window: which product the form
// edits, the image picked for it and the filtered list.
type editor struct {
	ws *workspace.Workspace

	editingID    int    // 0 while the form describes a new product
	pendingImage string // picked file, imported on save

	query    string
	category string
	items    []domain.Product

	log *slog.Logger
}

func newEditor(ws *workspace.Workspace) *editor {
	return &editor{ws: ws, log: applog.WithComponent("ui")}
}

// refresh reloads the list. Without a filter it shows the collection in
// stored order; otherwise it goes through the search index.
func (e *editor) refresh(ctx context.Context) error {
	all := e.ws.Service.GetAll()
	if strings.TrimSpace(e.query) == "" && e.category == "" {
		e.items = all
		return nil
	}
	res, err := e.ws.Search(ctx, storage.SearchQuery{Text: e.query, Category: e.category, Limit: len(all) + 1})
	if err != nil {
		e.items = nil
		return err
	}
	byID := make(map[int]domain.Product, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}
	e.items = make([]domain.Product, 0, len(res))
	for _, r := range res {
		if p, ok := byID[r.ID]; ok {
			e.items = append(e.items, p)
		}
	}
	return nil
}

func (e *editor) setFilter(query, category string) {
	e.query = query
	if category == allProducts {
		category = ""
	}
	e.category = category
}

func (e *editor) countText() string {
	total := len(e.ws.Service.GetAll())
	if len(e.items) == total {
		return fmt.Sprintf("%d produits", total)
	}
	return fmt.Sprintf("%d / %d produits", len(e.items), total)
}

// edit loads the product with id into the form.
func (e *editor) edit(id int) (domain.Product, error) {
	p, err := e.ws.Service.GetByID(id)
	if err != nil {
		return domain.Product{}, err
	}
	e.editingID = p.ID
	e.pendingImage = ""
	return p, nil
}

func (e *editor) clear() {
	e.editingID = 0
	e.pendingImage = ""
}

// save adds or updates the product described by in. A new product needs an
// image.
func (e *editor) save(in domain.Input) (bool, string) {
	if e.editingID == 0 && e.pendingImage == "" {
		return false, msgImageRequired
	}
	op := catalog.OpAdd
	if e.editingID != 0 {
		op = catalog.OpUpdate
	}
	p, err := e.ws.Submit(e.editingID, in, e.pendingImage)
	if errors.Is(err, workspace.ErrImage) {
		e.log.Error("image import failed", slog.String("src", e.pendingImage), slog.Any("err", err))
		return false, msgImageCopy
	}
	ok, msg := catalog.Outcome(op, p, err)
	if ok {
		e.clear()
	}
	return ok, msg
}

func (e *editor) remove() (bool, string) {
	if e.editingID == 0 {
		return false, msgNoSelection
	}
	p, err := e.ws.Delete(e.editingID)
	ok, msg := catalog.Outcome(catalog.OpDelete, p, err)
	if ok {
		e.clear()
	}
	return ok, msg
}

func (e *editor) publish(ctx context.Context) (bool, string) {
	n, err := e.ws.Publish(ctx)
	return catalog.ExportOutcome(e.ws.Publisher.Target(), n, err)
}

// itemByIndex returns the list row i, if any.
func (e *editor) itemByIndex(i int) (domain.Product, bool) {
	if i < 0 || i >= len(e.items) {
		return domain.Product{}, false
	}
	return e.items[i], true
}
