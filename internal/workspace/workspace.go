/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package workspace wires a catalog directory together: the store behind
// products.json, the catalog service on top of it and the publisher that
// writes the website's products.js. The CLI and the desktop UI both work
// through a Workspace.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gocatalog/internal/assets"
	"gocatalog/internal/catalog"
	"gocatalog/internal/config"
	"gocatalog/internal/domain"
	"gocatalog/internal/export"
	applog "gocatalog/internal/log"
	"gocatalog/internal/storage"
)

// ErrImage marks a failed image import in Submit.
var ErrImage = errors.New("image import failed")

// Workspace is an opened catalog directory.
type Workspace struct {
	Layout    config.Layout
	Store     *storage.Store
	Service   *catalog.Service
	Publisher *export.Publisher

	notifier Notifier
	log      *slog.Logger
}

// Notifier is told about every successful Publish.
type Notifier interface {
	Published(target string, count int, content []byte)
}

// SetNotifier registers n; nil disables notifications.
func (w *Workspace) SetNotifier(n Notifier) { w.notifier = n }

// Open resolves the layout of cfg below root (see config.AppConfig.Layout),
// creating the catalog file and the backup directories when missing.
func Open(cfg config.AppConfig, root string) (*Workspace, error) {
	lay := cfg.Layout(root)
	st, err := storage.Open(lay.Products, lay.DBBackups, storage.WithBackupRetention(cfg.Backups.Keep))
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	pub, err := export.NewPublisher(lay.Products, lay.Target, lay.JSBackups, export.WithBackupRetention(cfg.Backups.Keep))
	if err != nil {
		return nil, fmt.Errorf("open publisher: %w", err)
	}
	w := &Workspace{
		Layout:    lay,
		Store:     st,
		Service:   catalog.New(st),
		Publisher: pub,
		log:       applog.WithComponent("workspace").With(slog.String("root", lay.Root)),
	}
	w.log.Debug("workspace opened", slog.String("products", lay.Products), slog.String("target", lay.Target))
	return w, nil
}

// Submit creates (id == 0) or updates a product from form values. When
// newImage names a file it is imported first and replaces in.ImagePath; the
// image it replaces is deleted once the record is saved. A failed save
// deletes the freshly imported copy again.
func (w *Workspace) Submit(id int, in domain.Input, newImage string) (domain.Product, error) {
	var previous string
	if id != 0 {
		cur, err := w.Service.GetByID(id)
		if err != nil {
			return domain.Product{}, err
		}
		previous = cur.ImagePath
	}
	var imported string
	if newImage != "" {
		rel, err := assets.Import(w.Layout.Root, newImage)
		if err != nil {
			return domain.Product{}, fmt.Errorf("%w: %w", ErrImage, err)
		}
		imported = rel
		in.ImagePath = rel
	}

	var p domain.Product
	var err error
	if id == 0 {
		p, err = w.Service.Add(in)
	} else {
		p, err = w.Service.Update(id, in)
	}
	if err != nil {
		if imported != "" {
			w.dropImage(imported)
		}
		return p, err
	}
	if imported != "" && previous != "" && previous != imported {
		w.dropImage(previous)
	}
	return p, nil
}

// Delete removes a product. Its image stays on disk.
func (w *Workspace) Delete(id int) (domain.Product, error) { return w.Service.Delete(id) }

// Publish exports products.js, refreshes the search index and tells the
// notifier. Index and notification failures are logged; the export result stands.
func (w *Workspace) Publish(ctx context.Context) (int, error) {
	n, err := w.Publisher.Export()
	if err != nil {
		return n, err
	}
	if w.notifier != nil {
		if content, err := os.ReadFile(w.Layout.Target); err == nil {
			w.notifier.Published(w.Layout.Target, n, content)
		} else {
			w.log.Warn("read published file", slog.Any("err", err))
		}
	}
	if err := w.Reindex(ctx); err != nil {
		w.log.Warn("index refresh after export failed", slog.Any("err", err))
	}
	return n, nil
}

// Reindex rebuilds the search index from the collection in memory.
func (w *Workspace) Reindex(ctx context.Context) error {
	return storage.RebuildIndex(ctx, w.Layout.Root, w.Service.GetAll())
}

// Search refreshes the index from the current collection and queries it.
func (w *Workspace) Search(ctx context.Context, q storage.SearchQuery) ([]storage.SearchResult, error) {
	if err := storage.UpdateIndex(ctx, w.Layout.Root, w.Service.GetAll()); err != nil {
		return nil, err
	}
	return storage.Search(ctx, w.Layout.Root, q)
}

// Thumbnail renders the image of p, or a placeholder carrying its initials
// when the product has no readable image.
func (w *Workspace) Thumbnail(ctx context.Context, p domain.Product, size int) ([]byte, error) {
	if assets.Exists(w.Layout.Root, p.ImagePath) {
		b, err := assets.Thumbnail(ctx, w.Layout.Root, p.ImagePath, size)
		if err != nil && !errors.Is(err, assets.ErrUnsupported) {
			w.log.Warn("thumbnail failed", slog.String("image", p.ImagePath), slog.Any("err", err))
		}
		if b != nil {
			return b, nil
		}
	}
	return assets.Placeholder(p.Name, size)
}

func (w *Workspace) dropImage(rel string) {
	if _, err := assets.Remove(w.Layout.Root, rel); err != nil {
		w.log.Warn("image cleanup failed", slog.String("image", rel), slog.Any("err", err))
	}
}
