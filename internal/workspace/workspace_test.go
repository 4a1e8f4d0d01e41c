/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workspace

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/assets"
	"gocatalog/internal/catalog"
	"gocatalog/internal/config"
	"gocatalog/internal/domain"
	"gocatalog/internal/storage"
)

func openTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	w, err := Open(config.Defaults(), t.TempDir())
	require.NoError(t, err)
	return w
}

func writePNG(t *testing.T, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(3, 3, color.RGBA{G: 180, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func imageFiles(t *testing.T, w *Workspace) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(w.Layout.Root, "images"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, "images/"+e.Name())
	}
	return out
}

func TestOpenCreatesLayout(t *testing.T) {
	w := openTestWorkspace(t)

	assert.FileExists(t, filepath.Join(w.Layout.Root, "products.json"))
	assert.DirExists(t, filepath.Join(w.Layout.Root, "backups", "db_backups"))
	assert.DirExists(t, filepath.Join(w.Layout.Root, "backups", "js_backups"))
	assert.Equal(t, filepath.Join(w.Layout.Root, "web", "js", "products.js"), w.Publisher.Target())
	assert.Empty(t, w.Service.GetAll())
}

func TestSubmitAddImportsImage(t *testing.T) {
	w := openTestWorkspace(t)
	src := writePNG(t, "robe.png")

	p, err := w.Submit(0, domain.Input{Name: "Robe", Price: "5000"}, src)
	require.NoError(t, err)

	assert.Equal(t, 1, p.ID)
	assert.True(t, strings.HasPrefix(p.ImagePath, "images/product_"), p.ImagePath)
	assert.Equal(t, []string{p.ImagePath}, imageFiles(t, w))
	assert.FileExists(t, src, "source image must be left in place")
}

func TestSubmitUpdateReplacesImage(t *testing.T) {
	w := openTestWorkspace(t)
	first, err := w.Submit(0, domain.Input{Name: "Sac", Price: "12000"}, writePNG(t, "a.png"))
	require.NoError(t, err)

	in := domain.FromProduct(first)
	in.Price = "11000"
	updated, err := w.Submit(first.ID, in, writePNG(t, "b.png"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, updated.ID)
	assert.NotEqual(t, first.ImagePath, updated.ImagePath)
	assert.Equal(t, []string{updated.ImagePath}, imageFiles(t, w))
}

func TestSubmitUpdateWithoutImageKeepsCurrent(t *testing.T) {
	w := openTestWorkspace(t)
	first, err := w.Submit(0, domain.Input{Name: "Sac", Price: "12000"}, writePNG(t, "a.png"))
	require.NoError(t, err)

	in := domain.FromProduct(first)
	in.Name = "Sac à main"
	updated, err := w.Submit(first.ID, in, "")
	require.NoError(t, err)

	assert.Equal(t, first.ImagePath, updated.ImagePath)
	assert.Equal(t, []string{first.ImagePath}, imageFiles(t, w))
}

func TestSubmitRejectedDropsImportedImage(t *testing.T) {
	w := openTestWorkspace(t)

	_, err := w.Submit(0, domain.Input{Name: "  ", Price: "10"}, writePNG(t, "a.png"))
	require.ErrorIs(t, err, catalog.ErrValidation)

	assert.Empty(t, imageFiles(t, w))
	assert.Empty(t, w.Service.GetAll())
}

func TestSubmitUnknownIDImportsNothing(t *testing.T) {
	w := openTestWorkspace(t)

	_, err := w.Submit(42, domain.Input{Name: "X", Price: "1"}, writePNG(t, "a.png"))
	require.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Empty(t, imageFiles(t, w))
}

func TestSubmitRejectsNonImage(t *testing.T) {
	w := openTestWorkspace(t)
	src := filepath.Join(t.TempDir(), "notes.png")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	_, err := w.Submit(0, domain.Input{Name: "Robe", Price: "1"}, src)
	require.ErrorIs(t, err, ErrImage)
	require.ErrorIs(t, err, assets.ErrUnsupported)
	assert.Empty(t, w.Service.GetAll())
}

func TestDeleteKeepsImage(t *testing.T) {
	w := openTestWorkspace(t)
	p, err := w.Submit(0, domain.Input{Name: "Robe", Price: "5000"}, writePNG(t, "a.png"))
	require.NoError(t, err)

	_, err = w.Delete(p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ImagePath}, imageFiles(t, w))
}

func TestPublishWritesTargetAndIndex(t *testing.T) {
	w := openTestWorkspace(t)
	ctx := context.Background()
	_, err := w.Submit(0, domain.Input{Name: "Robe Lin", Price: "5000", Category: "Mode & Vêtements"}, "")
	require.NoError(t, err)
	_, err = w.Submit(0, domain.Input{Name: "Huile Argan", Price: "3000", Category: "Soins Corps"}, "")
	require.NoError(t, err)

	n, err := w.Publish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(w.Publisher.Target())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "const products = "))

	res, err := storage.Search(ctx, w.Layout.Root, storage.SearchQuery{Text: "argan"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Huile Argan", res[0].Name)
}

type recordingNotifier struct {
	target  string
	count   int
	content []byte
	calls   int
}

func (r *recordingNotifier) Published(target string, count int, content []byte) {
	r.target, r.count, r.content = target, count, content
	r.calls++
}

func TestPublishNotifies(t *testing.T) {
	w := openTestWorkspace(t)
	rec := &recordingNotifier{}
	w.SetNotifier(rec)
	_, err := w.Submit(0, domain.Input{Name: "Robe Lin", Price: "5000"}, "")
	require.NoError(t, err)

	n, err := w.Publish(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, rec.calls)
	assert.Equal(t, w.Publisher.Target(), rec.target)
	assert.Equal(t, n, rec.count)
	data, err := os.ReadFile(w.Publisher.Target())
	require.NoError(t, err)
	assert.Equal(t, data, rec.content)
}

func TestFailedPublishDoesNotNotify(t *testing.T) {
	w := openTestWorkspace(t)
	rec := &recordingNotifier{}
	w.SetNotifier(rec)
	// a directory in place of the catalog file makes the export fail
	require.NoError(t, os.Remove(w.Layout.Products))
	require.NoError(t, os.Mkdir(w.Layout.Products, 0o755))

	_, err := w.Publish(context.Background())
	require.Error(t, err)
	assert.Zero(t, rec.calls)
}

func TestSearchSeesUnpublishedChanges(t *testing.T) {
	w := openTestWorkspace(t)
	ctx := context.Background()
	_, err := w.Submit(0, domain.Input{Name: "Parfum Oud", Price: "9000"}, "")
	require.NoError(t, err)

	res, err := w.Search(ctx, storage.SearchQuery{Text: "oud"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Parfum Oud", res[0].Name)
}

func TestThumbnailFallsBackToPlaceholder(t *testing.T) {
	w := openTestWorkspace(t)
	ctx := context.Background()

	b, err := w.Thumbnail(ctx, domain.Product{Name: "Robe", ImagePath: "images/missing.png"}, 48)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.Width)

	p, err := w.Submit(0, domain.Input{Name: "Sac", Price: "1"}, writePNG(t, "a.png"))
	require.NoError(t, err)
	b, err = w.Thumbnail(ctx, p, 20)
	require.NoError(t, err)
	cfg, err = png.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 10, cfg.Height)
}
