/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"golang.org/x/image/bmp"

	"gocatalog/internal/storage"
)

func writeImage(t *testing.T, path string, w, h int, enc func(*os.File, image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := enc(f, img); err != nil {
		t.Fatal(err)
	}
}

func encPNG(f *os.File, img image.Image) error { return png.Encode(f, img) }
func encBMP(f *os.File, img image.Image) error { return bmp.Encode(f, img) }

var importedName = regexp.MustCompile(`^images/product_[0-9a-f-]{36}\.(png|bmp)$`)

func TestImportCopiesUnderGeneratedName(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "Photo Robe.PNG")
	writeImage(t, src, 20, 10, encPNG)

	rel, err := Import(root, src)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if !importedName.MatchString(rel) {
		t.Fatalf("unexpected image path %q", rel)
	}
	want, _ := os.ReadFile(src)
	got, err := os.ReadFile(Resolve(root, rel))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(want, got) {
		t.Fatalf("copy differs from source")
	}
	if !Exists(root, rel) {
		t.Fatalf("Exists(%q) = false", rel)
	}

	other, err := Import(root, src)
	if err != nil {
		t.Fatal(err)
	}
	if other == rel {
		t.Fatalf("two imports share a name: %s", rel)
	}
}

func TestImportBMP(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "sac.bmp")
	writeImage(t, src, 8, 8, encBMP)
	rel, err := Import(root, src)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if !importedName.MatchString(rel) {
		t.Fatalf("unexpected image path %q", rel)
	}
}

func TestImportRejectsNonImages(t *testing.T) {
	root := t.TempDir()
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Import(root, txt); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for .txt, got %v", err)
	}

	fake := filepath.Join(dir, "fake.png")
	if err := os.WriteFile(fake, []byte("not really a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Import(root, fake); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for bogus png, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ImagesDir)); err == nil {
		ents, _ := os.ReadDir(filepath.Join(root, ImagesDir))
		if len(ents) != 0 {
			t.Fatalf("rejected import left files: %v", ents)
		}
	}
}

func TestRemoveOnlyTouchesImportedImages(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "a.png")
	writeImage(t, src, 4, 4, encPNG)
	rel, err := Import(root, src)
	if err != nil {
		t.Fatal(err)
	}

	if ok, err := Remove(root, "../"+filepath.Base(src)); ok || err != nil {
		t.Fatalf("path outside images removed: %v %v", ok, err)
	}
	if ok, err := Remove(root, src); ok || err != nil {
		t.Fatalf("absolute path removed: %v %v", ok, err)
	}
	if ok, err := Remove(root, rel); !ok || err != nil {
		t.Fatalf("Remove(%q) = %v, %v", rel, ok, err)
	}
	if Exists(root, rel) {
		t.Fatalf("image still present")
	}
	if ok, err := Remove(root, rel); ok || err != nil {
		t.Fatalf("second Remove = %v, %v", ok, err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source touched: %v", err)
	}
}

func TestThumbnailScalesAndCaches(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "wide.png")
	writeImage(t, src, 400, 200, encPNG)
	rel, err := Import(root, src)
	if err != nil {
		t.Fatal(err)
	}

	blob, err := Thumbnail(ctx, root, rel, 100)
	if err != nil {
		t.Fatalf("Thumbnail error: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(blob))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Fatalf("thumbnail is %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
	total, err := storage.TotalThumbBytes(ctx, root)
	if err != nil || total != int64(len(blob)) {
		t.Fatalf("cache holds %d bytes (err %v), want %d", total, err, len(blob))
	}
	again, err := Thumbnail(ctx, root, rel, 100)
	if err != nil || !bytes.Equal(blob, again) {
		t.Fatalf("cached thumbnail differs: %v", err)
	}
}

func TestThumbnailKeepsSmallImages(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "tiny.png")
	writeImage(t, src, 10, 30, encPNG)
	blob, err := Thumbnail(context.Background(), root, src, 90)
	if err != nil {
		t.Fatal(err)
	}
	cfg, _ := png.DecodeConfig(bytes.NewReader(blob))
	if cfg.Width != 10 || cfg.Height != 30 {
		t.Fatalf("small image resized to %dx%d", cfg.Width, cfg.Height)
	}
}

func TestPlaceholder(t *testing.T) {
	blob, err := Placeholder("robe de soirée", 64)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(blob))
	if err != nil || cfg.Width != 64 || cfg.Height != 64 {
		t.Fatalf("placeholder %dx%d err=%v", cfg.Width, cfg.Height, err)
	}
	for in, want := range map[string]string{"robe de soirée": "RD", "": "?", "éclat": "?", "sac": "S"} {
		if got := initials(in); got != want {
			t.Errorf("initials(%q) = %q, want %q", in, got, want)
		}
	}
}
