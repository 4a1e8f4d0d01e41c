/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets manages product images: import into the catalog's images
// directory and cached thumbnails for the editor and the preview server.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	// Decoders for image.DecodeConfig / image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	applog "gocatalog/internal/log"
	"gocatalog/internal/storage"
)

// ImagesDir is the directory, relative to the catalog root, holding imported images.
const ImagesDir = "images"

// Extensions lists the accepted image file extensions.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// ErrUnsupported is returned for files that are not a supported image.
var ErrUnsupported = errors.New("unsupported image")

// Supported reports whether path has an accepted image extension.
func Supported(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// Import copies the image at src into root/images under a fresh
// product_<uuid v7><ext> name and returns the slash-separated path relative
// to root, e.g. "images/product_0190b2c4-....png". The source is never
// modified.
func Import(root, src string) (string, error) {
	l := applog.WithOperation(applog.WithComponent("assets"), "import").With(slog.String("src", src))
	if !Supported(src) {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(src))
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("image name: %w", err)
	}
	rel := ImagesDir + "/product_" + id.String() + strings.ToLower(filepath.Ext(src))
	dst := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}
	if err := storage.WriteFileAtomic(dst, data); err != nil {
		return "", err
	}
	l.Info("image imported", slog.String("path", rel), slog.String("format", format),
		slog.Int("w", cfg.Width), slog.Int("h", cfg.Height))
	return rel, nil
}

// Resolve returns the filesystem path of an image_path value.
func Resolve(root, rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(root, filepath.FromSlash(rel))
}

// Exists reports whether an image_path value points at an existing file.
func Exists(root, rel string) bool {
	if rel == "" {
		return false
	}
	fi, err := os.Stat(Resolve(root, rel))
	return err == nil && !fi.IsDir()
}

// Remove deletes an image previously created by Import. Paths outside the
// images directory are left alone and reported as not removed.
func Remove(root, rel string) (bool, error) {
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel)))
	if rel == "" || filepath.IsAbs(rel) || !strings.HasPrefix(clean, ImagesDir+"/") || strings.Contains(clean, "..") {
		return false, nil
	}
	if err := os.Remove(filepath.Join(root, filepath.FromSlash(clean))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
