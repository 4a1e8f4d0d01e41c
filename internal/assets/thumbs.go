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
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"unicode"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"gocatalog/internal/storage"
)

// DefaultThumbSize is the edge of the editor's image preview.
const DefaultThumbSize = 90

// Thumbnail returns a PNG no larger than size x size for the image at rel,
// keeping its aspect ratio. Results are cached in the catalog index and
// invalidated when the file's mtime changes.
func Thumbnail(ctx context.Context, root, rel string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultThumbSize
	}
	path := Resolve(root, rel)
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if blob, err := storage.GetThumb(ctx, root, rel, size, fi.ModTime()); err == nil && blob != nil {
		return blob, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	blob, err := encodePNG(scaleToFit(src, size))
	if err != nil {
		return nil, err
	}
	if err := storage.PutThumb(ctx, root, rel, size, fi.ModTime(), blob); err != nil {
		return blob, err
	}
	return blob, nil
}

func scaleToFit(src image.Image, size int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= size && h <= size {
		return src
	}
	if w >= h {
		h = max(1, h*size/w)
		w = size
	} else {
		w = max(1, w*size/h)
		h = size
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// Placeholder renders a size x size tile with the initials of name, used
// when a product has no usable image.
func Placeholder(name string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultThumbSize
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 236, G: 226, B: 242, A: 255}), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.RGBA{R: 90, G: 60, B: 110, A: 255}), Face: face}
	text := initials(name)
	x := (fixed.I(size) - d.MeasureString(text)) / 2
	y := fixed.I(size/2) + (face.Metrics().Ascent-face.Metrics().Descent)/2
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(text)
	return encodePNG(img)
}

// initials returns up to two upper-case ASCII initials; the 7x13 face has no
// glyphs beyond ASCII.
func initials(name string) string {
	var out []rune
	for _, w := range strings.Fields(name) {
		r := []rune(w)[0]
		if r > unicode.MaxASCII || !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
