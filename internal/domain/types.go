/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain defines the catalog record shared by storage, the catalog
// service and the exporters. JSON field names are the on-disk format of both
// products.json and the published products.js.
package domain

import "strings"

const (
	// DefaultIcon is shown by the website when a product has no image.
	DefaultIcon = "🎁"
	// DefaultRating applies when no rating is given.
	DefaultRating = 5
	MinRating     = 1
	MaxRating     = 5
)

// Product is one catalog entry.
// Badge is nil when the product carries no badge; it serializes as null.
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Rating      int     `json:"rating"`
	Badge       *string `json:"badge"`
	Description string  `json:"description"`
	ImagePath   string  `json:"image_path"`
	Icon        string  `json:"icon"`
}

// Clone returns a copy that shares no memory with p.
func (p Product) Clone() Product {
	if p.Badge != nil {
		b := *p.Badge
		p.Badge = &b
	}
	return p
}

// BadgeText returns the badge or "" when absent.
func (p Product) BadgeText() string {
	if p.Badge == nil {
		return ""
	}
	return *p.Badge
}

// CloneAll deep-copies a collection.
func CloneAll(ps []Product) []Product {
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

// Input carries form values as entered by the operator. Price is kept as
// text so that parsing is part of validation. A zero Rating means "not set".
type Input struct {
	Name        string
	Price       string
	Category    string
	Rating      int
	Badge       string
	Description string
	ImagePath   string
	Icon        string
}

// FromProduct turns an existing record back into form values, e.g. to edit it.
func FromProduct(p Product) Input {
	return Input{
		Name:        p.Name,
		Price:       FormatPrice(p.Price),
		Category:    p.Category,
		Rating:      p.Rating,
		Badge:       p.BadgeText(),
		Description: p.Description,
		ImagePath:   p.ImagePath,
		Icon:        p.Icon,
	}
}

// OptionalText returns nil for blank text, otherwise a pointer to the trimmed value.
func OptionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// MaxID returns the largest id in ps, or 0.
func MaxID(ps []Product) int {
	m := 0
	for _, p := range ps {
		if p.ID > m {
			m = p.ID
		}
	}
	return m
}

// IndexOf returns the position of the product with id, or -1.
func IndexOf(ps []Product, id int) int {
	for i, p := range ps {
		if p.ID == id {
			return i
		}
	}
	return -1
}
