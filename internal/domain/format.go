/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"strconv"
	"strings"
)

// Currency is the unit label used by the list view and the PDF price list.
const Currency = "FDJ"

// FormatPrice renders a price for editing: no trailing zeros, dot decimal.
func FormatPrice(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// DisplayPrice renders a price for display, e.g. "25.50 FDJ".
func DisplayPrice(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) + " " + Currency }

// Stars renders a rating as repeated stars, clamped to the valid range.
func Stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > MaxRating {
		rating = MaxRating
	}
	return strings.Repeat("★", rating)
}

// Categories are the choices offered by the editor form; the first is preselected.
var Categories = []string{
	"Mode & Vêtements",
	"Accessoires & Lifestyle",
	"Soins Visage",
	"Soins Corps",
	"Soins Capillaires",
	"Parfumerie",
}

// Badges are the suggested badges; "" means no badge.
var Badges = []string{"", "Best-seller", "Nouveau", "Premium", "Bio"}
