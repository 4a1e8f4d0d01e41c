/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"gocatalog/internal/domain"
)

// checked holds the fields with validation rules, in reporting order.
type checked struct {
	Name   string  `validate:"required"`
	Price  float64 `validate:"gt=0"`
	Rating int     `validate:"min=1,max=5"`
}

// normalize trims the input, applies defaults and validates it. The returned
// product has no id.
func normalize(v *validator.Validate, in domain.Input) (domain.Product, error) {
	p := domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Rating:      in.Rating,
		Badge:       domain.OptionalText(in.Badge),
		Description: strings.TrimSpace(in.Description),
		ImagePath:   strings.TrimSpace(in.ImagePath),
		Icon:        strings.TrimSpace(in.Icon),
	}
	if p.Rating == 0 {
		p.Rating = domain.DefaultRating
	}
	if p.Icon == "" {
		p.Icon = domain.DefaultIcon
	}
	price, priceErr := parsePrice(in.Price)
	p.Price = price

	failed := map[string]bool{}
	if err := v.Struct(checked{Name: p.Name, Price: p.Price, Rating: p.Rating}); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.Product{}, err
		}
		for _, fe := range verrs {
			failed[fe.Field()] = true
		}
	}
	switch {
	case failed["Name"]:
		return domain.Product{}, invalid(MsgNameRequired)
	case priceErr != nil:
		return domain.Product{}, invalid(MsgPriceInvalid)
	case failed["Price"]:
		return domain.Product{}, invalid(MsgPricePositive)
	case failed["Rating"]:
		return domain.Product{}, invalid(MsgRatingRange)
	}
	return p, nil
}

var errNotANumber = errors.New("price is not a number")

// parsePrice accepts decimal notation only. Hexadecimal floats, NaN and
// infinities are not prices.
func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errNotANumber
	}
	if u := strings.TrimLeft(s, "+-"); len(u) > 1 && u[0] == '0' && (u[1] == 'x' || u[1] == 'X') {
		return 0, errNotANumber
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotANumber
	}
	return f, nil
}
