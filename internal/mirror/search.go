/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"gocatalog/internal/storage"
)

// Search runs q against the mirrored table and returns results shaped like
// the local index, so both can be compared or swapped.
func Search(ctx context.Context, db *sql.DB, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if tq := prefixQuery(q.Text); tq != "" {
		b.WriteString("SELECT p.id, p.name, p.category, p.price, ")
		b.WriteString("COALESCE(ts_headline('simple', p.name || ' ' || p.description, to_tsquery('simple', " + place(tq) + "), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') ")
		b.WriteString("FROM products p WHERE p.search_vector @@ to_tsquery('simple', $1) ")
	} else {
		b.WriteString("SELECT p.id, p.name, p.category, p.price, '' FROM products p WHERE TRUE ")
	}
	if s := strings.TrimSpace(q.Category); s != "" {
		b.WriteString(" AND lower(p.category) = lower(" + place(s) + ") ")
	}
	if s := strings.TrimSpace(q.Badge); s != "" {
		b.WriteString(" AND lower(p.badge) = lower(" + place(s) + ") ")
	}
	if q.MinRating > 0 {
		b.WriteString(" AND p.rating >= " + place(q.MinRating) + " ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY p.position, p.id ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.ID, &r.Name, &r.Category, &r.Price, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// prefixQuery turns free text into a tsquery of AND-ed prefix terms, so
// `robe  bleue` matches the same rows as the local index: robe:* & bleue:*.
func prefixQuery(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	for _, w := range words {
		terms = append(terms, strings.ToLower(w)+":*")
	}
	return strings.Join(terms, " & ")
}
