/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode"
)

// SearchQuery describes a catalog search.
// Text is matched word by word as prefixes against name, category, badge and
// description (all words must match). Category and Badge are exact,
// case-insensitive filters. MinRating 0 disables the rating filter.
type SearchQuery struct {
	Text      string
	Category  string
	Badge     string
	MinRating int
	Limit     int
	Offset    int
}

// SearchResult is one matching product. Snippet marks the matched words with
// [ ] when Text was given.
type SearchResult struct {
	ID       int
	Name     string
	Category string
	Price    float64
	Snippet  string
}

// Search queries the catalog index rooted at root.
func Search(ctx context.Context, root string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("catalog root is required")
	}
	db, err := OpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var sb strings.Builder
	var args []any
	match := ftsQuery(q.Text)
	if match != "" {
		sb.WriteString("SELECT p.id, p.name, p.category, p.price, snippet(fts_products, -1, '[', ']', '…', 8)\n")
		sb.WriteString("FROM fts_products JOIN products p ON fts_products.rowid = p.id\n")
		sb.WriteString("WHERE fts_products MATCH ?\n")
		args = append(args, match)
	} else {
		sb.WriteString("SELECT p.id, p.name, p.category, p.price, ''\nFROM products p\nWHERE 1=1\n")
	}
	if s := strings.TrimSpace(q.Category); s != "" {
		sb.WriteString(" AND lower(p.category) = lower(?)\n")
		args = append(args, s)
	}
	if s := strings.TrimSpace(q.Badge); s != "" {
		sb.WriteString(" AND lower(p.badge) = lower(?)\n")
		args = append(args, s)
	}
	if q.MinRating > 0 {
		sb.WriteString(" AND p.rating >= ?\n")
		args = append(args, q.MinRating)
	}
	if match != "" {
		sb.WriteString("ORDER BY bm25(fts_products), p.position\n")
	} else {
		sb.WriteString("ORDER BY p.position\n")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var snip sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Category, &r.Price, &snip); err != nil {
			return nil, err
		}
		r.Snippet = snip.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// ftsQuery turns free text into an FTS5 expression of quoted prefix terms,
// so operator input never trips the FTS syntax: `robe  bleue` -> `"robe"* "bleue"*`.
func ftsQuery(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	for _, w := range words {
		terms = append(terms, `"`+w+`"*`)
	}
	return strings.Join(terms, " ")
}
