/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package mirror copies the catalog into a PostgreSQL database so that other
// services can query it. products.json stays the source of truth; a sync
// makes the table match it exactly.
package mirror

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gocatalog/internal/domain"
	applog "gocatalog/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoDSN is returned when no connection string was configured.
var ErrNoDSN = errors.New("no PostgreSQL DSN configured (set mirror.dsn or GCAT_PG_DSN)")

// Open connects to dsn, checks the connection and brings the schema up to date.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrNoDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// applyMigrations applies embedded SQL migrations in filename order and
// records each applied version.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	files, err := migrationFiles()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	log := applog.WithComponent("mirror")
	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		log.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES ($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// parseVersion reads the numeric prefix of a migration file name, e.g. 0001_products.sql.
func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok || prefix == "" {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

// SyncResult summarizes one Sync.
type SyncResult struct {
	Upserted int
	Deleted  int
}

// Sync makes the products table hold exactly ps, in order, within one
// transaction. Rows whose content did not change keep their updated_at.
func Sync(ctx context.Context, db *sql.DB, ps []domain.Product) (SyncResult, error) {
	var res SyncResult
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, 0, len(ps))
	for i, p := range ps {
		ids = append(ids, int64(p.ID))
		var badge sql.NullString
		if p.Badge != nil {
			badge = sql.NullString{String: *p.Badge, Valid: true}
		}
		r, err := tx.ExecContext(ctx, `INSERT INTO products
			(id, position, name, price, category, rating, badge, description, image_path, icon)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (id) DO UPDATE SET
				position=excluded.position, name=excluded.name, price=excluded.price,
				category=excluded.category, rating=excluded.rating, badge=excluded.badge,
				description=excluded.description, image_path=excluded.image_path,
				icon=excluded.icon, updated_at=now()
			WHERE (products.position, products.name, products.price, products.category, products.rating,
				products.badge, products.description, products.image_path, products.icon)
				IS DISTINCT FROM
				(excluded.position, excluded.name, excluded.price, excluded.category, excluded.rating,
				excluded.badge, excluded.description, excluded.image_path, excluded.icon)`,
			p.ID, i, p.Name, p.Price, p.Category, p.Rating, badge, p.Description, p.ImagePath, p.Icon)
		if err != nil {
			return res, fmt.Errorf("upsert product %d: %w", p.ID, err)
		}
		if n, err := r.RowsAffected(); err == nil {
			res.Upserted += int(n)
		}
	}

	r, err := tx.ExecContext(ctx, `DELETE FROM products WHERE NOT (id = ANY($1))`, ids)
	if err != nil {
		return res, fmt.Errorf("delete stale products: %w", err)
	}
	if n, err := r.RowsAffected(); err == nil {
		res.Deleted = int(n)
	}
	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}
