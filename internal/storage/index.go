/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gocatalog/internal/domain"
	applog "gocatalog/internal/log"
	"gocatalog/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName holds derived, disposable data next to the catalog.
	IndexDirName  = ".gcat"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the index layout. Bump it with a migration step.
	schemaVersion = 2
)

// IndexPath returns the index database path for a catalog rooted at root.
func IndexPath(root string) string {
	return filepath.Join(root, IndexDirName, IndexFileName)
}

// OpenIndex creates or opens the catalog index, enables WAL and makes sure
// the schema is current. Callers close the returned handle.
func OpenIndex(root string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("index"), "open").With(slog.String("root", root))
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("catalog root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, IndexDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create %s dir: %w", IndexDirName, err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(IndexPath(root)))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("migrations failed", slog.Any("err", err))
		return nil, err
	}
	return db, nil
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS version (
		id         INTEGER PRIMARY KEY CHECK(id=1),
		schema     INTEGER NOT NULL,
		app        TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES (1, ?, ?, ?, ?)`,
			schemaVersion, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the product mirror, its FTS5 index and the thumbnail cache.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id          INTEGER PRIMARY KEY,
			position    INTEGER NOT NULL,
			name        TEXT    NOT NULL,
			category    TEXT    NOT NULL DEFAULT '',
			badge       TEXT,
			description TEXT    NOT NULL DEFAULT '',
			price       REAL    NOT NULL,
			rating      INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);`,
		// External-content FTS so snippet() can read the product text back.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_products USING fts5(
			name, category, badge, description,
			content='products',
			content_rowid='id',
			tokenize = 'unicode61 remove_diacritics 2'
		);`,
		`CREATE TABLE IF NOT EXISTS thumbs (
			path        TEXT    NOT NULL,
			size        INTEGER NOT NULL,
			mtime       INTEGER NOT NULL,
			blob        BLOB    NOT NULL,
			bytes       INTEGER NOT NULL,
			last_access TEXT,
			PRIMARY KEY (path, size)
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS products_ai AFTER INSERT ON products BEGIN
			INSERT INTO fts_products(rowid, name, category, badge, description)
			VALUES (new.id, new.name, new.category, new.badge, new.description);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS products_ad AFTER DELETE ON products BEGIN
			INSERT INTO fts_products(fts_products, rowid, name, category, badge, description)
			VALUES ('delete', old.id, old.name, old.category, old.badge, old.description);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS products_au AFTER UPDATE ON products BEGIN
			INSERT INTO fts_products(fts_products, rowid, name, category, badge, description)
			VALUES ('delete', old.id, old.name, old.category, old.badge, old.description);
			INSERT INTO fts_products(rowid, name, category, badge, description)
			VALUES (new.id, new.name, new.category, new.badge, new.description);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// runMigrations brings an older index up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		switch next {
		case 2:
			// v1 had no thumbnail LRU index.
			if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_thumbs_access ON thumbs(last_access);`); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	// fresh databases start at schemaVersion and still need the LRU index
	_, _ = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_thumbs_access ON thumbs(last_access);`)
	return nil
}

// UpdateIndex replaces the indexed products with ps in one transaction.
func UpdateIndex(ctx context.Context, root string, ps []domain.Product) error {
	db, err := OpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	return replaceProducts(ctx, db, ps)
}

func replaceProducts(ctx context.Context, db *sql.DB, ps []domain.Product) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM products;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear products: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, `INSERT INTO products(id, position, name, category, badge, description, price, rating)
		VALUES (?,?,?,?,?,?,?,?);`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for i, p := range ps {
		if p.ID <= 0 {
			continue
		}
		var badge sql.NullString
		if p.Badge != nil {
			badge = sql.NullString{String: *p.Badge, Valid: true}
		}
		if _, err := ins.ExecContext(ctx, p.ID, i, p.Name, p.Category, badge, p.Description, p.Price, p.Rating); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RebuildIndex drops the product tables and repopulates them from ps.
// The thumbnail cache and version row survive.
func RebuildIndex(ctx context.Context, root string, ps []domain.Product) error {
	db, err := OpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	drops := []string{
		"DROP TRIGGER IF EXISTS products_ai;",
		"DROP TRIGGER IF EXISTS products_ad;",
		"DROP TRIGGER IF EXISTS products_au;",
		"DROP TABLE IF EXISTS fts_products;",
		"DROP TABLE IF EXISTS products;",
	}
	for _, q := range drops {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return replaceProducts(ctx, db, ps)
}

// DetectAndRebuildIndex rebuilds the index when it cannot be opened or fails
// an integrity check. The damaged file is copied to .gcat/backups first.
// It reports whether a rebuild happened.
func DetectAndRebuildIndex(ctx context.Context, root string, ps []domain.Product) (bool, error) {
	path := IndexPath(root)
	db, err := OpenIndex(root)
	if err == nil {
		healthy := true
		var chk string
		if qerr := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); qerr != nil || !strings.EqualFold(strings.TrimSpace(chk), "ok") {
			healthy = false
		}
		if healthy {
			if _, qerr := db.ExecContext(ctx, `SELECT 1 FROM products LIMIT 1;`); qerr != nil {
				healthy = false
			}
		}
		_ = db.Close()
		if healthy {
			return false, nil
		}
	}
	applog.WithComponent("index").Warn("index damaged, rebuilding", slog.String("path", path), slog.Any("open_err", err))
	if _, berr := BackupFile(path, filepath.Join(root, IndexDirName, "backups"), time.Now(), 5); berr != nil {
		applog.WithComponent("index").Warn("index backup failed", slog.Any("err", berr))
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	if err := RebuildIndex(ctx, root, ps); err != nil {
		return false, fmt.Errorf("rebuild index: %w", err)
	}
	return true, nil
}
