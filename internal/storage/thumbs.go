/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetThumb returns the cached thumbnail for an image path at size, or nil.
// An entry recorded for a different mtime is stale and reported as a miss.
func GetThumb(ctx context.Context, root, path string, size int, mtime time.Time) ([]byte, error) {
	db, err := OpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	var blob []byte
	var cachedMtime int64
	err = db.QueryRowContext(ctx, `SELECT blob, mtime FROM thumbs WHERE path=? AND size=?`, path, size).Scan(&blob, &cachedMtime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query thumb: %w", err)
	}
	if cachedMtime != mtime.UnixNano() {
		return nil, nil
	}
	now := accessStamp()
	_, _ = db.ExecContext(ctx, `UPDATE thumbs SET last_access=? WHERE path=? AND size=?`, now, path, size)
	return blob, nil
}

// PutThumb stores a thumbnail and evicts least recently used entries beyond the cache cap.
func PutThumb(ctx context.Context, root, path string, size int, mtime time.Time, blob []byte) error {
	db, err := OpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	now := accessStamp()
	_, err = db.ExecContext(ctx, `INSERT INTO thumbs(path, size, mtime, blob, bytes, last_access) VALUES (?,?,?,?,?,?)
		ON CONFLICT(path, size) DO UPDATE SET mtime=excluded.mtime, blob=excluded.blob, bytes=excluded.bytes, last_access=excluded.last_access`,
		path, size, mtime.UnixNano(), blob, len(blob), now)
	if err != nil {
		return fmt.Errorf("upsert thumb: %w", err)
	}
	if capBytes := MaxThumbBytesFromEnv(); capBytes > 0 {
		return EvictThumbsToFit(ctx, db, capBytes)
	}
	return nil
}

// EvictThumbsToFit deletes least recently used thumbnails until the cache holds at most capBytes.
func EvictThumbsToFit(ctx context.Context, db *sql.DB, capBytes int64) error {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(bytes),0) FROM thumbs`).Scan(&total); err != nil {
		return fmt.Errorf("sum thumbs: %w", err)
	}
	if total <= capBytes {
		return nil
	}
	rows, err := db.QueryContext(ctx, `SELECT rowid, bytes FROM thumbs
		ORDER BY CASE WHEN last_access IS NULL THEN 0 ELSE 1 END, last_access, rowid`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	cur := total
	for rows.Next() && cur > capBytes {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, id)
		cur -= n
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// the cursor must be closed before writing on a single connection
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM thumbs WHERE rowid IN (` + strings.TrimSuffix(strings.Repeat("?,", len(victims)), ",") + `)`
	if _, err := db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict thumbs: %w", err)
	}
	return nil
}

// TotalThumbBytes reports the cache size.
func TotalThumbBytes(ctx context.Context, root string) (int64, error) {
	db, err := OpenIndex(root)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	var total int64
	err = db.QueryRowContext(ctx, `SELECT COALESCE(SUM(bytes),0) FROM thumbs`).Scan(&total)
	return total, err
}

// accessStamp is fixed width so last_access orders lexically.
func accessStamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// MaxThumbBytesFromEnv reads GCAT_THUMBS_MAX_BYTES, defaulting to 32MB.
func MaxThumbBytesFromEnv() int64 {
	const def = 32 * 1024 * 1024
	n, err := strconv.ParseInt(strings.TrimSpace(os.Getenv("GCAT_THUMBS_MAX_BYTES")), 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
