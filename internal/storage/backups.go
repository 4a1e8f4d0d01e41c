/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gocatalog/internal/domain"
)

// BackupStampLayout names backups with second resolution, e.g. products_20250131_235959.json.
const BackupStampLayout = "20060102_150405"

// BackupName returns the backup file name for src taken at ts.
func BackupName(src string, ts time.Time) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s_%s%s", strings.TrimSuffix(base, ext), ts.Format(BackupStampLayout), ext)
}

// BackupFile copies src into dir under a timestamped name and prunes the
// directory down to keep entries (0 keeps all). It returns "" without error
// when src does not exist. Two backups within the same second share a name;
// the later one wins.
func BackupFile(src, dir string, ts time.Time, keep int) (string, error) {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backup dir: %w", err)
	}
	dst := filepath.Join(dir, BackupName(src, ts))
	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("backup %s: %w", filepath.Base(src), err)
	}
	if keep > 0 {
		if _, err := PruneBackups(src, dir, keep); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

// ListBackups returns backups of src found in dir, oldest first.
func ListBackups(src, dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "_"
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
		if _, err := time.Parse(BackupStampLayout, stamp); err != nil {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	// the stamp sorts lexicographically in time order
	sort.Strings(out)
	return out, nil
}

// PruneBackups deletes the oldest backups of src until at most keep remain.
// It returns the number of files removed.
func PruneBackups(src, dir string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	all, err := ListBackups(src, dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for len(all)-removed > keep {
		if err := os.Remove(all[removed]); err != nil {
			return removed, fmt.Errorf("prune backup: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Backups lists the catalog's backups, oldest first.
func (s *Store) Backups() ([]string, error) { return ListBackups(s.path, s.backupDir) }

// RestoreLatest replaces the live catalog with the newest backup that still
// parses. The current file is itself backed up by the save. It returns the
// restored backup path and the restored collection.
func (s *Store) RestoreLatest() (string, []domain.Product, error) {
	all, err := s.Backups()
	if err != nil {
		return "", nil, err
	}
	l := s.log.With(slog.String("op", "restore"))
	for i := len(all) - 1; i >= 0; i-- {
		ps, err := ReadStrict(all[i])
		if err != nil {
			l.Warn("skipping unreadable backup", slog.String("backup", all[i]), slog.Any("err", err))
			continue
		}
		if err := s.save(ps, s.now(), all[i]); err != nil {
			return "", nil, err
		}
		l.Info("catalog restored", slog.String("backup", all[i]), slog.Int("count", len(ps)))
		return all[i], ps, nil
	}
	return "", nil, errors.New("no usable backup found")
}

// copyFile copies src to dst, overwriting dst, and syncs it.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
