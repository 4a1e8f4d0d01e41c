/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gocatalog/internal/domain"
	applog "gocatalog/internal/log"
)

const (
	// DataFileName is the default name of the catalog file.
	DataFileName = "products.json"
	// DefaultKeepBackups bounds each backup directory; 0 disables pruning.
	DefaultKeepBackups = 50
)

// Store owns the on-disk product collection.
// Every Save rewrites the whole file; there is no partial persistence.
type Store struct {
	path      string
	backupDir string
	keep      int
	now       func() time.Time
	log       *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithBackupRetention keeps at most n backups (0 = keep all).
func WithBackupRetention(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.keep = n
		}
	}
}

// WithClock replaces time.Now for backup names.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Open prepares a store for the file at path, creating backupDir and seeding
// the file with an empty collection when it does not exist yet.
func Open(path, backupDir string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path is required")
	}
	if strings.TrimSpace(backupDir) == "" {
		return nil, errors.New("backup directory is required")
	}
	s := &Store{
		path:      path,
		backupDir: backupDir,
		keep:      DefaultKeepBackups,
		now:       time.Now,
		log:       applog.WithComponent("store").With(slog.String("path", path)),
	}
	for _, o := range opts {
		o(s)
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.Save(nil); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		s.log.Info("catalog created")
	}
	return s, nil
}

// Path returns the live catalog file.
func (s *Store) Path() string { return s.path }

// BackupDir returns the directory receiving backups of the catalog file.
func (s *Store) BackupDir() string { return s.backupDir }

// Load returns the persisted collection. A missing or unparseable file
// yields an empty collection; the condition is logged, not returned.
func (s *Store) Load() []domain.Product {
	ps, err := ReadStrict(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("catalog missing, using empty collection")
		} else {
			s.log.Warn("catalog unreadable, using empty collection", slog.Any("err", err))
		}
		return []domain.Product{}
	}
	return ps
}

// Save backs up the current file, then atomically replaces it with ps.
// Backup problems are logged and do not fail the save.
func (s *Store) Save(ps []domain.Product) error { return s.save(ps, s.now(), "") }

// save writes ps after backing up the live file under the stamp ts, unless
// that backup would replace the file named keepBackup.
func (s *Store) save(ps []domain.Product, ts time.Time, keepBackup string) error {
	l := applog.WithOperation(s.log, "save")
	data, err := EncodeProducts(ps)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if keepBackup != "" && filepath.Join(s.backupDir, BackupName(s.path, ts)) == keepBackup {
		l.Debug("backup skipped, name taken by restored file", slog.String("backup", keepBackup))
	} else if bpath, err := BackupFile(s.path, s.backupDir, ts, s.keep); err != nil {
		l.Warn("backup failed", slog.Any("err", err))
	} else if bpath != "" {
		l.Debug("backup written", slog.String("backup", bpath))
	}
	if err := WriteFileAtomic(s.path, data); err != nil {
		l.Error("write failed", slog.Any("err", err))
		return err
	}
	l.Debug("catalog saved", slog.Int("count", len(ps)))
	return nil
}

// ReadStrict decodes a catalog file, returning the underlying error when the
// file is missing or not a JSON array of products.
func ReadStrict(path string) ([]domain.Product, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeProducts(b)
}

// DecodeProducts parses a JSON array of products; null decodes as empty.
func DecodeProducts(b []byte) ([]domain.Product, error) {
	var ps []domain.Product
	if err := json.Unmarshal(b, &ps); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if ps == nil {
		ps = []domain.Product{}
	}
	return ps, nil
}

// EncodeProducts renders the canonical file form: 2-space indent, raw UTF-8,
// trailing newline. A nil collection encodes as [].
func EncodeProducts(ps []domain.Product) ([]byte, error) {
	if ps == nil {
		ps = []domain.Product{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ps); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rename is swapped in tests to simulate a failure between write and replace.
var rename = os.Rename

// WriteFileAtomic writes data to a temp file beside path, syncs it and renames
// it over path. Readers observe either the old or the new content. The temp
// file is removed on any failure.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	temp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(temp)
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(temp, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = rename(temp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
