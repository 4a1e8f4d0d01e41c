/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export publishes the catalog for the website and renders a
// printable price list.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gocatalog/internal/catalog"
	"gocatalog/internal/domain"
	applog "gocatalog/internal/log"
	"gocatalog/internal/storage"
)

const (
	// JSVariable is the identifier the website reads the catalog from.
	JSVariable = "products"
	// DefaultTarget is the published file relative to the catalog root.
	DefaultTarget = "web/js/products.js"
)

// Publisher turns the persisted catalog into the website's products.js.
// It reads the catalog file directly, never a service cache.
type Publisher struct {
	source    string
	target    string
	backupDir string
	keep      int
	now       func() time.Time
	log       *slog.Logger
}

// Option customizes a Publisher.
type Option func(*Publisher)

// WithBackupRetention keeps at most n backups of the target (0 = keep all).
func WithBackupRetention(n int) Option {
	return func(p *Publisher) {
		if n >= 0 {
			p.keep = n
		}
	}
}

// WithClock replaces time.Now for backup names.
func WithClock(now func() time.Time) Option { return func(p *Publisher) { p.now = now } }

// NewPublisher creates the backup directory and the target's directory.
func NewPublisher(source, target, backupDir string, opts ...Option) (*Publisher, error) {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("source and target are required")
	}
	if strings.TrimSpace(backupDir) == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	p := &Publisher{
		source:    source,
		target:    target,
		backupDir: backupDir,
		keep:      storage.DefaultKeepBackups,
		now:       time.Now,
		log:       applog.WithComponent("publisher").With(slog.String("target", target)),
	}
	for _, o := range opts {
		o(p)
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("create target dir: %w", err)
	}
	return p, nil
}

// Source returns the catalog file read by Export.
func (p *Publisher) Source() string { return p.source }

// Target returns the published file.
func (p *Publisher) Target() string { return p.target }

// BackupDir returns the directory receiving backups of the target.
func (p *Publisher) BackupDir() string { return p.backupDir }

// Export backs up the current target, renders the catalog file and replaces
// the target atomically. It returns the number of published products.
// A missing or unparseable source fails with catalog.ErrSourceUnavailable
// and leaves the target untouched.
func (p *Publisher) Export() (int, error) {
	l := applog.WithOperation(p.log, "export")
	if bpath, err := storage.BackupFile(p.target, p.backupDir, p.now(), p.keep); err != nil {
		l.Warn("backup failed", slog.Any("err", err))
	} else if bpath != "" {
		l.Debug("backup written", slog.String("backup", bpath))
	}

	ps, err := storage.ReadStrict(p.source)
	if err != nil {
		l.Error("source unavailable", slog.String("source", p.source), slog.Any("err", err))
		return 0, catalog.SourceUnavailable(err)
	}
	data, err := Render(ps)
	if err != nil {
		return 0, &catalog.Error{Kind: catalog.ErrStorage, Msg: catalog.MsgExportFailed, Err: err}
	}
	if err := storage.WriteFileAtomic(p.target, data); err != nil {
		l.Error("write failed", slog.Any("err", err))
		return 0, &catalog.Error{Kind: catalog.ErrStorage, Msg: catalog.MsgExportFailed, Err: err}
	}
	l.Info("catalog published", slog.Int("count", len(ps)))
	return len(ps), nil
}

// InSync reports whether the target holds exactly what Export would write.
func (p *Publisher) InSync() (bool, error) {
	ps, err := storage.ReadStrict(p.source)
	if err != nil {
		return false, catalog.SourceUnavailable(err)
	}
	want, err := Render(ps)
	if err != nil {
		return false, err
	}
	got, err := os.ReadFile(p.target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(want, got), nil
}

// Backups lists backups of the target, oldest first.
func (p *Publisher) Backups() ([]string, error) { return storage.ListBackups(p.target, p.backupDir) }

// Render produces the script form: one assignment of the JSON array,
// indented like products.json, ending in ";\n".
func Render(ps []domain.Product) ([]byte, error) {
	js, err := storage.EncodeProducts(ps)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(js) + 24)
	buf.WriteString("const " + JSVariable + " = ")
	buf.Write(bytes.TrimRight(js, "\n"))
	buf.WriteString(";\n")
	return buf.Bytes(), nil
}

// Parse reads back a file produced by Render.
func Parse(data []byte) ([]domain.Product, error) {
	s := strings.TrimSpace(string(data))
	prefix := "const " + JSVariable + " ="
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("not a %s assignment", JSVariable)
	}
	s = strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(s, prefix)), ";")
	return storage.DecodeProducts([]byte(s))
}
