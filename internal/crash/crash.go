/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and an emergency copy of
// the in-memory catalog.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"gocatalog/internal/domain"
	applog "gocatalog/internal/log"
	"gocatalog/internal/storage"
	"gocatalog/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Target tells Recover where to write and what to save.
type Target struct {
	// BackupDir receives the crash report and the emergency snapshot.
	BackupDir string
	// Snapshot returns the in-memory collection. It may be nil.
	Snapshot func() []domain.Product
}

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and saves an emergency snapshot
// of the catalog (if t provides one).
//
// Usage: defer crash.Recover(t)
func Recover(t *Target) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(t, r, stack)
		if t != nil && t.Snapshot != nil {
			if path, err := writeSnapshot(t); err != nil {
				l.Error("emergency snapshot failed", slog.Any("err", err))
			} else {
				l.Info("emergency snapshot written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

func reportDir(t *Target) string {
	if t != nil && t.BackupDir != "" {
		if err := os.MkdirAll(t.BackupDir, 0o755); err == nil {
			return t.BackupDir
		}
	}
	return os.TempDir()
}

func writeReport(t *Target, panicVal any, stack []byte) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(reportDir(t), fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "gocatalog crash report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if t != nil && t.BackupDir != "" {
		_, _ = fmt.Fprintf(&buf, "Backups: %s\n", t.BackupDir)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}

// writeSnapshot stores the in-memory collection as
// products_emergency_<stamp>.json. The name does not parse as a regular
// backup, so retention never prunes it.
func writeSnapshot(t *Target) (path string, err error) {
	defer func() {
		// a broken snapshot func must not mask the original panic
		if r := recover(); r != nil {
			err = fmt.Errorf("snapshot: %v", r)
		}
	}()
	data, err := storage.EncodeProducts(t.Snapshot())
	if err != nil {
		return "", err
	}
	path = filepath.Join(reportDir(t), "products_emergency_"+time.Now().Format(storage.BackupStampLayout)+".json")
	return path, storage.WriteFileAtomic(path, data)
}
