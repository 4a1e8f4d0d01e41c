/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gocatalog/internal/catalog"
	"gocatalog/internal/domain"
	"gocatalog/internal/storage"
)

func tickingClock() func() time.Time {
	t := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// newFixture writes a catalog with two products and returns a Publisher for it.
func newFixture(t *testing.T) (*Publisher, string) {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, storage.DataFileName)
	st, err := storage.Open(src, filepath.Join(root, "backups", "db_backups"))
	if err != nil {
		t.Fatal(err)
	}
	err = st.Save([]domain.Product{
		{ID: 2, Name: "Sac", Price: 40, Rating: 5, Icon: domain.DefaultIcon},
		{ID: 1, Name: "Robe", Price: 25.5, Category: "Mode & Vêtements", Rating: 4, Badge: domain.OptionalText("Nouveau"), Description: "<b>été</b>", Icon: domain.DefaultIcon},
	})
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPublisher(src, filepath.Join(root, DefaultTarget), filepath.Join(root, "backups", "js_backups"), WithClock(tickingClock()))
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}
	return p, root
}

func TestExportWritesScriptAssignment(t *testing.T) {
	p, _ := newFixture(t)
	n, err := p.Export()
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	if n != 2 {
		t.Fatalf("exported %d products, want 2", n)
	}
	b, err := os.ReadFile(p.Target())
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.HasPrefix(s, "const products = [\n  {\n    \"id\": 2,") || !strings.HasSuffix(s, "];\n") {
		t.Fatalf("unexpected artifact:\n%s", s)
	}
	if !strings.Contains(s, `"description": "<b>été</b>"`) {
		t.Fatalf("text should be written verbatim:\n%s", s)
	}
	ps, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(ps) != 2 || ps[1].BadgeText() != "Nouveau" || ps[0].Badge != nil {
		t.Fatalf("round trip mismatch: %+v", ps)
	}
}

func TestExportIsIdempotent(t *testing.T) {
	p, _ := newFixture(t)
	if _, err := p.Export(); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(p.Target())
	if _, err := p.Export(); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(p.Target())
	if !bytes.Equal(first, second) {
		t.Fatalf("export not byte-identical")
	}
	backups, err := p.Backups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup of the first artifact, got %v", backups)
	}
	if !strings.HasSuffix(backups[0], ".js") || !strings.HasPrefix(filepath.Base(backups[0]), "products_") {
		t.Fatalf("unexpected backup name %s", backups[0])
	}
	if ok, err := p.InSync(); err != nil || !ok {
		t.Fatalf("InSync = %v, %v", ok, err)
	}
}

func TestExportFailsWhenSourceUnavailable(t *testing.T) {
	for name, corrupt := range map[string]func(string) error{
		"missing":     os.Remove,
		"unparseable": func(p string) error { return os.WriteFile(p, []byte("[{"), 0o644) },
	} {
		t.Run(name, func(t *testing.T) {
			p, _ := newFixture(t)
			if _, err := p.Export(); err != nil {
				t.Fatal(err)
			}
			before, _ := os.ReadFile(p.Target())
			if err := corrupt(p.Source()); err != nil {
				t.Fatal(err)
			}
			_, err := p.Export()
			if !errors.Is(err, catalog.ErrSourceUnavailable) {
				t.Fatalf("expected ErrSourceUnavailable, got %v", err)
			}
			after, _ := os.ReadFile(p.Target())
			if !bytes.Equal(before, after) {
				t.Fatalf("target changed after failed export")
			}
			if _, err := p.InSync(); !errors.Is(err, catalog.ErrSourceUnavailable) {
				t.Fatalf("InSync should report the source, got %v", err)
			}
		})
	}
}

func TestExportDetectsStaleTarget(t *testing.T) {
	p, _ := newFixture(t)
	if ok, err := p.InSync(); err != nil || ok {
		t.Fatalf("missing target should not be in sync: %v %v", ok, err)
	}
	if _, err := p.Export(); err != nil {
		t.Fatal(err)
	}
	st, err := storage.Open(p.Source(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Save(st.Load()[:1]); err != nil {
		t.Fatal(err)
	}
	if ok, _ := p.InSync(); ok {
		t.Fatalf("target should be stale after the catalog changed")
	}
}

func TestParseRejectsOtherScripts(t *testing.T) {
	if _, err := Parse([]byte("var items = [];")); err == nil {
		t.Fatalf("expected error")
	}
	ps, err := Parse([]byte("const products = [];\n"))
	if err != nil || len(ps) != 0 {
		t.Fatalf("Parse empty = %v, %v", ps, err)
	}
}

func TestRenderEmptyCatalog(t *testing.T) {
	b, err := Render(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "const products = [];\n" {
		t.Fatalf("Render(nil) = %q", b)
	}
}
