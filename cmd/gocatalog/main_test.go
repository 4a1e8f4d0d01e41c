/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalogDir isolates a test from the user's config and returns a fresh
// catalog directory.
func catalogDir(t *testing.T) string {
	t.Helper()
	t.Setenv("GCAT_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("GCAT_DATA_DIR", "")
	t.Setenv("GCAT_LOG_LEVEL", "error")
	t.Setenv("GCAT_PG_DSN", "")
	t.Setenv("GCAT_WEBHOOK_URL", "")
	return t.TempDir()
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	code := run(args, &out, &errb)
	return code, out.String(), errb.String()
}

func TestVersionAndUsage(t *testing.T) {
	catalogDir(t)
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "GoCatalog")

	code, _, errOut := runCLI(t, "frobnicate")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "unknown command")
	assert.Contains(t, errOut, "Usage:")
}

func TestInitCreatesCatalog(t *testing.T) {
	dir := catalogDir(t)
	code, out, _ := runCLI(t, "init", "--data-dir", dir)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "0 product(s)")
	assert.FileExists(t, filepath.Join(dir, "products.json"))
	assert.DirExists(t, filepath.Join(dir, "backups", "db_backups"))
}

func TestInitWriteConfig(t *testing.T) {
	dir := catalogDir(t)
	cfgPath := filepath.Join(t.TempDir(), "gcat.yaml")

	code, out, _ := runCLI(t, "init", "-d", dir, "--config", cfgPath, "--write-config")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Wrote config")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "data_dir:")

	// the written data_dir is picked up without --data-dir
	code, out, _ = runCLI(t, "add", "--config", cfgPath, "--name", "Robe", "--price", "10")
	require.Equal(t, exitOK, code, out)
	data, err = os.ReadFile(filepath.Join(dir, "products.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Robe"`)
}

func TestAddUpdateDeleteFlow(t *testing.T) {
	dir := catalogDir(t)

	code, out, errOut := runCLI(t, "add", "-d", dir, "--name", "Robe Lin", "--price", "5000", "--category", "Mode & Vêtements", "--badge", "Nouveau")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Produit 'Robe Lin' ajouté avec succès.")
	assert.Contains(t, out, "id: 1")

	code, _, errOut = runCLI(t, "add", "-d", dir, "--name", "Sac", "--price", "12000", "--rating", "4")
	require.Equal(t, exitOK, code, errOut)

	code, out, _ = runCLI(t, "list", "-d", dir)
	require.Equal(t, exitOK, code)
	assert.Less(t, strings.Index(out, "Sac"), strings.Index(out, "Robe Lin"), "newest first")
	assert.Contains(t, out, "2 product(s)")

	code, out, errOut = runCLI(t, "update", "1", "-d", dir, "--price", "4500")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Produit 'Robe Lin' mis à jour.")

	code, out, _ = runCLI(t, "show", "1", "-d", dir)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, `"price": 4500`)
	assert.Contains(t, out, `"badge": "Nouveau"`, "fields not given to update are kept")

	code, out, _ = runCLI(t, "delete", "2", "-d", dir)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Produit 'Sac' supprimé.")

	code, out, _ = runCLI(t, "list", "-d", dir, "--json")
	require.Equal(t, exitOK, code)
	assert.NotContains(t, out, "Sac")
	assert.Contains(t, out, "Robe Lin")
}

func TestAddRejectsInvalidPrice(t *testing.T) {
	dir := catalogDir(t)
	code, _, errOut := runCLI(t, "add", "-d", dir, "--name", "Robe", "--price", "abc")
	assert.Equal(t, exitFail, code)
	assert.Contains(t, errOut, "Le prix doit être un nombre valide.")
}

func TestUnknownProduct(t *testing.T) {
	dir := catalogDir(t)
	code, _, errOut := runCLI(t, "show", "9", "-d", dir)
	assert.Equal(t, exitFail, code)
	assert.Contains(t, errOut, "Produit non trouvé.")

	code, _, _ = runCLI(t, "delete", "abc", "-d", dir)
	assert.Equal(t, exitFail, code)

	code, _, _ = runCLI(t, "update", "-d", dir)
	assert.Equal(t, exitUsage, code)
}

func TestExportAndCheckSync(t *testing.T) {
	dir := catalogDir(t)
	code, _, _ := runCLI(t, "add", "-d", dir, "--name", "Robe", "--price", "10")
	require.Equal(t, exitOK, code)

	code, out, _ := runCLI(t, "export", "-d", dir, "--check")
	assert.Equal(t, exitFail, code)
	assert.Contains(t, out, "out of date")

	code, out, errOut := runCLI(t, "export", "-d", dir)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Fichier products.js mis à jour avec succès (1 produit(s)).")
	data, err := os.ReadFile(filepath.Join(dir, "web", "js", "products.js"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "const products = ["))

	code, out, _ = runCLI(t, "export", "-d", dir, "--check")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "up to date")
}

func TestExportNotifiesWebhook(t *testing.T) {
	dir := catalogDir(t)
	got := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var ev map[string]any
		_ = json.Unmarshal(b, &ev)
		got <- ev
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	t.Setenv("GCAT_WEBHOOK_URL", srv.URL)

	code, _, _ := runCLI(t, "add", "-d", dir, "--name", "Robe", "--price", "10")
	require.Equal(t, exitOK, code)
	code, _, errOut := runCLI(t, "export", "-d", dir)
	require.Equal(t, exitOK, code, errOut)

	// run flushes pending notifications before returning
	require.Len(t, got, 1)
	ev := <-got
	assert.Equal(t, "catalog.published", ev["name"])
	assert.Equal(t, "products.js", ev["file"])
	assert.EqualValues(t, 1, ev["count"])
}

func TestSyncPGWithoutDSN(t *testing.T) {
	dir := catalogDir(t)
	code, _, errOut := runCLI(t, "sync-pg", "-d", dir)
	assert.Equal(t, exitFail, code)
	assert.Contains(t, errOut, "no PostgreSQL DSN")
}

func TestSyncPG(t *testing.T) {
	dsn := os.Getenv("GCAT_PG_DSN")
	if dsn == "" {
		t.Skip("GCAT_PG_DSN not set")
	}
	dir := catalogDir(t)
	code, _, _ := runCLI(t, "add", "-d", dir, "--name", "Robe", "--price", "10")
	require.Equal(t, exitOK, code)
	code, out, errOut := runCLI(t, "sync-pg", "-d", dir, "--dsn", dsn)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Mirrored 1 product(s)")
}

func TestExportPresetAll(t *testing.T) {
	dir := catalogDir(t)
	code, _, _ := runCLI(t, "add", "-d", dir, "--name", "Robe", "--price", "10")
	require.Equal(t, exitOK, code)

	code, out, errOut := runCLI(t, "export", "-d", dir, "--preset", "all")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, filepath.Join(dir, "web", "js", "products.js"))
	assert.FileExists(t, filepath.Join(dir, "exports", "prix.pdf"))
}

func TestPDF(t *testing.T) {
	dir := catalogDir(t)
	code, _, _ := runCLI(t, "add", "-d", dir, "--name", "Robe", "--price", "10")
	require.Equal(t, exitOK, code)

	out := filepath.Join(t.TempDir(), "liste.pdf")
	code, stdout, errOut := runCLI(t, "pdf", "-d", dir, "-o", out, "--title", "Prix")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, stdout, "1 product(s)")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestSearchAndReindex(t *testing.T) {
	dir := catalogDir(t)
	for _, name := range []string{"Huile Argan", "Robe Soie"} {
		code, _, _ := runCLI(t, "add", "-d", dir, "--name", name, "--price", "10")
		require.Equal(t, exitOK, code)
	}

	code, out, _ := runCLI(t, "search", "-d", dir, "argan")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Huile Argan")
	assert.NotContains(t, out, "Robe Soie")
	assert.Contains(t, out, "1 result(s)")

	code, out, _ = runCLI(t, "reindex", "-d", dir)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "2 product(s)")

	code, out, _ = runCLI(t, "reindex", "-d", dir, "--if-damaged")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Index OK")
}

func TestCheck(t *testing.T) {
	dir := catalogDir(t)
	code, out, _ := runCLI(t, "init", "-d", dir)
	require.Equal(t, exitOK, code, out)
	code, out, _ = runCLI(t, "check", "-d", dir)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "OK")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.json"), []byte(`[{"id":1,"name":"","price":0}]`), 0o644))
	code, out, _ = runCLI(t, "check", "-d", dir)
	assert.Equal(t, exitFail, code)
	assert.Contains(t, out, "problem(s)")
}

func TestBackupsAndRestore(t *testing.T) {
	dir := catalogDir(t)
	code, _, _ := runCLI(t, "add", "-d", dir, "--name", "Robe", "--price", "10")
	require.Equal(t, exitOK, code)

	code, out, _ := runCLI(t, "backups", "-d", dir)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "1 backup(s)")

	code, out, errOut := runCLI(t, "restore", "-d", dir)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Restored 0 product(s)")

	code, out, _ = runCLI(t, "list", "-d", dir)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "0 product(s)")
}

func TestImportImageRejectsText(t *testing.T) {
	dir := catalogDir(t)
	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	code, _, errOut := runCLI(t, "import-image", "-d", dir, src)
	assert.Equal(t, exitFail, code)
	assert.Contains(t, errOut, "unsupported image")
}
