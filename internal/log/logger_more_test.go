/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("GCAT_LOG_LEVEL", "warn")
	t.Setenv("GCAT_LOG_FORMAT", "json")
	t.Setenv("GCAT_LOG_SOURCE", "yes")
	t.Setenv("GCAT_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := envOr("GCAT_SURELY_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("envOr fallback failed: %q", v)
	}
}

func TestConsoleHandler_Behavior(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{w: &buf, mu: &sync.Mutex{}, level: slog.LevelWarn}
	ctx := context.Background()

	if h.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("app", "gocatalog"), slog.String("component", "store")})
	h2 = h2.WithGroup("save")

	r := slog.NewRecord(time.Now(), slog.LevelError, "rename failed", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("price", 25.5), slog.String("path", "my file.json"))
	if err := h2.Handle(ctx, r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ERR", "rename failed", "component=store", "save.n=42", "save.price=25.5", `save.path="my file.json"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "app=") {
		t.Fatalf("static app attr should be hidden on console: %q", out)
	}
}

func TestConsoleHandlerSourceOnAnyGoVersion(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{w: &buf, mu: &sync.Mutex{}, level: slog.LevelInfo, addSource: true}
	var pcs [1]uintptr
	runtime.Callers(1, pcs[:])
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "catalog saved", pcs[0])
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "catalog saved") {
		t.Fatalf("message missing: %q", out)
	}
	_, hasSource := any(r).(interface{ Source() *slog.Source })
	if hasSource && !strings.Contains(out, "logger_more_test.go:") {
		t.Fatalf("source location missing: %q", out)
	}
	if !hasSource && strings.Contains(out, "src=") {
		t.Fatalf("unexpected source on this Go version: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, " WARNING ": slog.LevelWarn, "error": slog.LevelError, "bogus": slog.LevelInfo}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
