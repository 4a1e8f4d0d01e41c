//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests need Fyne and cgo:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
)

func TestThemeForSystemFollowsOS(t *testing.T) {
	if th := themeFor("system"); th != nil {
		t.Fatalf("expected nil theme for system, got %T", th)
	}
	if th := themeFor(""); th != nil {
		t.Fatalf("expected nil theme for empty name, got %T", th)
	}
}

func TestThemeForPinsVariant(t *testing.T) {
	def := theme.DefaultTheme()
	dark := themeFor("Dark")
	if dark == nil {
		t.Fatal("expected a dark theme")
	}
	got := dark.Color(theme.ColorNameBackground, theme.VariantLight)
	want := def.Color(theme.ColorNameBackground, theme.VariantDark)
	if got != want {
		t.Fatalf("dark theme background = %v, want %v", got, want)
	}
	light := themeFor("light")
	got = light.Color(theme.ColorNameForeground, theme.VariantDark)
	want = def.Color(theme.ColorNameForeground, theme.VariantLight)
	if got != want {
		t.Fatalf("light theme foreground = %v, want %v", got, want)
	}
}

func TestImageFilterAcceptsUpperCase(t *testing.T) {
	f := imageFilter()
	for _, name := range []string{"file:///tmp/a.png", "file:///tmp/B.JPG", "file:///tmp/c.webp"} {
		u, err := storage.ParseURI(name)
		if err != nil {
			t.Fatal(err)
		}
		if !f.Matches(u) {
			t.Fatalf("filter should accept %s", name)
		}
	}
	u, _ := storage.ParseURI("file:///tmp/notes.txt")
	if f.Matches(u) {
		t.Fatal("filter should reject .txt")
	}
}
