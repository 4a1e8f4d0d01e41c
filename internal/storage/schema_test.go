/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckAcceptsSavedCatalog(t *testing.T) {
	s, _ := openTestStore(t)
	if err := s.Save(sampleProducts()); err != nil {
		t.Fatal(err)
	}
	if err := Check(s.Path()); err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if err := CheckBytes([]byte("[]")); err != nil {
		t.Fatalf("empty catalog should be valid: %v", err)
	}
}

func TestCheckReportsContentProblems(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want string
	}{
		"zero price":   {`[{"id":1,"name":"Robe","price":0}]`, "price"},
		"blank name":   {`[{"id":1,"name":"   ","price":3}]`, "name"},
		"missing id":   {`[{"name":"Robe","price":3}]`, "id"},
		"rating":       {`[{"id":1,"name":"Robe","price":3,"rating":9}]`, "rating"},
		"not an array": {`{"id":1}`, "root"},
		"duplicate id": {`[{"id":1,"name":"Robe","price":3},{"id":1,"name":"Sac","price":4}]`, "already used"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := CheckBytes([]byte(tc.doc))
			if err == nil {
				t.Fatalf("expected problems for %s", tc.doc)
			}
			if !IsCheckError(err) {
				t.Fatalf("expected *CheckError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCheckUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	if err := Check(filepath.Join(dir, "missing.json")); err == nil || IsCheckError(err) {
		t.Fatalf("missing file should be a plain error, got %v", err)
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Check(bad); err == nil || IsCheckError(err) {
		t.Fatalf("malformed JSON should be a plain error, got %v", err)
	}
}

func TestSchemaJSONIsACopy(t *testing.T) {
	a := SchemaJSON()
	a[0] = 'x'
	if SchemaJSON()[0] != '{' {
		t.Fatalf("SchemaJSON exposes the embedded bytes")
	}
}
