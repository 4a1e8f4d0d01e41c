/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed schema/products.schema.json
var productsSchema []byte

// SchemaJSON returns the JSON Schema describing products.json.
func SchemaJSON() []byte { return append([]byte(nil), productsSchema...) }

// Problem is one violation reported by Check.
type Problem struct {
	Field   string
	Message string
}

func (p Problem) String() string { return p.Field + ": " + p.Message }

// CheckError lists every problem found in a catalog file.
type CheckError struct {
	Problems []Problem
}

func (e *CheckError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("catalog has %d problem(s): %s", len(e.Problems), strings.Join(parts, "; "))
}

// Check validates the catalog file at path against the schema and verifies
// that ids are unique. It returns a *CheckError for content problems and a
// plain error when the file cannot be read or is not JSON.
func Check(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return CheckBytes(data)
}

// CheckBytes is Check for in-memory content.
func CheckBytes(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(productsSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	var problems []Problem
	for _, e := range result.Errors() {
		problems = append(problems, Problem{Field: e.Field(), Message: e.Description()})
	}
	if result.Valid() {
		ps, err := DecodeProducts(data)
		if err != nil {
			return err
		}
		seen := make(map[int]int, len(ps))
		for i, p := range ps {
			if j, dup := seen[p.ID]; dup {
				problems = append(problems, Problem{
					Field:   fmt.Sprintf("%d.id", i),
					Message: fmt.Sprintf("id %d already used by item %d", p.ID, j),
				})
				continue
			}
			seen[p.ID] = i
		}
	}
	if len(problems) > 0 {
		return &CheckError{Problems: problems}
	}
	return nil
}

// IsCheckError reports whether err carries content problems.
func IsCheckError(err error) bool {
	var ce *CheckError
	return errors.As(err, &ce)
}
