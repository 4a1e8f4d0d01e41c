/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"fmt"
	"path/filepath"

	"gocatalog/internal/domain"
)

// Op names a mutating operation for Outcome.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Outcome reduces an operation result to the success flag and message shown
// to the operator.
func Outcome(op Op, p domain.Product, err error) (bool, string) {
	if err != nil {
		return false, Message(err)
	}
	switch op {
	case OpAdd:
		return true, fmt.Sprintf("Produit '%s' ajouté avec succès.", p.Name)
	case OpUpdate:
		return true, fmt.Sprintf("Produit '%s' mis à jour.", p.Name)
	case OpDelete:
		return true, fmt.Sprintf("Produit '%s' supprimé.", p.Name)
	}
	return true, ""
}

// ExportOutcome is Outcome for a publish of n products to the file target.
func ExportOutcome(target string, n int, err error) (bool, string) {
	if err != nil {
		return false, Message(err)
	}
	return true, fmt.Sprintf("Fichier %s mis à jour avec succès (%d produit(s)).", filepath.Base(target), n)
}
