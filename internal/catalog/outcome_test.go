/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"gocatalog/internal/domain"
)

func TestOutcomeUnexpectedError(t *testing.T) {
	ok, msg := Outcome(OpDelete, domain.Product{}, errors.New("boom"))
	assert.False(t, ok)
	assert.Equal(t, "Erreur inattendue.", msg)
}

func TestOutcomeSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("cli: %w", &Error{Kind: ErrNotFound, Msg: MsgNotFound})
	ok, msg := Outcome(OpUpdate, domain.Product{}, err)
	assert.False(t, ok)
	assert.Equal(t, MsgNotFound, msg)
}

func TestExportOutcome(t *testing.T) {
	ok, msg := ExportOutcome("web/js/products.js", 3, nil)
	assert.True(t, ok)
	assert.Equal(t, "Fichier products.js mis à jour avec succès (3 produit(s)).", msg)

	ok, msg = ExportOutcome("web/js/products.js", 0, SourceUnavailable(errors.New("missing")))
	assert.False(t, ok)
	assert.Equal(t, MsgSourceMissing, msg)
	assert.ErrorIs(t, SourceUnavailable(nil), ErrSourceUnavailable)
}
