/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import "errors"

// Error kinds. Match them with errors.Is.
var (
	ErrValidation        = errors.New("invalid product")
	ErrNotFound          = errors.New("product not found")
	ErrStorage           = errors.New("catalog storage failed")
	ErrSourceUnavailable = errors.New("catalog source unavailable")
)

// User-facing messages.
const (
	MsgNameRequired    = "Le nom du produit est obligatoire."
	MsgPricePositive   = "Le prix doit être un nombre supérieur à 0."
	MsgPriceInvalid    = "Le prix doit être un nombre valide."
	MsgRatingRange     = "La note doit être comprise entre 1 et 5."
	MsgNotFound        = "Produit non trouvé."
	MsgAddFailed       = "Erreur lors de la sauvegarde du produit."
	MsgUpdateFailed    = "Erreur lors de la sauvegarde des modifications."
	MsgDeleteFailed    = "Erreur lors de la suppression du produit."
	MsgSourceMissing   = "Le fichier des produits est introuvable ou illisible."
	MsgExportFailed    = "Erreur lors de l'export."
	msgUnexpectedError = "Erreur inattendue."
)

// Error is returned by every Service operation. Kind is one of the Err*
// sentinels, Msg the message shown to the operator and Err the cause, if any.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Error() + ": " + e.Err.Error()
	}
	return e.Kind.Error() + ": " + e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalid(msg string) *Error { return &Error{Kind: ErrValidation, Msg: msg} }

// SourceUnavailable wraps a failed read of the catalog file.
func SourceUnavailable(err error) *Error {
	return &Error{Kind: ErrSourceUnavailable, Msg: MsgSourceMissing, Err: err}
}

// Message returns the operator message carried by err, or a generic one.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return msgUnexpectedError
}
