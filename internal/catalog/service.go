/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog implements validated CRUD over the product collection.
// The Service keeps the collection in memory, re-reads it from the Store
// before every query and writes the whole collection back after every
// change. A failed write undoes the in-memory change.
package catalog

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"gocatalog/internal/domain"
	applog "gocatalog/internal/log"
)

// Store persists the whole collection. *storage.Store implements it.
type Store interface {
	Load() []domain.Product
	Save([]domain.Product) error
}

// Service owns the in-memory collection and the id counter.
type Service struct {
	mu       sync.Mutex
	store    Store
	products []domain.Product
	nextID   int
	validate *validator.Validate
	log      *slog.Logger
}

// New loads the collection once and computes the next id.
func New(store Store) *Service {
	s := &Service{
		store:    store,
		nextID:   1,
		validate: validator.New(),
		log:      applog.WithComponent("catalog"),
	}
	s.reload()
	return s
}

// reload re-reads the collection. The id counter only moves up so ids
// freed by a delete are not handed out again.
func (s *Service) reload() {
	s.products = s.store.Load()
	if next := domain.MaxID(s.products) + 1; next > s.nextID {
		s.nextID = next
	}
}

// GetAll re-reads the store and returns the collection, newest first.
func (s *Service) GetAll() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reload()
	return domain.CloneAll(s.products)
}

// Snapshot returns the in-memory collection without touching the store.
func (s *Service) Snapshot() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneAll(s.products)
}

// GetByID re-reads the store and returns the product with id.
func (s *Service) GetByID(id int) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reload()
	i := domain.IndexOf(s.products, id)
	if i < 0 {
		return domain.Product{}, &Error{Kind: ErrNotFound, Msg: MsgNotFound}
	}
	return s.products[i].Clone(), nil
}

// Add validates in, prepends the new product and saves the collection.
func (s *Service) Add(in domain.Input) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := applog.WithOperation(s.log, "add")

	p, err := normalize(s.validate, in)
	if err != nil {
		l.Debug("rejected", slog.String("reason", Message(err)))
		return domain.Product{}, err
	}
	p.ID = s.nextID
	s.products = slices.Insert(s.products, 0, p)
	s.nextID++

	if err := s.store.Save(s.products); err != nil {
		s.products = slices.Delete(s.products, 0, 1)
		s.nextID--
		l.Error("save failed", slog.Int("id", p.ID), slog.Any("err", err))
		return domain.Product{}, &Error{Kind: ErrStorage, Msg: MsgAddFailed, Err: err}
	}
	l.Info("product added", slog.Int("id", p.ID), slog.String("name", p.Name))
	return p.Clone(), nil
}

// Update validates in and replaces every field of product id but the id.
func (s *Service) Update(id int, in domain.Input) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := applog.WithOperation(s.log, "update").With(slog.Int("id", id))

	p, err := normalize(s.validate, in)
	if err != nil {
		l.Debug("rejected", slog.String("reason", Message(err)))
		return domain.Product{}, err
	}
	i := domain.IndexOf(s.products, id)
	if i < 0 {
		return domain.Product{}, &Error{Kind: ErrNotFound, Msg: MsgNotFound}
	}
	p.ID = id
	prev := s.products[i]
	s.products[i] = p

	if err := s.store.Save(s.products); err != nil {
		s.products[i] = prev
		l.Error("save failed", slog.Any("err", err))
		return domain.Product{}, &Error{Kind: ErrStorage, Msg: MsgUpdateFailed, Err: err}
	}
	l.Info("product updated", slog.String("name", p.Name))
	return p.Clone(), nil
}

// Delete removes product id and saves the collection. The removed product
// is returned.
func (s *Service) Delete(id int) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := applog.WithOperation(s.log, "delete").With(slog.Int("id", id))

	i := domain.IndexOf(s.products, id)
	if i < 0 {
		return domain.Product{}, &Error{Kind: ErrNotFound, Msg: MsgNotFound}
	}
	removed := s.products[i]
	s.products = slices.Delete(s.products, i, i+1)

	if err := s.store.Save(s.products); err != nil {
		s.products = slices.Insert(s.products, i, removed)
		l.Error("save failed", slog.Any("err", err))
		return domain.Product{}, &Error{Kind: ErrStorage, Msg: MsgDeleteFailed, Err: err}
	}
	l.Info("product deleted", slog.String("name", removed.Name))
	return removed.Clone(), nil
}
