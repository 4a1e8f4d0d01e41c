/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package preview

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"gocatalog/internal/assets"
	"gocatalog/internal/domain"
	"gocatalog/internal/export"
	"gocatalog/internal/storage"
)

type handlers struct {
	opt Options
	log *slog.Logger
}

func (h *handlers) imagesDir() string { return filepath.Join(h.opt.Root, assets.ImagesDir) }

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("encode response", slog.Any("err", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}

// load reads the catalog strictly; the preview must not show an empty
// site for a broken file.
func (h *handlers) load(w http.ResponseWriter) ([]domain.Product, bool) {
	ps, err := storage.ReadStrict(h.opt.Source)
	if err != nil {
		h.log.Warn("catalog unavailable", slog.String("source", h.opt.Source), slog.Any("err", err))
		respondError(w, h.log, http.StatusServiceUnavailable, "catalog unavailable")
		return nil, false
	}
	return ps, true
}

func (h *handlers) productsJS(w http.ResponseWriter, r *http.Request) {
	ps, ok := h.load(w)
	if !ok {
		return
	}
	body, err := export.Render(ps)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	ps, ok := h.load(w)
	if !ok {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if q == "" {
		out := make([]domain.Product, 0, len(ps))
		for _, p := range ps {
			if category == "" || strings.EqualFold(p.Category, category) {
				out = append(out, p)
			}
		}
		respondJSON(w, h.log, http.StatusOK, out)
		return
	}

	if err := storage.UpdateIndex(r.Context(), h.opt.Root, ps); err != nil {
		h.log.Error("index update failed", slog.Any("err", err))
		respondError(w, h.log, http.StatusInternalServerError, "search unavailable")
		return
	}
	hits, err := storage.Search(r.Context(), h.opt.Root, storage.SearchQuery{Text: q, Category: category})
	if err != nil {
		h.log.Error("search failed", slog.Any("err", err))
		respondError(w, h.log, http.StatusInternalServerError, "search unavailable")
		return
	}
	out := make([]domain.Product, 0, len(hits))
	for _, hit := range hits {
		if i := domain.IndexOf(ps, hit.ID); i >= 0 {
			out = append(out, ps[i])
		}
	}
	respondJSON(w, h.log, http.StatusOK, out)
}

func (h *handlers) find(w http.ResponseWriter, r *http.Request) (domain.Product, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		respondError(w, h.log, http.StatusBadRequest, "invalid id: "+raw)
		return domain.Product{}, false
	}
	ps, ok := h.load(w)
	if !ok {
		return domain.Product{}, false
	}
	i := domain.IndexOf(ps, id)
	if i < 0 {
		respondError(w, h.log, http.StatusNotFound, "product not found")
		return domain.Product{}, false
	}
	return ps[i], true
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.find(w, r); ok {
		respondJSON(w, h.log, http.StatusOK, p)
	}
}

func (h *handlers) thumb(w http.ResponseWriter, r *http.Request) {
	p, ok := h.find(w, r)
	if !ok {
		return
	}
	size := assets.DefaultThumbSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 16 || n > 1024 {
			respondError(w, h.log, http.StatusBadRequest, "size must be between 16 and 1024")
			return
		}
		size = n
	}
	var blob []byte
	var err error
	if assets.Exists(h.opt.Root, p.ImagePath) {
		blob, err = assets.Thumbnail(r.Context(), h.opt.Root, p.ImagePath, size)
	}
	if blob == nil {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			h.log.Warn("thumbnail failed, using placeholder", slog.Int("id", p.ID), slog.Any("err", err))
		}
		blob, err = assets.Placeholder(p.Name, size)
		if err != nil {
			respondError(w, h.log, http.StatusInternalServerError, "thumbnail failed")
			return
		}
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(blob)
}
