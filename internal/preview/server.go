/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package preview serves the website locally with the live catalog, so the
// operator can check a change before publishing it.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	applog "gocatalog/internal/log"
)

// Options locates what the server exposes.
type Options struct {
	Addr string
	// Root is the catalog root; images and the index live below it.
	Root string
	// Source is the catalog file rendered at /js/products.js.
	Source string
	// WebDir is served as the site; empty disables static files.
	WebDir string
	// ShutdownTimeout bounds graceful shutdown. Zero means 5s.
	ShutdownTimeout time.Duration
	// APIRate limits /api requests per second and client. Zero means 20.
	APIRate float64
}

// NewRouter builds the preview routes:
//
//	GET /js/products.js              catalog rendered from Source
//	GET /api/products                all products (?category=, ?q= search)
//	GET /api/products/{id}           one product
//	GET /api/products/{id}/thumb     PNG thumbnail (?size=, default 90)
//	GET /images/*                    imported images
//	GET /*                           WebDir
func NewRouter(opt Options, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = applog.WithComponent("preview")
	}
	h := &handlers{opt: opt, log: logger}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(structuredLogger(logger))
	mux.Use(recoverer(logger))

	mux.Get("/js/products.js", h.productsJS)
	mux.Route("/api/products", func(r chi.Router) {
		r.Use(rateLimit(opt.APIRate, logger))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/thumb", h.thumb)
	})
	mux.Handle("/images/*", noDirListing(http.StripPrefix("/images/", http.FileServer(http.Dir(h.imagesDir())))))
	if opt.WebDir != "" {
		mux.Handle("/*", noDirListing(http.FileServer(http.Dir(opt.WebDir))))
	}
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully. ready, when
// non-nil, receives the bound address once the listener is up.
func Run(ctx context.Context, opt Options, ready func(addr string)) error {
	logger := applog.WithComponent("preview")
	ln, err := net.Listen("tcp", opt.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opt.Addr, err)
	}
	srv := &http.Server{
		Handler:           NewRouter(opt, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	timeout := opt.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("preview server listening", slog.String("addr", ln.Addr().String()))
		if ready != nil {
			ready(ln.Addr().String())
		}
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("preview server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down preview server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// structuredLogger logs one line per request.
func structuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request completed",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Float64("duration_ms", float64(time.Since(start).Nanoseconds())/1e6),
				)
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

// recoverer turns a handler panic into a 500 and keeps the server running.
func recoverer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						slog.Any("panic", rvr),
						slog.String("request_id", middleware.GetReqID(r.Context())),
					)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// noDirListing answers 404 for directory paths instead of an index page.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; p != "/" && p != "" && p[len(p)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
