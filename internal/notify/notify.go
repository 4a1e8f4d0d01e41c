/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package notify posts a small JSON event to an optional webhook after the
// catalog is published, so the website host can rebuild or purge caches.
// Delivery is best effort: events are queued, sent in the background and
// dropped on errors or when the queue is full. After repeated failures a
// circuit breaker stops calling the webhook for a cooldown period.
package notify

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"

	"gocatalog/internal/config"
	applog "gocatalog/internal/log"
	"gocatalog/internal/version"
)

// EventPublished is sent after products.js was rewritten.
const EventPublished = "catalog.published"

const (
	defaultTimeout  = 1500 * time.Millisecond
	defaultCooldown = 30 * time.Second
	tripAfter       = 3
)

// Config holds the webhook endpoint. An empty URL disables sending.
type Config struct {
	URL     string
	Timeout time.Duration // zero means 1.5s
	// Cooldown is how long the breaker stays open. Zero means 30s.
	Cooldown time.Duration
}

// FromConfig converts the notify section of the app config.
func FromConfig(c config.NotifyConfig) Config {
	return Config{URL: c.WebhookURL, Timeout: time.Duration(c.TimeoutMS) * time.Millisecond}
}

// Event is the JSON body posted to the webhook.
type Event struct {
	Name    string `json:"name"`
	TS      string `json:"ts"`
	Version string `json:"version"`
	File    string `json:"file,omitempty"`
	Count   int    `json:"count"`
	SHA256  string `json:"sha256,omitempty"`
}

// Client is a minimal async sender. It never blocks the caller; the queue is bounded.
type Client struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	cb      *gobreaker.CircuitBreaker[struct{}]
	q       chan Event
	pending atomic.Int64
	once    sync.Once
	closed  chan struct{}
}

// New constructs a client and starts its sender. A zero Timeout means 1.5s.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("notify"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan Event, 16),
		closed: make(chan struct{}),
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	c.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "webhook",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Info("webhook breaker state changed", slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})
	go c.loop()
	return c
}

// Enabled reports whether a webhook is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.URL != "" }

// Published queues EventPublished for the file at target holding count
// products; content is hashed so receivers can skip unchanged catalogs.
func (c *Client) Published(target string, count int, content []byte) {
	if !c.Enabled() {
		return
	}
	sum := sha256.Sum256(content)
	c.enqueue(Event{
		Name:    EventPublished,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Version: version.String(),
		File:    filepath.Base(target),
		Count:   count,
		SHA256:  hex.EncodeToString(sum[:]),
	})
}

func (c *Client) enqueue(ev Event) {
	c.pending.Add(1)
	select {
	case c.q <- ev:
	default:
		c.pending.Add(-1)
		c.log.Warn("notification dropped, queue full", slog.String("event", ev.Name))
	}
}

// Flush waits until queued events are sent, ctx is done or two request
// timeouts have passed.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	deadline := time.Now().Add(2 * c.cfg.Timeout)
	for {
		if c.pending.Load() == 0 || time.Now().After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// Close stops the sender; queued events are discarded.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.closed) })
}

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case ev := <-c.q:
			c.send(ev)
			c.pending.Add(-1)
		}
	}
}

func (c *Client) send(ev Event) {
	buf, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, err = c.cb.Execute(func() (struct{}, error) { return struct{}{}, c.post(buf) })
	switch {
	case err == nil:
		c.log.Debug("webhook event sent", slog.String("event", ev.Name))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.log.Debug("webhook paused, event dropped", slog.String("event", ev.Name))
	default:
		c.log.Warn("webhook send failed", slog.String("event", ev.Name), slog.Any("err", err))
	}
}

func (c *Client) post(body []byte) error {
	req, err := http.NewRequest(http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bad webhook url: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "gocatalog/"+version.String())
	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %d", resp.StatusCode)
	}
	return nil
}
