/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package preview

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAPIRate = 20
	visitorTTL     = 5 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors hands out one token bucket per client address.
type visitors struct {
	mu    sync.Mutex
	rate  rate.Limit
	burst int
	byIP  map[string]*visitor
	swept time.Time
}

func newVisitors(perSecond float64) *visitors {
	if perSecond <= 0 {
		perSecond = defaultAPIRate
	}
	burst := int(2 * perSecond)
	if burst < 1 {
		burst = 1
	}
	return &visitors{rate: rate.Limit(perSecond), burst: burst, byIP: map[string]*visitor{}, swept: time.Now()}
}

func (v *visitors) get(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := time.Now()
	if now.Sub(v.swept) > time.Minute {
		for k, c := range v.byIP {
			if now.Sub(c.lastSeen) > visitorTTL {
				delete(v.byIP, k)
			}
		}
		v.swept = now
	}
	c, ok := v.byIP[ip]
	if !ok {
		c = &visitor{limiter: rate.NewLimiter(v.rate, v.burst)}
		v.byIP[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// rateLimit answers 429 once a client exceeds its request budget.
func rateLimit(perSecond float64, logger *slog.Logger) func(http.Handler) http.Handler {
	v := newVisitors(perSecond)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !v.get(ip).Allow() {
				w.Header().Set("Retry-After", "1")
				respondError(w, logger, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
