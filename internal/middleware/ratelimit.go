// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/stxworks/osksite/internal/i18n"
	"github.com/stxworks/osksite/internal/util"
)

// limiterCacheMaxSize bounds the per-key limiter map. The cache is
// flushed wholesale when exceeded; losing limiter state under that much
// address churn is acceptable.
const limiterCacheMaxSize = 10000

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds clears all entries if the cache exceeds maxSize.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// LoginRateLimit rate limits POST requests per client IP. It sits in
// front of the login handler so a single address cannot hammer the
// credential endpoint; the account lockout counters are tracked
// separately by the access guard.
func LoginRateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	cache := newLimiterCache[string](rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			cache.clearIfExceeds(limiterCacheMaxSize)

			ip := util.ClientIP(r)
			if !cache.get(ip).Allow() {
				WriteError(w, http.StatusTooManyRequests, i18n.T(i18n.DefaultLanguage, "auth.rate_limit"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PublicRateLimit rate limits all requests per client IP. Used on the
// public form endpoints that trigger outbound email.
func PublicRateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	cache := newLimiterCache[string](rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cache.clearIfExceeds(limiterCacheMaxSize)

			ip := util.ClientIP(r)
			if !cache.get(ip).Allow() {
				WriteError(w, http.StatusTooManyRequests, i18n.T(i18n.DefaultLanguage, "auth.rate_limit"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
