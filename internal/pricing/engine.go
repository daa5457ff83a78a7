// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package pricing

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/stxworks/osksite/internal/gateway"
)

// reloadDelay is how long after a countdown expires the catalog is reloaded,
// so readers pick up the entry's reverted non-promotional state.
const reloadDelay = 2 * time.Second

// Engine maintains the in-memory price catalog. The catalog is replaced
// wholesale on every load; readers never observe a half-updated catalog.
type Engine struct {
	gw     *gateway.Client
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	entries  []Entry
	bySlug   map[string]int
	fallback bool // last load served the built-in list

	timersMu sync.Mutex
	timers   []*time.Timer
	closed   bool
}

// NewEngine creates a pricing engine over the given gateway client.
func NewEngine(gw *gateway.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		gw:     gw,
		logger: logger,
		now:    time.Now,
		bySlug: make(map[string]int),
	}
}

// LoadCatalog fetches all entries from the gateway, derives promo state for
// each, and replaces the cache. On any gateway error it falls back to the
// fixed built-in price list so the site never shows blank prices; the
// fallback carries no promos. Loading twice against an unchanged remote
// dataset yields the same effective prices.
func (e *Engine) LoadCatalog(ctx context.Context) error {
	now := e.now()

	rows, err := e.gw.ListPrices(ctx)
	if err != nil {
		e.logger.Warn("failed to load prices, using fallback list", "category", "pricing", "error", err)
		e.replace(FallbackCatalog(), true)
		return nil
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].SortOrder < rows[j].SortOrder })

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = normalizeEntry(row, now)
	}
	e.replace(entries, false)

	e.logger.Info("price catalog loaded", "count", len(entries))
	return nil
}

// replace swaps in a new catalog wholesale.
func (e *Engine) replace(entries []Entry, fallback bool) {
	bySlug := make(map[string]int, len(entries))
	for i, entry := range entries {
		bySlug[entry.Slug] = i
	}

	e.mu.Lock()
	e.entries = entries
	e.bySlug = bySlug
	e.fallback = fallback
	e.mu.Unlock()
}

// Entry returns the cached entry for slug. Callers must have loaded the
// catalog at least once; a missing slug simply yields ok=false.
func (e *Engine) Entry(slug string) (Entry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i, ok := e.bySlug[slug]
	if !ok {
		return Entry{}, false
	}
	return e.entries[i], true
}

// Entries returns a copy of the cached catalog in sort order.
func (e *Engine) Entries() []Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// UsingFallback reports whether the last load served the built-in list.
func (e *Engine) UsingFallback() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fallback
}

// EffectivePrice returns the price to display right now.
func (e *Engine) EffectivePrice(entry Entry) float64 {
	return entry.EffectivePriceAt(e.now())
}

// ListActivePromotions filters the cached catalog to entries whose promotion
// is effectively active right now. Expiry is re-evaluated on every call, never
// cached.
func (e *Engine) ListActivePromotions() []Entry {
	now := e.now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	var active []Entry
	for _, entry := range e.entries {
		if entry.PromoActiveAt(now) {
			active = append(active, entry)
		}
	}
	return active
}

// SoonestPromoEnd returns the earliest end date among active promotions, or
// nil when none has one.
func (e *Engine) SoonestPromoEnd() *time.Time {
	var soonest *time.Time
	for _, entry := range e.ListActivePromotions() {
		if entry.PromoEndDate == nil {
			continue
		}
		if soonest == nil || entry.PromoEndDate.Before(*soonest) {
			t := *entry.PromoEndDate
			soonest = &t
		}
	}
	return soonest
}

// scheduleReload arranges a catalog reload after the given delay. Pending
// reloads are cancelled by Close.
func (e *Engine) scheduleReload(delay time.Duration) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()

	if e.closed {
		return
	}
	e.timers = append(e.timers, time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = e.LoadCatalog(ctx)
	}))
}

// Close cancels pending reload timers. Countdowns are stopped by their owners.
func (e *Engine) Close() {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()

	e.closed = true
	for _, t := range e.timers {
		t.Stop()
	}
	e.timers = nil
}
