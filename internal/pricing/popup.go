// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/stxworks/osksite/internal/store"
)

// Popup policy: shown at most once per 7 days, and only while at least one
// promotion is effectively active. If an unresolved cookie-consent banner is
// present, the popup waits for the decision, but no longer than 10 seconds,
// so it is never suppressed indefinitely.
const (
	popupDaysBetween   = 7
	consentWaitMax     = 10 * time.Second
	consentPollEvery   = 500 * time.Millisecond
	popupThrottleKey   = store.KeyPromoPopupShown
	cookieConsentKey   = store.KeyCookieConsent
	popupTimestampForm = time.RFC3339
)

// ConsentState mirrors the stored cookie-consent decision.
type ConsentState struct {
	Necessary bool  `json:"necessary"`
	Analytics bool  `json:"analytics"`
	Marketing bool  `json:"marketing"`
	Timestamp int64 `json:"timestamp"`
}

// PopupDecision is the outcome of a popup evaluation.
type PopupDecision struct {
	Show       bool
	Promotions []Entry
	SoonestEnd *time.Time
}

// PopupGate applies the promo popup throttle policy.
type PopupGate struct {
	engine *Engine
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time

	// test seams
	waitMax   time.Duration
	pollEvery time.Duration
}

// NewPopupGate creates a popup gate over the engine and the local store.
func NewPopupGate(engine *Engine, kv store.KV, logger *slog.Logger) *PopupGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &PopupGate{
		engine:    engine,
		kv:        kv,
		logger:    logger,
		now:       time.Now,
		waitMax:   consentWaitMax,
		pollEvery: consentPollEvery,
	}
}

// ShouldShow reports whether the popup passes the throttle: at least one
// active promotion and no popup shown in the last 7 days.
func (g *PopupGate) ShouldShow(ctx context.Context) bool {
	if len(g.engine.ListActivePromotions()) == 0 {
		return false
	}

	raw, err := g.kv.Get(ctx, popupThrottleKey)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			g.logger.Warn("popup throttle read failed", "category", "pricing", "error", err)
		}
		return true
	}

	lastShown, err := time.Parse(popupTimestampForm, raw)
	if err != nil {
		// Malformed state counts as never shown.
		return true
	}

	days := g.now().Sub(lastShown).Hours() / 24
	return days >= popupDaysBetween
}

// MaybeShow evaluates the popup policy. When an unresolved consent banner is
// present it waits (bounded) for the decision first. On a positive decision
// the throttle timestamp is updated immediately.
func (g *PopupGate) MaybeShow(ctx context.Context) (PopupDecision, error) {
	if !g.ShouldShow(ctx) {
		return PopupDecision{}, nil
	}

	g.waitForConsent(ctx)

	// Re-check: promos may have expired while waiting.
	promos := g.engine.ListActivePromotions()
	if len(promos) == 0 || !g.ShouldShow(ctx) {
		return PopupDecision{}, nil
	}

	if err := g.kv.Set(ctx, popupThrottleKey, g.now().Format(popupTimestampForm)); err != nil {
		return PopupDecision{}, err
	}

	return PopupDecision{
		Show:       true,
		Promotions: promos,
		SoonestEnd: g.engine.SoonestPromoEnd(),
	}, nil
}

// ConsentResolved reports whether a cookie-consent decision has been stored.
func (g *PopupGate) ConsentResolved(ctx context.Context) bool {
	raw, err := g.kv.Get(ctx, cookieConsentKey)
	if err != nil {
		return false
	}
	var state ConsentState
	return json.Unmarshal([]byte(raw), &state) == nil
}

// waitForConsent polls for a consent decision up to the configured cap, then
// gives up and lets the popup proceed regardless.
func (g *PopupGate) waitForConsent(ctx context.Context) {
	if g.ConsentResolved(ctx) {
		return
	}

	deadline := time.NewTimer(g.waitMax)
	defer deadline.Stop()
	poll := time.NewTicker(g.pollEvery)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-poll.C:
			if g.ConsentResolved(ctx) {
				return
			}
		}
	}
}
