// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pricing owns the price catalog: loading it from the remote gateway
// (with a fixed fallback list), promotional price resolution with expiry
// evaluated at read time, live countdowns, and the promo popup throttle.
package pricing

import (
	"time"

	"github.com/stxworks/osksite/internal/gateway"
)

// Entry is one priceable item as the rest of the application sees it: the
// stored row plus the promo state derived at fetch time. Derived fields are
// never persisted.
type Entry struct {
	gateway.Price

	// PromoExpired is true when the promo end date exists and has passed.
	// Derived on every fetch; expiry is never cached across loads.
	PromoExpired bool

	// Remaining is the time left until the promo ends, zero when expired or
	// when no end date is set.
	Remaining time.Duration
}

// normalizeEntry derives the promo state for a stored price row.
// An expired promo is never shown as active even if the stored flag still says
// so; expiry always wins and is evaluated here, at read time.
func normalizeEntry(p gateway.Price, now time.Time) Entry {
	e := Entry{Price: p}
	if p.PromoEndDate == nil {
		return e
	}
	if !p.PromoEndDate.After(now) {
		e.PromoExpired = true
		return e
	}
	e.Remaining = p.PromoEndDate.Sub(now)
	return e
}

// PromoActiveAt reports whether the entry's promotion is effectively active at
// the given instant: flagged active, has a positive promo price, and not
// expired.
func (e Entry) PromoActiveAt(now time.Time) bool {
	if !e.PromoActive || e.PromoPrice == nil || *e.PromoPrice <= 0 {
		return false
	}
	if e.PromoEndDate != nil && !e.PromoEndDate.After(now) {
		return false
	}
	return true
}

// EffectivePriceAt returns the price to display at the given instant: the
// promo price while the promotion is effectively active, the base price
// otherwise.
func (e Entry) EffectivePriceAt(now time.Time) float64 {
	if e.PromoActiveAt(now) {
		return *e.PromoPrice
	}
	return e.BasePrice
}

// SavingsPercent returns the rounded discount percentage for an active promo,
// or 0 when there is none.
func (e Entry) SavingsPercent() int {
	if e.PromoPrice == nil || e.BasePrice <= 0 || *e.PromoPrice >= e.BasePrice {
		return 0
	}
	return int((e.BasePrice-*e.PromoPrice)/e.BasePrice*100 + 0.5)
}

// FallbackCatalog is the fixed price list used when the gateway is
// unreachable, so the site never shows blank prices. It carries no promotions.
func FallbackCatalog() []Entry {
	fixed := []gateway.Price{
		{Slug: "course-b", Name: "Kurs kat. B", BasePrice: 3300, PriceUnit: "zł"},
		{Slug: "course-b-express", Name: "Kurs kat. B (ekspresowy)", BasePrice: 3800, PriceUnit: "zł"},
		{Slug: "course-be", Name: "Kurs kat. B+E", BasePrice: 2400, PriceUnit: "zł"},
		{Slug: "course-be-express", Name: "Kurs kat. B+E (ekspresowy)", BasePrice: 2800, PriceUnit: "zł"},
		{Slug: "refresher-b", Name: "Jazdy doszkalające kat. B", BasePrice: 120, PriceUnit: "zł/h"},
		{Slug: "refresher-b-student", Name: "Jazdy doszkalające kat. B (kursanci)", BasePrice: 110, PriceUnit: "zł/h"},
		{Slug: "refresher-be", Name: "Jazdy doszkalające kat. B+E", BasePrice: 150, PriceUnit: "zł/h"},
		{Slug: "refresher-be-student", Name: "Jazdy doszkalające kat. B+E (kursanci)", BasePrice: 140, PriceUnit: "zł/h"},
		{Slug: "pickup-fee", Name: "Dojazd poza Kłecko", BasePrice: 150, PriceUnit: "zł"},
	}

	entries := make([]Entry, len(fixed))
	for i, p := range fixed {
		p.SortOrder = i + 1
		entries[i] = Entry{Price: p}
	}
	return entries
}
