// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/guard"
)

// PriceService handles admin price maintenance. The read path elsewhere
// tolerates malformed promo data by treating it as inactive; the write path
// here is strict.
type PriceService struct {
	gw     *gateway.Client
	guard  *guard.Guard
	logger *slog.Logger
	now    func() time.Time
}

// NewPriceService creates the price service.
func NewPriceService(gw *gateway.Client, g *guard.Guard, logger *slog.Logger) *PriceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceService{gw: gw, guard: g, logger: logger, now: time.Now}
}

// PromoInput is the admin promo form for one price entry.
type PromoInput struct {
	PromoActive  bool
	PromoPrice   *float64
	PromoEndDate *time.Time
}

// validatePromo enforces the write-time guards: an active promo needs a
// positive price strictly below base and an end date.
func (s *PriceService) validatePromo(base float64, in PromoInput) error {
	if !in.PromoActive {
		return nil
	}
	if in.PromoPrice == nil || *in.PromoPrice <= 0 {
		return &ValidationError{Field: "promo_price", Message: "promo price must be greater than zero"}
	}
	if *in.PromoPrice >= base {
		return &ValidationError{Field: "promo_price", Message: "promo price must be lower than the base price"}
	}
	if in.PromoEndDate == nil {
		return &ValidationError{Field: "promo_end_date", Message: "promo end date is required"}
	}
	return nil
}

// SavePromo updates the promo fields of an entry as a full replace.
func (s *PriceService) SavePromo(ctx context.Context, token, slug string, in PromoInput) (*gateway.Price, error) {
	entry, err := s.gw.GetPriceBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("loading price %q: %w", slug, err)
	}

	if err := s.validatePromo(entry.BasePrice, in); err != nil {
		return nil, err
	}

	patch := map[string]any{
		"promo_active":   in.PromoActive,
		"promo_price":    in.PromoPrice,
		"promo_end_date": in.PromoEndDate,
	}
	if !in.PromoActive {
		// Turning a promo off clears its fields entirely.
		patch["promo_price"] = nil
		patch["promo_end_date"] = nil
	}

	updated, err := s.gw.WithToken(token).UpdatePrice(ctx, entry.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("updating price %q: %w", slug, err)
	}

	s.logger.Info("price promo saved", "category", "content", "slug", slug, "active", in.PromoActive)
	return updated, nil
}

// UpdateBase changes the base price and display fields of an entry.
func (s *PriceService) UpdateBase(ctx context.Context, token, slug string, basePrice float64, name, unit string) (*gateway.Price, error) {
	if basePrice <= 0 {
		return nil, &ValidationError{Field: "base_price", Message: "base price must be greater than zero"}
	}

	entry, err := s.gw.GetPriceBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("loading price %q: %w", slug, err)
	}
	if entry.PromoActive && entry.PromoPrice != nil && *entry.PromoPrice >= basePrice {
		return nil, &ValidationError{Field: "base_price", Message: "base price must stay above the active promo price"}
	}

	patch := map[string]any{"base_price": basePrice}
	if name != "" {
		patch["name"] = name
	}
	if unit != "" {
		patch["price_unit"] = unit
	}

	updated, err := s.gw.WithToken(token).UpdatePrice(ctx, entry.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("updating price %q: %w", slug, err)
	}
	return updated, nil
}
