// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stxworks/osksite/internal/content"
	"github.com/stxworks/osksite/internal/middleware"
)

// PricesHandler handles admin price and promotion management.
type PricesHandler struct {
	prices *content.PriceService
	logger *slog.Logger

	// reload refreshes the public catalog after a successful write so
	// visitors see the new prices without waiting for the next cron tick.
	reload func(context.Context) error
}

// NewPricesHandler creates a new PricesHandler.
func NewPricesHandler(prices *content.PriceService, reload func(context.Context) error, logger *slog.Logger) *PricesHandler {
	return &PricesHandler{prices: prices, reload: reload, logger: logger}
}

type promoRequest struct {
	PromoActive  bool       `json:"promo_active"`
	PromoPrice   *float64   `json:"promo_price"`
	PromoEndDate *time.Time `json:"promo_end_date"`
}

// SavePromo sets or clears the promotion on one course.
func (h *PricesHandler) SavePromo(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	price, err := h.prices.SavePromo(r.Context(), middleware.GetAccessToken(r),
		chi.URLParam(r, "slug"), content.PromoInput{
			PromoActive:  req.PromoActive,
			PromoPrice:   req.PromoPrice,
			PromoEndDate: req.PromoEndDate,
		})
	if err != nil {
		writeServiceError(w, h.logger, "admin.prices.promo", err)
		return
	}
	h.reloadCatalog(r.Context())
	writeJSONSuccess(w, map[string]any{"price": price})
}

type basePriceRequest struct {
	BasePrice float64 `json:"base_price"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
}

// UpdateBase changes the base price of one course.
func (h *PricesHandler) UpdateBase(w http.ResponseWriter, r *http.Request) {
	var req basePriceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	price, err := h.prices.UpdateBase(r.Context(), middleware.GetAccessToken(r),
		chi.URLParam(r, "slug"), req.BasePrice, req.Name, req.Unit)
	if err != nil {
		writeServiceError(w, h.logger, "admin.prices.base", err)
		return
	}
	h.reloadCatalog(r.Context())
	writeJSONSuccess(w, map[string]any{"price": price})
}

func (h *PricesHandler) reloadCatalog(ctx context.Context) {
	if h.reload == nil {
		return
	}
	if err := h.reload(ctx); err != nil {
		h.logger.Warn("catalog reload after price write failed", "error", err)
	}
}
