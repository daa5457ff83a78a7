// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stxworks/osksite/internal/content"
	"github.com/stxworks/osksite/internal/middleware"
)

// ReviewsHandler handles admin review moderation.
type ReviewsHandler struct {
	reviews *content.ReviewService
	logger  *slog.Logger
}

// NewReviewsHandler creates a new ReviewsHandler.
func NewReviewsHandler(reviews *content.ReviewService, logger *slog.Logger) *ReviewsHandler {
	return &ReviewsHandler{reviews: reviews, logger: logger}
}

// List returns all reviews, published or not.
func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "admin.reviews.list", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"reviews": reviews})
}

type reviewFlagRequest struct {
	Value bool `json:"value"`
}

// SetPublished toggles review visibility on the public site.
func (h *ReviewsHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	var req reviewFlagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	review, err := h.reviews.SetPublished(r.Context(), middleware.GetAccessToken(r),
		chi.URLParam(r, "id"), req.Value)
	if err != nil {
		writeServiceError(w, h.logger, "admin.reviews.publish", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"review": review})
}

// SetFeatured toggles the homepage pin. At most five reviews can be
// featured at once; the sixth is rejected before any remote write.
func (h *ReviewsHandler) SetFeatured(w http.ResponseWriter, r *http.Request) {
	var req reviewFlagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	review, err := h.reviews.SetFeatured(r.Context(), middleware.GetAccessToken(r),
		chi.URLParam(r, "id"), req.Value)
	if err != nil {
		writeServiceError(w, h.logger, "admin.reviews.feature", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"review": review})
}

// Delete removes a review. Full-access tier only.
func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.reviews.Delete(r.Context(), middleware.GetAccessToken(r),
		middleware.GetUser(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "admin.reviews.delete", err)
		return
	}
	writeJSONSuccess(w, nil)
}
