// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stxworks/osksite/internal/content"
	"github.com/stxworks/osksite/internal/middleware"
)

// NewsHandler handles admin news management.
type NewsHandler struct {
	news   *content.NewsService
	logger *slog.Logger
}

// NewNewsHandler creates a new NewsHandler.
func NewNewsHandler(news *content.NewsService, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{news: news, logger: logger}
}

type articleRequest struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	CategoryID  *string    `json:"category_id"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
	ImageURL    string     `json:"image_url"`
}

func (r articleRequest) input() content.ArticleInput {
	return content.ArticleInput{
		Title:       r.Title,
		Slug:        r.Slug,
		Excerpt:     r.Excerpt,
		Content:     r.Content,
		CategoryID:  r.CategoryID,
		Status:      r.Status,
		PublishedAt: r.PublishedAt,
		ImageURL:    r.ImageURL,
	}
}

// List returns articles of any status for the admin console.
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.news.List(r.Context(), r.URL.Query().Get("status"),
		queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeServiceError(w, h.logger, "admin.news.list", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"articles": articles})
}

// Create adds a new article.
func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	article, err := h.news.Create(r.Context(), middleware.GetAccessToken(r), req.input())
	if err != nil {
		writeServiceError(w, h.logger, "admin.news.create", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"article": article})
}

// Update edits an existing article.
func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	article, err := h.news.Update(r.Context(), middleware.GetAccessToken(r),
		chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeServiceError(w, h.logger, "admin.news.update", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"article": article})
}

// Delete removes an article. Full-access tier only.
func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.news.Delete(r.Context(), middleware.GetAccessToken(r),
		middleware.GetUser(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "admin.news.delete", err)
		return
	}
	writeJSONSuccess(w, nil)
}

// SaveDraft stores the work-in-progress article locally.
func (h *NewsHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var draft content.Draft
	if !decodeJSON(w, r, &draft) {
		return
	}
	if err := h.news.SaveDraft(r.Context(), draft); err != nil {
		writeServiceError(w, h.logger, "admin.news.draft.save", err)
		return
	}
	writeJSONSuccess(w, nil)
}

// RestoreDraft returns the stored draft, if any survives the 24h cap.
func (h *NewsHandler) RestoreDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.news.RestoreDraft(r.Context())
	if !ok {
		writeJSONSuccess(w, map[string]any{"draft": nil})
		return
	}
	writeJSONSuccess(w, map[string]any{"draft": draft})
}

// ClearDraft discards the stored draft.
func (h *NewsHandler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	h.news.ClearDraft(r.Context())
	writeJSONSuccess(w, nil)
}
