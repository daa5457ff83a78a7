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

// CategoriesHandler handles admin news category management.
type CategoriesHandler struct {
	categories *content.CategoryService
	logger     *slog.Logger
}

// NewCategoriesHandler creates a new CategoriesHandler.
func NewCategoriesHandler(categories *content.CategoryService, logger *slog.Logger) *CategoriesHandler {
	return &CategoriesHandler{categories: categories, logger: logger}
}

type categoryRequest struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// List returns all categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "admin.categories.list", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"categories": categories})
}

// Create adds a category.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := h.categories.Create(r.Context(), middleware.GetAccessToken(r),
		content.CategoryInput{Name: req.Name, Slug: req.Slug, Color: req.Color})
	if err != nil {
		writeServiceError(w, h.logger, "admin.categories.create", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"category": category})
}

// Update edits a category.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := h.categories.Update(r.Context(), middleware.GetAccessToken(r),
		chi.URLParam(r, "id"),
		content.CategoryInput{Name: req.Name, Slug: req.Slug, Color: req.Color})
	if err != nil {
		writeServiceError(w, h.logger, "admin.categories.update", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"category": category})
}

// Delete removes a category. Full-access tier only.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.categories.Delete(r.Context(), middleware.GetAccessToken(r),
		middleware.GetUser(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "admin.categories.delete", err)
		return
	}
	writeJSONSuccess(w, nil)
}
