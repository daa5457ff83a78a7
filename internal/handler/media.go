// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/imaging"
	"github.com/stxworks/osksite/internal/middleware"
)

// MediaHandler handles admin image uploads for news articles.
type MediaHandler struct {
	processor *imaging.Processor
	gw        *gateway.Client
	logger    *slog.Logger
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(processor *imaging.Processor, gw *gateway.Client, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{processor: processor, gw: gw, logger: logger}
}

// Upload accepts a multipart image, normalizes it and stores it in the
// remote bucket. Returns the public URL for use in article content.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Nieprawidłowe dane żądania")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Brak pliku obrazu")
		return
	}
	defer file.Close()

	result, err := h.processor.Process(file, header.Filename)
	if err != nil {
		h.logger.Warn("image rejected", "filename", header.Filename, "error", err)
		writeJSONError(w, http.StatusUnprocessableEntity, "Nieobsługiwany format obrazu")
		return
	}

	token := middleware.GetAccessToken(r)
	url, err := h.gw.WithToken(token).UploadImage(r.Context(), result.ObjectName,
		result.MimeType, bytes.NewReader(result.Data))
	if err != nil {
		writeServiceError(w, h.logger, "admin.media.upload", err)
		return
	}

	h.logger.Info("image uploaded", "category", "media",
		"object", result.ObjectName, "width", result.Width, "height", result.Height)

	writeJSONSuccess(w, map[string]any{
		"url":    url,
		"width":  result.Width,
		"height": result.Height,
	})
}
