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

// CodesHandler handles admin verification-code management.
type CodesHandler struct {
	codes  *content.CodeService
	logger *slog.Logger
}

// NewCodesHandler creates a new CodesHandler.
func NewCodesHandler(codes *content.CodeService, logger *slog.Logger) *CodesHandler {
	return &CodesHandler{codes: codes, logger: logger}
}

// List returns verification codes, optionally filtered by status.
func (h *CodesHandler) List(w http.ResponseWriter, r *http.Request) {
	codes, err := h.codes.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, h.logger, "admin.codes.list", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"codes": codes})
}

type issueCodeRequest struct {
	StudentName string `json:"student_name"`
	Course      string `json:"course"`
}

// Issue generates a fresh review code for a graduate.
func (h *CodesHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code, err := h.codes.Issue(r.Context(), middleware.GetAccessToken(r),
		req.StudentName, req.Course)
	if err != nil {
		writeServiceError(w, h.logger, "admin.codes.issue", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"code": code})
}

// Delete removes a code. Full-access tier only.
func (h *CodesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.codes.Delete(r.Context(), middleware.GetAccessToken(r),
		middleware.GetUser(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "admin.codes.delete", err)
		return
	}
	writeJSONSuccess(w, nil)
}
