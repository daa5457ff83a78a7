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

// RegistrationsHandler handles the admin side of course sign-ups.
type RegistrationsHandler struct {
	registrations *content.RegistrationService
	logger        *slog.Logger
}

// NewRegistrationsHandler creates a new RegistrationsHandler.
func NewRegistrationsHandler(registrations *content.RegistrationService, logger *slog.Logger) *RegistrationsHandler {
	return &RegistrationsHandler{registrations: registrations, logger: logger}
}

// List returns registrations, optionally filtered by status.
func (h *RegistrationsHandler) List(w http.ResponseWriter, r *http.Request) {
	registrations, err := h.registrations.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, h.logger, "admin.registrations.list", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"registrations": registrations})
}

type registrationStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves a registration through the contact workflow.
func (h *RegistrationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req registrationStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reg, err := h.registrations.UpdateStatus(r.Context(), middleware.GetAccessToken(r),
		chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, h.logger, "admin.registrations.status", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"registration": reg})
}

// Delete removes a registration. Full-access tier only.
func (h *RegistrationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.registrations.Delete(r.Context(), middleware.GetAccessToken(r),
		middleware.GetUser(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "admin.registrations.delete", err)
		return
	}
	writeJSONSuccess(w, nil)
}
