// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the JSON endpoints for the public site and
// the admin console.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stxworks/osksite/internal/content"
	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/guard"
	"github.com/stxworks/osksite/internal/i18n"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20 // 1 MB

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}

// writeJSONSuccess writes a JSON success response.
func writeJSONSuccess(w http.ResponseWriter, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		data = make(map[string]any)
	}
	data["success"] = true
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON decodes a request body into dst. Unknown fields are
// tolerated; oversized or malformed bodies are not.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Nieprawidłowe dane żądania")
		return false
	}
	return true
}

// writeServiceError maps service-layer errors onto HTTP responses.
// Validation problems surface verbatim, authorization problems get the
// tier message, everything else collapses to a generic upstream error
// so backend details never leak to the client.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	var vErr *content.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSONError(w, http.StatusUnprocessableEntity, vErr.Message)
	case errors.Is(err, guard.ErrFullAccessRequired):
		writeJSONError(w, http.StatusForbidden, i18n.T(i18n.DefaultLanguage, "auth.delete_forbidden"))
	case errors.Is(err, gateway.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "Nie znaleziono")
	default:
		if logger != nil {
			logger.Error("request failed", "op", op, "error", err)
		}
		writeJSONError(w, http.StatusBadGateway, "Błąd serwera. Spróbuj ponownie.")
	}
}
