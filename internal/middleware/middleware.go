// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for session authentication,
// rate limiting, CSRF protection and security headers.
package middleware

import (
	"encoding/json"
	"net/http"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request-scoped admin data.
const (
	ContextKeyUser        ContextKey = "user"
	ContextKeyAccessToken ContextKey = "access_token"
)

// Session keys for the admin console.
const (
	SessionKeyAccessToken = "access_token"
	SessionKeyEmail       = "email"
	SessionKeyLastSeen    = "last_seen"
)

// errorBody is the JSON error envelope shared by all middleware responses.
type errorBody struct {
	Error string `json:"error"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}
