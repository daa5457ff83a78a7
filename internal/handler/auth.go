// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/guard"
	"github.com/stxworks/osksite/internal/i18n"
	"github.com/stxworks/osksite/internal/middleware"
)

// AuthHandler handles admin login, logout and session status.
type AuthHandler struct {
	sm     *scs.SessionManager
	guard  *guard.Guard
	gw     *gateway.Client
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sm *scs.SessionManager, g *guard.Guard, gw *gateway.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sm: sm, guard: g, gw: gw, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an admin. The guard owns the whole policy chain:
// lockout check before credentials, allowlist before the auth backend,
// attempt accounting on failure.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.guard.Login(r.Context(), req.Email, req.Password,
		r.UserAgent(), i18n.DefaultLanguage)
	if err != nil {
		var loginErr *guard.LoginError
		if errors.As(err, &loginErr) {
			status := http.StatusUnauthorized
			if loginErr.Locked {
				status = http.StatusLocked
			}
			writeJSONError(w, status, loginErr.Message)
			return
		}
		writeServiceError(w, h.logger, "auth.login", err)
		return
	}

	// Rotate the session ID on privilege change.
	if err := h.sm.RenewToken(r.Context()); err != nil {
		h.logger.Error("session renew failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, i18n.T(i18n.DefaultLanguage, "auth.system_unavailable"))
		return
	}
	h.sm.Put(r.Context(), middleware.SessionKeyAccessToken, sess.AccessToken)
	h.sm.Put(r.Context(), middleware.SessionKeyEmail, guard.NormalizeEmail(sess.User.Email))
	h.sm.Put(r.Context(), middleware.SessionKeyLastSeen, time.Now().UTC().Format(time.RFC3339))

	h.logger.Info("admin logged in", "category", "auth", "email", guard.NormalizeEmail(sess.User.Email))

	writeJSONSuccess(w, map[string]any{
		"email":       guard.NormalizeEmail(sess.User.Email),
		"full_access": h.guard.Allowlist().HasFullAccess(sess.User.Email),
	})
}

// Logout revokes the remote token and destroys the local session. The
// local teardown happens even when the remote revocation fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.sm.GetString(r.Context(), middleware.SessionKeyAccessToken)
	email := h.sm.GetString(r.Context(), middleware.SessionKeyEmail)

	if token != "" {
		if err := h.gw.SignOut(r.Context(), token); err != nil {
			h.logger.Warn("remote sign-out failed", "error", err)
		}
	}
	if err := h.sm.Destroy(r.Context()); err != nil {
		h.logger.Error("session destroy failed", "error", err)
	}

	if email != "" {
		h.logger.Info("admin logged out", "category", "auth", "email", email)
	}
	writeJSONSuccess(w, nil)
}

// Session reports the authenticated admin plus idle-timeout deadlines so
// the console can warn at 25 minutes and sign out at 30.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		writeJSONError(w, http.StatusUnauthorized, i18n.T(i18n.DefaultLanguage, "auth.session_expired"))
		return
	}

	lastSeen := time.Now().UTC()
	if raw := h.sm.GetString(r.Context(), middleware.SessionKeyLastSeen); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			lastSeen = t
		}
	}

	writeJSONSuccess(w, map[string]any{
		"email":       guard.NormalizeEmail(user.Email),
		"full_access": h.guard.Allowlist().HasFullAccess(user.Email),
		"warn_at":     lastSeen.Add(guard.IdleWarnAfter),
		"expires_at":  lastSeen.Add(guard.IdleTimeout),
	})
}
