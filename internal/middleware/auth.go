// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/guard"
	"github.com/stxworks/osksite/internal/i18n"
)

// RequireAdmin creates middleware that gates admin routes. Every request
// re-validates the stored access token against the auth backend and the
// allowlist; a session whose user lost admin rights is torn down
// immediately, not at the next login.
func RequireAdmin(sm *scs.SessionManager, g *guard.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sm.GetString(r.Context(), SessionKeyAccessToken)
			if token == "" {
				WriteError(w, http.StatusUnauthorized, i18n.T(i18n.DefaultLanguage, "auth.session_expired"))
				return
			}

			user, err := g.RequireAuth(r.Context(), token)
			if err != nil {
				_ = sm.Destroy(r.Context())
				switch {
				case errors.Is(err, guard.ErrNotAllowlisted):
					slog.Warn("admin session revoked",
						"email", sm.GetString(r.Context(), SessionKeyEmail),
						"path", r.URL.Path)
					WriteError(w, http.StatusForbidden, i18n.T(i18n.DefaultLanguage, "auth.tamper_detected"))
				default:
					WriteError(w, http.StatusUnauthorized, i18n.T(i18n.DefaultLanguage, "auth.session_expired"))
				}
				return
			}

			sm.Put(r.Context(), SessionKeyLastSeen, time.Now().UTC().Format(time.RFC3339))

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyAccessToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the authenticated admin from the request context.
// Returns nil outside RequireAdmin-wrapped routes.
func GetUser(r *http.Request) *gateway.User {
	user, ok := r.Context().Value(ContextKeyUser).(*gateway.User)
	if !ok {
		return nil
	}
	return user
}

// GetAccessToken retrieves the access token from the request context.
func GetAccessToken(r *http.Request) string {
	token, _ := r.Context().Value(ContextKeyAccessToken).(string)
	return token
}
