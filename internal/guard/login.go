// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package guard

import (
	"context"
	"errors"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/i18n"
)

// LoginError carries the user-facing message for a rejected login. The
// message never distinguishes unknown email from wrong password; see
// SecureErrorMessage for the only three tiers it can take.
type LoginError struct {
	Message string
	Locked  bool
}

func (e *LoginError) Error() string { return e.Message }

// SecureErrorMessage maps a lockout state to one of exactly three messages:
// the lockout message verbatim when locked, the remaining-attempts count when
// two or fewer remain, and a generic invalid-credentials message otherwise.
func SecureErrorMessage(lang string, status *gateway.LockoutStatus) string {
	if status != nil && status.Locked {
		if status.Message != "" {
			return status.Message
		}
		return i18n.T(lang, "auth.locked_out_default")
	}
	if status != nil && status.Remaining > 0 && status.Remaining <= 2 {
		return i18n.T(lang, "auth.attempts_remaining", status.Remaining)
	}
	return i18n.T(lang, "auth.invalid_credentials")
}

// Login runs the full admin login sequence: lockout pre-check, allowlist
// gate, credential verification, attempt accounting. The allowlist is
// checked before any credential call so an unlisted email never reaches the
// credential layer. Returns a *LoginError for every rejection the user
// should see.
func (g *Guard) Login(ctx context.Context, email, password, userAgentRaw, lang string) (*gateway.Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, &LoginError{Message: i18n.T(lang, "auth.email_password_required")}
	}

	status := g.CheckLockout(ctx, email)
	if status.Locked {
		return nil, &LoginError{Message: SecureErrorMessage(lang, status), Locked: true}
	}

	if !g.allow.IsAuthorizedAdmin(email) {
		return nil, g.failAttempt(ctx, email, userAgentRaw, lang)
	}

	session, err := g.gw.SignIn(ctx, email, password)
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			return nil, g.failAttempt(ctx, email, userAgentRaw, lang)
		}
		// No credential layer reachable: hard rejection, no safe fallback.
		g.logger.Error("credential backend unavailable", "category", "auth", "error", err)
		return nil, &LoginError{Message: i18n.T(lang, "auth.system_unavailable")}
	}

	if err := g.VerifyAdminAccess(&session.User); err != nil {
		_ = g.gw.SignOut(ctx, session.AccessToken)
		g.RecordLoginAttempt(ctx, email, false, userAgentRaw)
		return nil, &LoginError{Message: i18n.T(lang, "auth.no_admin_rights")}
	}

	g.RecordLoginAttempt(ctx, email, true, "")
	g.logger.Info("admin login", "category", "auth", "email", email)
	return session, nil
}

// failAttempt records a failure and derives the message tier from the state
// after the failure, so the 5th failure reports the lockout it just caused.
func (g *Guard) failAttempt(ctx context.Context, email, userAgentRaw, lang string) *LoginError {
	g.RecordLoginAttempt(ctx, email, false, userAgentRaw)
	status := g.CheckLockout(ctx, email)
	return &LoginError{Message: SecureErrorMessage(lang, status), Locked: status.Locked}
}
