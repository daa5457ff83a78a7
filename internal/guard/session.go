// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/stxworks/osksite/internal/gateway"
)

var (
	// ErrNoSession means no valid remote session exists for the caller.
	ErrNoSession = errors.New("no valid session")

	// ErrNotAllowlisted means the session's email is not on the allowlist.
	// The allowlist is the final authority; this forces a logout even when
	// the credential layer still considers the session valid.
	ErrNotAllowlisted = errors.New("email not on admin allowlist")

	// ErrFullAccessRequired means the admin lacks the tier for destructive
	// actions.
	ErrFullAccessRequired = errors.New("full-access tier required")
)

// VerifyAdminAccess re-validates that an authenticated user is still on the
// allowlist. Checked at login and periodically during the session.
func (g *Guard) VerifyAdminAccess(user *gateway.User) error {
	if user == nil || user.Email == "" {
		return ErrNoSession
	}
	if !g.allow.IsAuthorizedAdmin(user.Email) {
		g.logger.Warn("session email no longer allowlisted", "category", "auth", "email", user.Email)
		return ErrNotAllowlisted
	}
	return nil
}

// RequireAuth is the mandatory guard before every state-mutating admin
// operation. It re-fetches the session from the remote gateway on every call
// rather than trusting any cached user object, then re-applies the allowlist.
func (g *Guard) RequireAuth(ctx context.Context, accessToken string) (*gateway.User, error) {
	if accessToken == "" {
		return nil, ErrNoSession
	}

	user, err := g.gw.GetUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSession, err)
	}
	if err := g.VerifyAdminAccess(user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequireFullAccess gates destructive actions. It runs after RequireAuth and
// rejects before any remote delete call is issued.
func (g *Guard) RequireFullAccess(user *gateway.User) error {
	if user == nil || user.Email == "" {
		return ErrNoSession
	}
	if !g.allow.HasFullAccess(user.Email) {
		return ErrFullAccessRequired
	}
	return nil
}

// Revalidate is the periodic session check. A non-nil error means the
// session must be terminated immediately.
func (g *Guard) Revalidate(ctx context.Context, accessToken string) error {
	_, err := g.RequireAuth(ctx, accessToken)
	return err
}
