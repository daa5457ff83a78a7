// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

// Package guard gates admin access: login-attempt throttling with a local
// fallback counter, allowlist verification, session re-validation, and the
// idle-session timeout.
package guard

import "strings"

// Allowlist is the fixed set of admin emails permitted to authenticate, with
// a smaller full-access tier inside it that is permitted destructive actions.
// Membership checks are case-insensitive and whitespace-trimmed.
type Allowlist struct {
	admins     map[string]struct{}
	fullAccess map[string]struct{}
}

// NewAllowlist builds an allowlist from the configured email sets. Entries
// are normalized once here; lookups normalize the probe.
func NewAllowlist(admins, fullAccess []string) *Allowlist {
	a := &Allowlist{
		admins:     make(map[string]struct{}, len(admins)),
		fullAccess: make(map[string]struct{}, len(fullAccess)),
	}
	for _, e := range admins {
		a.admins[NormalizeEmail(e)] = struct{}{}
	}
	for _, e := range fullAccess {
		a.fullAccess[NormalizeEmail(e)] = struct{}{}
	}
	return a
}

// NormalizeEmail lowercases and trims an email for allowlist comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAuthorizedAdmin reports whether email is on the allowlist. This is a pure
// gate independent of credential correctness and must run before any
// credential verification call.
func (a *Allowlist) IsAuthorizedAdmin(email string) bool {
	_, ok := a.admins[NormalizeEmail(email)]
	return ok
}

// HasFullAccess reports whether email is in the full-access tier. Only
// full-access admins may delete content.
func (a *Allowlist) HasFullAccess(email string) bool {
	_, ok := a.fullAccess[NormalizeEmail(email)]
	return ok
}
