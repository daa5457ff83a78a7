// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package guard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/mileusna/useragent"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/geoip"
	"github.com/stxworks/osksite/internal/i18n"
	"github.com/stxworks/osksite/internal/store"
)

// Lockout policy. The remote backend enforces the same thresholds; the
// constants here drive the local fallback counter used when the backend is
// unreachable or unconfigured.
const (
	MaxAttempts     = 5
	LockoutDuration = 15 * time.Minute

	ipLookupTimeout = 3 * time.Second
)

// Guard wires the access policy around the remote gateway and the local
// key-value store.
type Guard struct {
	gw     *gateway.Client
	kv     store.KV
	allow  *Allowlist
	geo    *geoip.Resolver
	logger *slog.Logger

	ipLookupURL string
	httpClient  *http.Client
	now         func() time.Time
}

// New creates a guard. geo may be nil to skip country telemetry, and
// ipLookupURL may be empty to skip the public-IP lookup.
func New(gw *gateway.Client, kv store.KV, allow *Allowlist, geo *geoip.Resolver, ipLookupURL string, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		gw:          gw,
		kv:          kv,
		allow:       allow,
		geo:         geo,
		logger:      logger,
		ipLookupURL: ipLookupURL,
		httpClient:  &http.Client{Timeout: ipLookupTimeout},
		now:         time.Now,
	}
}

// Allowlist exposes the configured allowlist for callers that gate on tier.
func (g *Guard) Allowlist() *Allowlist { return g.allow }

// CheckLockout returns the lockout state the caller is judged against. The
// remote backend is authoritative when reachable; otherwise the anonymous
// local counter applies. The two are never merged.
func (g *Guard) CheckLockout(ctx context.Context, email string) *gateway.LockoutStatus {
	email = NormalizeEmail(email)

	if g.gw.Configured() {
		status, err := g.gw.CheckLoginLockout(ctx, email)
		if err == nil {
			return status
		}
		g.logger.Warn("remote lockout check failed, using local counter",
			"category", "auth", "error", err)
	}

	return g.localLockout(ctx)
}

// RecordLoginAttempt records the outcome of a login attempt. A failure
// increments exactly one counter: the authoritative remote one when
// reachable, the local fallback otherwise. A success clears both
// unconditionally so stale lockout state never survives into a future
// remote-available session.
func (g *Guard) RecordLoginAttempt(ctx context.Context, email string, success bool, userAgentRaw string) {
	email = NormalizeEmail(email)

	if success {
		if g.gw.Configured() {
			if err := g.gw.RecordLoginAttempt(ctx, email, true, "", ""); err != nil {
				g.logger.Warn("failed to record successful login", "category", "auth", "error", err)
			}
		}
		g.clearLocal(ctx)
		return
	}

	clientIP := g.lookupPublicIP(ctx)
	g.logAttemptTelemetry(email, clientIP, userAgentRaw)

	if g.gw.Configured() {
		err := g.gw.RecordLoginAttempt(ctx, email, false, clientIP, userAgentRaw)
		if err == nil {
			return
		}
		g.logger.Warn("failed to record login attempt remotely, counting locally",
			"category", "auth", "error", err)
	}

	g.recordLocalFailure(ctx)
}

// localLockout reads the anonymous fallback counter. An expired local lockout
// resets the counter on read.
func (g *Guard) localLockout(ctx context.Context) *gateway.LockoutStatus {
	if raw, err := g.kv.Get(ctx, store.KeyLoginLockout); err == nil {
		until, perr := time.Parse(time.RFC3339, raw)
		if perr == nil && g.now().Before(until) {
			minutes := int(math.Ceil(until.Sub(g.now()).Minutes()))
			return &gateway.LockoutStatus{
				Locked:   true,
				Attempts: MaxAttempts,
				Message:  i18n.T(i18n.DefaultLanguage, "auth.locked_out", minutes),
			}
		}
		g.clearLocal(ctx)
	}

	attempts := g.localAttempts(ctx)
	remaining := MaxAttempts - attempts
	if remaining < 0 {
		remaining = 0
	}
	return &gateway.LockoutStatus{Attempts: attempts, Remaining: remaining}
}

func (g *Guard) localAttempts(ctx context.Context) int {
	raw, err := g.kv.Get(ctx, store.KeyLoginAttempts)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (g *Guard) recordLocalFailure(ctx context.Context) {
	attempts := g.localAttempts(ctx) + 1
	if err := g.kv.Set(ctx, store.KeyLoginAttempts, strconv.Itoa(attempts)); err != nil {
		g.logger.Warn("failed to persist local attempt counter", "category", "auth", "error", err)
		return
	}

	if attempts >= MaxAttempts {
		until := g.now().Add(LockoutDuration).Format(time.RFC3339)
		if err := g.kv.Set(ctx, store.KeyLoginLockout, until); err != nil {
			g.logger.Warn("failed to persist local lockout", "category", "auth", "error", err)
		}
	}
}

func (g *Guard) clearLocal(ctx context.Context) {
	if err := g.kv.Remove(ctx, store.KeyLoginAttempts); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		g.logger.Warn("failed to clear attempt counter", "category", "auth", "error", err)
	}
	if err := g.kv.Remove(ctx, store.KeyLoginLockout); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		g.logger.Warn("failed to clear lockout", "category", "auth", "error", err)
	}
}

// lookupPublicIP asks the configured lookup service for the caller's public
// IP. Best effort: any failure yields "" and never blocks the login flow
// beyond the short client timeout.
func (g *Guard) lookupPublicIP(ctx context.Context) string {
	if g.ipLookupURL == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, ipLookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.ipLookupURL, nil)
	if err != nil {
		return ""
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Debug("public IP lookup failed", "category", "auth", "error", err)
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}
	return body.IP
}

// logAttemptTelemetry logs what we can learn about a failed attempt. Purely
// informational; failures here never affect the attempt outcome.
func (g *Guard) logAttemptTelemetry(email, clientIP, userAgentRaw string) {
	attrs := []any{"category", "auth", "email", email}
	if clientIP != "" {
		attrs = append(attrs, "ip", clientIP)
		if g.geo != nil {
			if country := g.geo.Country(clientIP); country != "" {
				attrs = append(attrs, "country", country)
			}
		}
	}
	if userAgentRaw != "" {
		ua := useragent.Parse(userAgentRaw)
		attrs = append(attrs, "browser", fmt.Sprintf("%s %s", ua.Name, ua.Version), "os", ua.OS)
	}
	g.logger.Warn("failed admin login attempt", attrs...)
}
