// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stxworks/osksite/internal/gateway"
	"github.com/stxworks/osksite/internal/store"
)

func testAllowlist() *Allowlist {
	return NewAllowlist(
		[]string{"admin@osk.pl", "basic@osk.pl"},
		[]string{"admin@osk.pl"},
	)
}

// localGuard has no gateway configured, so only the fallback counter applies.
func localGuard() (*Guard, store.KV) {
	kv := store.NewMemoryKV()
	return New(gateway.New("", ""), kv, testAllowlist(), nil, "", nil), kv
}

func TestLocalLockoutBoundary(t *testing.T) {
	ctx := context.Background()
	g, _ := localGuard()
	email := "admin@osk.pl"

	// Exactly 5 failures lock; 4 do not.
	for i := 1; i <= MaxAttempts; i++ {
		status := g.CheckLockout(ctx, email)
		require.False(t, status.Locked, "locked after %d failures", i-1)
		assert.Equal(t, i-1, status.Attempts)
		g.RecordLoginAttempt(ctx, email, false, "")
	}

	status := g.CheckLockout(ctx, email)
	require.True(t, status.Locked, "not locked after %d failures", MaxAttempts)
	assert.NotEmpty(t, status.Message)

	// Success clears both counter and lockout unconditionally.
	g.RecordLoginAttempt(ctx, email, true, "")
	status = g.CheckLockout(ctx, email)
	assert.False(t, status.Locked)
	assert.Zero(t, status.Attempts)
}

func TestLocalCounterIsAnonymous(t *testing.T) {
	// The fallback counter is global, not per-email: failures for one email
	// count against every caller in degraded mode.
	ctx := context.Background()
	g, _ := localGuard()

	for i := 0; i < MaxAttempts; i++ {
		g.RecordLoginAttempt(ctx, "someone@osk.pl", false, "")
	}

	status := g.CheckLockout(ctx, "other@osk.pl")
	assert.True(t, status.Locked)
}

func TestLocalLockoutExpires(t *testing.T) {
	ctx := context.Background()
	g, kv := localGuard()

	// A lockout timestamp in the past resets the counter on read.
	require.NoError(t, kv.Set(ctx, store.KeyLoginAttempts, "5"))
	require.NoError(t, kv.Set(ctx, store.KeyLoginLockout,
		time.Now().Add(-time.Minute).Format(time.RFC3339)))

	status := g.CheckLockout(ctx, "admin@osk.pl")
	assert.False(t, status.Locked)
	assert.Zero(t, status.Attempts)

	_, err := kv.Get(ctx, store.KeyLoginAttempts)
	assert.ErrorIs(t, err, store.ErrKeyNotFound, "expired lockout must clear the counter")
}

func TestLocalLockoutMalformedState(t *testing.T) {
	ctx := context.Background()
	g, kv := localGuard()

	require.NoError(t, kv.Set(ctx, store.KeyLoginAttempts, "garbage"))
	require.NoError(t, kv.Set(ctx, store.KeyLoginLockout, "also-garbage"))

	status := g.CheckLockout(ctx, "admin@osk.pl")
	assert.False(t, status.Locked)
	assert.Zero(t, status.Attempts)
}

func TestRemoteLockoutAuthoritative(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	kv := store.NewMemoryKV()
	g := New(backend.client(), kv, testAllowlist(), nil, "", nil)
	email := "admin@osk.pl"

	for i := 0; i < MaxAttempts; i++ {
		g.RecordLoginAttempt(ctx, email, false, "Mozilla/5.0")
	}

	status := g.CheckLockout(ctx, email)
	require.True(t, status.Locked)
	assert.Equal(t, "Zbyt wiele nieudanych prób logowania. Spróbuj ponownie za 15 min.", status.Message)

	// Failures went to exactly one counter: the remote one.
	_, err := kv.Get(ctx, store.KeyLoginAttempts)
	assert.ErrorIs(t, err, store.ErrKeyNotFound, "local counter touched while remote reachable")

	// Success clears the remote counter and the (empty) local one.
	g.RecordLoginAttempt(ctx, email, true, "")
	status = g.CheckLockout(ctx, email)
	assert.False(t, status.Locked)
	assert.Zero(t, status.Attempts)
}

func TestRemoteUnreachableFallsBackLocally(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	client := backend.client()
	backend.srv.Close()

	kv := store.NewMemoryKV()
	g := New(client, kv, testAllowlist(), nil, "", nil)

	g.RecordLoginAttempt(ctx, "admin@osk.pl", false, "")

	raw, err := kv.Get(ctx, store.KeyLoginAttempts)
	require.NoError(t, err)
	assert.Equal(t, "1", raw)

	status := g.CheckLockout(ctx, "admin@osk.pl")
	assert.False(t, status.Locked)
	assert.Equal(t, 1, status.Attempts)
	assert.Equal(t, MaxAttempts-1, status.Remaining)
}

func TestSecureErrorMessageTiers(t *testing.T) {
	lang := "pl"

	locked := &gateway.LockoutStatus{Locked: true, Message: "Konto zablokowane na 15 min."}
	assert.Equal(t, "Konto zablokowane na 15 min.", SecureErrorMessage(lang, locked),
		"locked message must be shown verbatim")

	lockedNoMsg := &gateway.LockoutStatus{Locked: true}
	assert.Equal(t, "Zbyt wiele nieudanych prób logowania. Spróbuj ponownie za 15 minut.",
		SecureErrorMessage(lang, lockedNoMsg))

	twoLeft := &gateway.LockoutStatus{Attempts: 3, Remaining: 2}
	assert.Equal(t, "Nieprawidłowe dane logowania. Pozostało prób: 2", SecureErrorMessage(lang, twoLeft))

	oneLeft := &gateway.LockoutStatus{Attempts: 4, Remaining: 1}
	assert.Equal(t, "Nieprawidłowe dane logowania. Pozostało prób: 1", SecureErrorMessage(lang, oneLeft))

	// Three or more remaining: generic, never the count.
	threeLeft := &gateway.LockoutStatus{Attempts: 2, Remaining: 3}
	assert.Equal(t, "Nieprawidłowy email lub hasło", SecureErrorMessage(lang, threeLeft))

	assert.Equal(t, "Nieprawidłowy email lub hasło", SecureErrorMessage(lang, nil))
}
