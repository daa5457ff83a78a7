// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package pricing

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stxworks/osksite/internal/gateway"
)

func TestRemainingUnits(t *testing.T) {
	cases := []struct {
		ms   int64
		want Remaining
	}{
		// 1 day, 1 hour, 1 minute, 1 second.
		{90_061_000, Remaining{Days: 1, Hours: 1, Minutes: 1, Seconds: 1}},
		{0, Remaining{}},
		{999, Remaining{}},
		{1_000, Remaining{Seconds: 1}},
		{59_999, Remaining{Seconds: 59}},
		{60_000, Remaining{Minutes: 1}},
		{3_600_000, Remaining{Hours: 1}},
		{86_400_000, Remaining{Days: 1}},
		{2*86_400_000 + 5*3_600_000 + 10*60_000, Remaining{Days: 2, Hours: 5, Minutes: 10}},
	}
	for _, tc := range cases {
		got := remainingUnits(time.Duration(tc.ms) * time.Millisecond)
		if got != tc.want {
			t.Errorf("remainingUnits(%dms) = %+v, want %+v", tc.ms, got, tc.want)
		}
	}
}

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	engine := NewEngine(gateway.New("", ""), nil)
	defer engine.Close()

	var expires atomic.Int32
	var mu sync.Mutex
	var ticks []Remaining

	cd := engine.NewCountdown(time.Now().Add(-time.Second))
	done := make(chan struct{})
	cd.Start(func(r Remaining) {
		mu.Lock()
		ticks = append(ticks, r)
		mu.Unlock()
	}, func() {
		if expires.Add(1) == 1 {
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("onExpire not called for past target")
	}

	// A past target must expire without ever rendering units.
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Empty(t, ticks)
	mu.Unlock()
	assert.Equal(t, int32(1), expires.Load())
}

func TestCountdownTicksThenExpires(t *testing.T) {
	engine := NewEngine(gateway.New("", ""), nil)
	defer engine.Close()

	var expires atomic.Int32
	var mu sync.Mutex
	var ticks []Remaining

	cd := engine.NewCountdown(time.Now().Add(1500 * time.Millisecond))
	done := make(chan struct{})
	cd.Start(func(r Remaining) {
		mu.Lock()
		ticks = append(ticks, r)
		mu.Unlock()
	}, func() {
		if expires.Add(1) == 1 {
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("countdown never expired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, ticks, "expected at least one rendered tick")
	assert.Equal(t, 1, ticks[0].Seconds)
	for _, r := range ticks {
		assert.GreaterOrEqual(t, r.Days, 0)
		assert.GreaterOrEqual(t, r.Hours, 0)
		assert.GreaterOrEqual(t, r.Minutes, 0)
		assert.GreaterOrEqual(t, r.Seconds, 0)
	}
	assert.Equal(t, int32(1), expires.Load())
}

func TestCountdownStop(t *testing.T) {
	engine := NewEngine(gateway.New("", ""), nil)
	defer engine.Close()

	var expires atomic.Int32
	cd := engine.NewCountdown(time.Now().Add(time.Second))
	cd.Start(func(Remaining) {}, func() { expires.Add(1) })
	cd.Stop()

	time.Sleep(1500 * time.Millisecond)
	assert.Zero(t, expires.Load(), "stopped countdown must not expire")

	// Stop is idempotent.
	cd.Stop()
}

func TestCountdownRestartCancelsPrevious(t *testing.T) {
	engine := NewEngine(gateway.New("", ""), nil)
	defer engine.Close()

	var firstTicks, secondTicks atomic.Int32
	cd := engine.NewCountdown(time.Now().Add(time.Hour))
	cd.Start(func(Remaining) { firstTicks.Add(1) }, nil)

	time.Sleep(50 * time.Millisecond)
	before := firstTicks.Load()
	cd.Start(func(Remaining) { secondTicks.Add(1) }, nil)
	cd.Stop()

	time.Sleep(1200 * time.Millisecond)
	// First loop stopped: at most the immediate tick it already rendered.
	assert.Equal(t, before, firstTicks.Load())
	cd.Stop()
	_ = secondTicks.Load()
}

func TestCountdownExpirySchedulesReload(t *testing.T) {
	// Gateway is unconfigured, so the deferred reload lands on the fallback.
	engine := NewEngine(gateway.New("", ""), nil)
	defer engine.Close()

	require.False(t, engine.UsingFallback())

	cd := engine.NewCountdown(time.Now().Add(-time.Second))
	done := make(chan struct{})
	cd.Start(nil, func() { close(done) })
	<-done

	// The catalog reload runs reloadDelay after expiry, not immediately.
	time.Sleep(reloadDelay / 2)
	assert.False(t, engine.UsingFallback(), "reload ran before the deferred delay")

	require.Eventually(t, engine.UsingFallback, 3*time.Second, 50*time.Millisecond,
		"deferred reload never ran")
}

func TestEngineCloseStopsPendingReloads(t *testing.T) {
	engine := NewEngine(gateway.New("", ""), nil)
	engine.scheduleReload(50 * time.Millisecond)
	engine.Close()

	time.Sleep(200 * time.Millisecond)
	assert.False(t, engine.UsingFallback(), "reload fired after Close")

	// Scheduling after Close is a no-op.
	engine.scheduleReload(10 * time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.False(t, engine.UsingFallback())
}

func TestSoonestPromoEndNilWithoutPromos(t *testing.T) {
	engine := NewEngine(gateway.New("", ""), nil)
	require.NoError(t, engine.LoadCatalog(context.Background()))
	assert.Nil(t, engine.SoonestPromoEnd())
}
