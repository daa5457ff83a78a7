// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package guard

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fastIdleTimer shrinks the policy durations so the sequence is observable
// in a test run.
func fastIdleTimer(onWarn, onLogout func()) *IdleTimer {
	t := NewIdleTimer(onWarn, onLogout)
	t.warnAfter = 50 * time.Millisecond
	t.timeout = 100 * time.Millisecond
	return t
}

func TestIdleTimerWarnsThenLogsOut(t *testing.T) {
	var warns, logouts atomic.Int32
	var warnedFirst atomic.Bool

	done := make(chan struct{})
	it := fastIdleTimer(
		func() { warns.Add(1) },
		func() {
			warnedFirst.Store(warns.Load() > 0)
			logouts.Add(1)
			close(done)
		},
	)
	it.Start()
	defer it.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("logout never fired")
	}

	assert.Equal(t, int32(1), warns.Load())
	assert.Equal(t, int32(1), logouts.Load())
	assert.True(t, warnedFirst.Load(), "warning must precede logout")
}

func TestIdleTimerActivityResets(t *testing.T) {
	var warns atomic.Int32
	it := fastIdleTimer(func() { warns.Add(1) }, nil)
	it.Start()
	defer it.Stop()

	// Keep poking before the warning threshold; nothing may fire.
	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		it.Activity()
	}
	assert.Zero(t, warns.Load(), "warning fired despite activity")

	// Go idle: the warning arrives once.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), warns.Load())
}

func TestIdleTimerStop(t *testing.T) {
	var fired atomic.Int32
	it := fastIdleTimer(func() { fired.Add(1) }, func() { fired.Add(1) })
	it.Start()
	it.Stop()

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, fired.Load(), "callback fired after Stop")

	// Activity after Stop must not rearm.
	it.Activity()
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, fired.Load())

	// Stop is idempotent, including on a never-started timer.
	it.Stop()
	NewIdleTimer(nil, nil).Stop()
}
