// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package guard

import (
	"sync"
	"time"
)

// Idle-session policy: a warning 5 minutes before a forced logout at 30
// minutes of inactivity.
const (
	IdleTimeout   = 30 * time.Minute
	IdleWarnAfter = 25 * time.Minute
)

// IdleTimer forces a logout after a period of inactivity, with an earlier
// warning. Any qualifying activity rearms both timers atomically, so pending
// callbacks never stack. Stop cancels everything; neither callback fires
// after Stop returns.
type IdleTimer struct {
	warnAfter time.Duration
	timeout   time.Duration
	onWarn    func()
	onLogout  func()

	mu      sync.Mutex
	warnT   *time.Timer
	logoutT *time.Timer
	stopped bool
}

// NewIdleTimer creates a stopped idle timer with the standard policy.
// Callbacks run on timer goroutines.
func NewIdleTimer(onWarn, onLogout func()) *IdleTimer {
	return &IdleTimer{
		warnAfter: IdleWarnAfter,
		timeout:   IdleTimeout,
		onWarn:    onWarn,
		onLogout:  onLogout,
	}
}

// Start arms the timers. Starting an already running timer rearms it.
func (t *IdleTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = false
	t.rearmLocked()
}

// Activity resets both timers. No-op once stopped, so a late activity event
// after logout cannot resurrect the session timers.
func (t *IdleTimer) Activity() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.rearmLocked()
}

// Stop cancels both timers. Idempotent; safe on a never-started timer.
func (t *IdleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	t.cancelLocked()
}

func (t *IdleTimer) rearmLocked() {
	t.cancelLocked()
	t.warnT = time.AfterFunc(t.warnAfter, func() { t.fire(t.onWarn) })
	t.logoutT = time.AfterFunc(t.timeout, func() { t.fire(t.onLogout) })
}

func (t *IdleTimer) cancelLocked() {
	if t.warnT != nil {
		t.warnT.Stop()
		t.warnT = nil
	}
	if t.logoutT != nil {
		t.logoutT.Stop()
		t.logoutT = nil
	}
}

// fire runs a callback unless the timer was stopped after the underlying
// time.Timer already fired.
func (t *IdleTimer) fire(fn func()) {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()

	if stopped || fn == nil {
		return
	}
	fn()
}
