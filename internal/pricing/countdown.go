// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package pricing

import (
	"sync"
	"time"
)

// Remaining is a countdown reading split into display units. Units are
// derived by integer division of the millisecond delta, so they never go
// negative.
type Remaining struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// remainingUnits splits a positive duration into countdown units.
func remainingUnits(d time.Duration) Remaining {
	ms := d.Milliseconds()
	return Remaining{
		Days:    int(ms / (1000 * 60 * 60 * 24)),
		Hours:   int(ms % (1000 * 60 * 60 * 24) / (1000 * 60 * 60)),
		Minutes: int(ms % (1000 * 60 * 60) / (1000 * 60)),
		Seconds: int(ms % (1000 * 60) / 1000),
	}
}

// Countdown drives one displayed countdown toward a promo end date. A single
// instance never has more than one ticking timer: Start cancels the previous
// registration first, since displays are destroyed and recreated whenever the
// catalog reloads.
type Countdown struct {
	engine *Engine
	target time.Time

	mu     sync.Mutex
	cancel chan struct{}
}

// NewCountdown creates a countdown toward target. The countdown is bound to
// the engine so that expiry can trigger a catalog reload.
func (e *Engine) NewCountdown(target time.Time) *Countdown {
	return &Countdown{engine: e, target: target}
}

// Start begins ticking once per second. onTick receives the current reading,
// starting immediately. When the delta reaches zero or goes negative, onExpire
// is invoked exactly once, the timer cancels itself, and a full catalog reload
// is scheduled after a short delay so the UI picks up the reverted
// non-promotional state. Calling Start on a running countdown restarts it.
func (c *Countdown) Start(onTick func(Remaining), onExpire func()) {
	c.mu.Lock()
	if c.cancel != nil {
		close(c.cancel)
	}
	done := make(chan struct{})
	c.cancel = done
	c.mu.Unlock()

	go c.run(done, onTick, onExpire)
}

// Stop cancels the countdown. Safe to call on a never-started or already
// expired countdown.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
}

func (c *Countdown) run(done chan struct{}, onTick func(Remaining), onExpire func()) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		diff := time.Until(c.target)
		if diff <= 0 {
			// Exactly once: we return right after, and a restarted countdown
			// is a new registration.
			if onExpire != nil {
				onExpire()
			}
			if c.engine != nil {
				c.engine.scheduleReload(reloadDelay)
			}
			c.clearIfCurrent(done)
			return
		}

		if onTick != nil {
			onTick(remainingUnits(diff))
		}

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// clearIfCurrent drops the cancel channel if this run still owns it, so a
// later Stop on an expired countdown is a no-op rather than a double close.
func (c *Countdown) clearIfCurrent(done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == done {
		c.cancel = nil
	}
}
