// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import (
	"runtime"
	"sync"
	"time"

	"github.com/xmidt-org/permit/clock"
)

// cond is a condition variable whose waiters block on a channel.  Every broadcast closes the
// current channel, so a waiter that fetched its channel before a broadcast cannot miss it.
type cond struct {
	lock sync.Mutex
	ch   chan struct{}
}

// channel returns the channel closed by the next broadcast.
func (c *cond) channel() <-chan struct{} {
	c.lock.Lock()
	if c.ch == nil {
		c.ch = make(chan struct{})
	}

	ch := c.ch
	c.lock.Unlock()
	return ch
}

func (c *cond) broadcast() {
	c.lock.Lock()
	if c.ch != nil {
		close(c.ch)
		c.ch = nil
	}

	c.lock.Unlock()
}

// sleeper tracks the deadline of a single blocking call.  The timer is created lazily, the first
// time the call actually has to block.
type sleeper struct {
	clock    clock.Interface
	deadline time.Time
	timer    clock.Timer
}

func (s *sleeper) expired() bool {
	return clock.Expired(s.clock, s.deadline)
}

// sleep parks the calling goroutine until wake or done is closed or the deadline passes, releasing
// l for the duration.  With no locker, the goroutine yields instead of sleeping.
func (s *sleeper) sleep(l sync.Locker, wake, done <-chan struct{}) {
	if l == nil {
		runtime.Gosched()
		return
	}

	var expiry <-chan time.Time
	if !s.deadline.IsZero() {
		if s.timer == nil {
			s.timer = s.clock.NewTimer(time.Duration(clock.Until(s.clock, s.deadline)))
		}

		expiry = s.timer.C()
	}

	l.Unlock()
	select {
	case <-wake:
	case <-done:
	case <-expiry:
		// fired timers are discarded, so that an early wakeup re-arms on the next pass
		s.timer = nil
	}

	l.Lock()
}

func (s *sleeper) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
