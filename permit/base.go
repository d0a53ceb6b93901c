// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xmidt-org/permit/clock"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// State is the logical state of a permit.
type State uint32

const (
	Ungranted State = iota
	Granted
)

func (s State) String() string {
	if s == Granted {
		return "granted"
	}

	return "ungranted"
}

// DefaultWakeRounds is the default upper bound on the number of broadcast rounds a single grant
// performs while waiting for blocked goroutines to take it.
const DefaultWakeRounds = 1024

// validity tags, one per variant
const (
	permitTag uint32 = 0x52455050
	simpleTag uint32 = 0x31525050
)

// Interface is the behavior common to every permit variant.
type Interface interface {
	// Grant makes the permit available.  A consuming permit releases exactly one waiter, or the next
	// goroutine to wait if none is blocked.  A non-consuming permit releases every waiter until revoked.
	Grant() error

	// Revoke withdraws any outstanding grant, so that subsequent waits block.
	Revoke() error

	// Wait blocks until the permit is claimed.  The locker, which the caller must hold, is released
	// while blocked and reacquired before returning.  With a nil locker the caller yields instead.
	Wait(sync.Locker) error

	// TimedWait is like Wait, but returns ErrTimeout once the deadline passes.  A zero deadline never expires.
	TimedWait(sync.Locker, time.Time) error

	// WaitCtx is like Wait, but returns ctx.Err() if the context is canceled first.
	WaitCtx(context.Context, sync.Locker) error

	// TryWait claims the permit without blocking, returning ErrTimeout if it is not granted.
	TryWait() error

	// Destroy invalidates the permit.  Every subsequent operation returns ErrInvalidObject.
	Destroy() error
}

// Option configures a permit of any variant.
type Option func(*base)

// WithLogger sets the zap logger for a permit.  If nil, sallust.Default() is used.
func WithLogger(l *zap.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		} else {
			b.logger = sallust.Default()
		}
	}
}

// WithClock sets the clock used to evaluate deadlines.  If nil, the system clock is used.
func WithClock(c clock.Interface) Option {
	return func(b *base) {
		if c != nil {
			b.clock = c
		} else {
			b.clock = clock.System()
		}
	}
}

// WithWakeRounds bounds the number of broadcast rounds a grant performs.  Nonpositive values
// select DefaultWakeRounds.
func WithWakeRounds(n int) Option {
	return func(b *base) {
		if n > 0 {
			b.wakeRounds = n
		} else {
			b.wakeRounds = DefaultWakeRounds
		}
	}
}

// base holds the state shared by every permit variant.
//
// waiters and woken only ever increase.  waiters-woken is the number of goroutines currently
// blocked on, or registered with, the permit.
type base struct {
	tag     atomic.Uint32
	granted atomic.Uint32
	waiters atomic.Uint64
	woken   atomic.Uint64
	cond    cond

	clock      clock.Interface
	logger     *zap.Logger
	wakeRounds int
}

func (b *base) init(tag uint32, initial State, o []Option) {
	b.tag.Store(0)
	b.clock = clock.System()
	b.logger = sallust.Default()
	b.wakeRounds = DefaultWakeRounds
	for _, f := range o {
		f(b)
	}

	if initial != Ungranted {
		initial = Granted
	}

	b.granted.Store(uint32(initial))
	b.waiters.Store(0)
	b.woken.Store(0)
	b.tag.Store(tag)
}

func (b *base) valid(tag uint32) bool {
	return b.tag.Load() == tag
}

func (b *base) blocked() uint64 {
	w := b.woken.Load()
	return b.waiters.Load() - w
}

// claim takes a grant, leaving replace in its place.
func (b *base) claim(replace uint32) bool {
	return b.granted.CompareAndSwap(uint32(Granted), replace)
}

func (b *base) wait(ctx context.Context, tag, replace uint32, l sync.Locker, deadline time.Time) error {
	b.waiters.Add(1)
	defer b.woken.Add(1)

	if b.claim(replace) {
		return nil
	}

	s := sleeper{clock: b.clock, deadline: deadline}
	defer s.stop()

	for {
		// the channel must be fetched before the claim, or a grant in between would go unnoticed
		wake := b.cond.channel()
		if !b.valid(tag) {
			return ErrInvalidObject
		} else if b.claim(replace) {
			return nil
		} else if err := ctx.Err(); err != nil {
			return err
		} else if s.expired() {
			return ErrTimeout
		}

		s.sleep(l, wake, ctx.Done())
	}
}

// wake broadcasts to blocked goroutines until none remain, the grant is gone, or the round
// limit is reached.  Registered selects, if any, are signalled on every round.
func (b *base) wake(tag uint32, regs *registrations) {
	for round := 0; round < b.wakeRounds && b.blocked() > 0; round++ {
		if !b.valid(tag) || State(b.granted.Load()) != Granted {
			return
		}

		b.cond.broadcast()
		if regs != nil {
			regs.signal()
		}

		runtime.Gosched()
	}
}

// invalidate clears the tag and leaves the permit granted, so racing grants stop broadcasting and
// blocked goroutines observe the destruction.
func (b *base) invalidate(regs *registrations) {
	if n := b.blocked(); n > 0 {
		b.logger.Warn("permit destroyed with blocked waiters", zap.Uint64("blocked", n))
	}

	b.tag.Store(0)
	b.granted.Store(uint32(Granted))
	b.cond.broadcast()
	if regs != nil {
		regs.signal()
	}
}
