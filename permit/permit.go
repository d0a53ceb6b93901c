// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Mode determines what happens to a grant when a waiter takes it.
type Mode int

const (
	// Consuming permits hand each grant to exactly one waiter.
	Consuming Mode = iota

	// NonConsuming permits remain granted until revoked.
	NonConsuming
)

func (m Mode) String() string {
	switch m {
	case Consuming:
		return "consuming"
	case NonConsuming:
		return "nonconsuming"
	default:
		return "invalid"
	}
}

// Permit is the full permit variant, supporting both modes, hooks, and select.  A zero Permit is
// invalid until Init is called.  A Permit must not be copied after first use.
type Permit struct {
	base

	mode      Mode
	replace   uint32
	exclusion exclusion
	hooks     [hookTypeCount]atomic.Pointer[[]*Hook]
	regs      registrations
}

var _ Interface = (*Permit)(nil)

// New allocates and initializes a Permit.
func New(m Mode, initial State, o ...Option) *Permit {
	p := new(Permit)
	p.Init(m, initial, o...)
	return p
}

// Init initializes p in place, discarding any hooks.  Any mode other than NonConsuming is treated
// as Consuming.  Init may be called again after Destroy.
func (p *Permit) Init(m Mode, initial State, o ...Option) {
	if m != NonConsuming {
		m = Consuming
	}

	p.mode = m
	p.replace = uint32(Ungranted)
	if m == NonConsuming {
		p.replace = uint32(Granted)
	}

	for i := range p.hooks {
		p.hooks[i].Store(nil)
	}

	for i := range p.regs {
		p.regs[i].Store(nil)
	}

	p.base.init(permitTag, initial, o)
}

// Valid reports whether p is initialized and not destroyed.
func (p *Permit) Valid() bool {
	return p.valid(permitTag)
}

// Mode returns the mode p was initialized with.
func (p *Permit) Mode() Mode {
	return p.mode
}

// Granted reports whether p currently holds a grant.
func (p *Permit) Granted() bool {
	return p.Valid() && State(p.granted.Load()) == Granted
}

// Waiting returns the number of goroutines blocked on p, including selects registered with it.
func (p *Permit) Waiting() uint64 {
	return p.blocked()
}

// Grant makes p available and runs its grant hooks.  A hook failure is returned wrapped in
// ErrInternalSync, but the grant itself stands.
func (p *Permit) Grant() error {
	if !p.Valid() {
		return ErrInvalidObject
	}

	if p.mode == NonConsuming {
		p.exclusion.acquire()
		defer p.exclusion.release()
	}

	p.granted.Store(uint32(Granted))
	err := p.runHooks(HookGrant)
	p.wake(permitTag, &p.regs)
	return err
}

// Revoke withdraws any grant and runs the revoke hooks.
func (p *Permit) Revoke() error {
	if !p.Valid() {
		return ErrInvalidObject
	}

	p.granted.Store(uint32(Ungranted))
	return p.runHooks(HookRevoke)
}

// Wait blocks until p is claimed.  l, if not nil, is released while blocked.
func (p *Permit) Wait(l sync.Locker) error {
	return p.wait(context.Background(), l, time.Time{})
}

// TimedWait is like Wait, but returns ErrTimeout once deadline passes.  A zero deadline never expires.
func (p *Permit) TimedWait(l sync.Locker, deadline time.Time) error {
	return p.wait(context.Background(), l, deadline)
}

// WaitCtx is like Wait, but returns ctx.Err() if ctx is canceled first.
func (p *Permit) WaitCtx(ctx context.Context, l sync.Locker) error {
	return p.wait(ctx, l, time.Time{})
}

// TryWait claims p without blocking, returning ErrTimeout if p is not granted.
func (p *Permit) TryWait() error {
	if !p.Valid() {
		return ErrInvalidObject
	} else if p.claim(p.replace) {
		return nil
	}

	return ErrTimeout
}

// Destroy runs the destroy hooks and invalidates p.  Goroutines still blocked on p, which is a
// programming error, return ErrInvalidObject.
func (p *Permit) Destroy() error {
	if !p.Valid() {
		return ErrInvalidObject
	}

	err := p.runHooks(HookDestroy)
	p.invalidate(&p.regs)
	return err
}

func (p *Permit) quiesce() {
	if p.mode == NonConsuming {
		p.exclusion.quiesce()
	}
}

func (p *Permit) wait(ctx context.Context, l sync.Locker, deadline time.Time) error {
	if !p.Valid() {
		return ErrInvalidObject
	}

	p.quiesce()
	return p.base.wait(ctx, permitTag, p.replace, l, deadline)
}
