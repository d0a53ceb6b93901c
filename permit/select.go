// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/xmidt-org/permit/clock"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

const (
	// DefaultCapacity is the number of concurrent selects a Selector supports when no capacity is configured.
	DefaultCapacity = 64

	// MaxRegistrations is the number of concurrent selects a single Permit can participate in.
	MaxRegistrations = 64

	slotTag uint32 = 0x53455050
)

// slot is the waiting side of a single select call.
type slot struct {
	tag  atomic.Uint32
	cond cond
}

// registrations is the table of selects currently waiting on a permit.
type registrations [MaxRegistrations]atomic.Pointer[slot]

func (r *registrations) add(s *slot) bool {
	for i := range r {
		if r[i].CompareAndSwap(nil, s) {
			return true
		}
	}

	return false
}

func (r *registrations) remove(s *slot) {
	for i := range r {
		if r[i].CompareAndSwap(s, nil) {
			return
		}
	}
}

func (r *registrations) signal() {
	for i := range r {
		if s := r[i].Load(); s != nil {
			s.cond.broadcast()
		}
	}
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithCapacity sets the number of concurrent selects.  NewSelector panics if this is nonpositive.
func WithCapacity(n int) SelectorOption {
	return func(s *Selector) {
		s.capacity = n
	}
}

// WithSelectorLogger sets the zap logger.  If nil, sallust.Default() is used.
func WithSelectorLogger(l *zap.Logger) SelectorOption {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		} else {
			s.logger = sallust.Default()
		}
	}
}

// WithSelectorClock sets the clock used to evaluate deadlines.  If nil, the system clock is used.
func WithSelectorClock(c clock.Interface) SelectorOption {
	return func(s *Selector) {
		if c != nil {
			s.clock = c
		} else {
			s.clock = clock.System()
		}
	}
}

// WithSelectorMeasures reports select outcomes and the number of active selects to m.
// Nil measures, or nil fields, are discarded.
func WithSelectorMeasures(m *Measures) SelectorOption {
	return func(s *Selector) {
		s.selects = discard.NewCounter()
		s.active = discard.NewGauge()
		if m != nil {
			if m.Selects != nil {
				s.selects = m.Selects
			}

			if m.ActiveSelects != nil {
				s.active = m.ActiveSelects
			}
		}
	}
}

// Selector multiplexes waiting across several permits.  It owns a fixed pool of select slots, one per
// concurrent Select call.
type Selector struct {
	capacity int
	slots    []slot

	logger  *zap.Logger
	clock   clock.Interface
	selects metrics.Counter
	active  metrics.Gauge
}

// NewSelector creates a Selector.  This function panics if the configured capacity is nonpositive.
func NewSelector(o ...SelectorOption) *Selector {
	s := &Selector{
		capacity: DefaultCapacity,
		logger:   sallust.Default(),
		clock:    clock.System(),
		selects:  discard.NewCounter(),
		active:   discard.NewGauge(),
	}

	for _, f := range o {
		f(s)
	}

	if s.capacity < 1 {
		panic("The capacity must be positive")
	}

	s.slots = make([]slot, s.capacity)
	return s
}

var defaultSelector = NewSelector()

// DefaultSelector returns the process-wide Selector used by Select and SelectCtx.
func DefaultSelector() *Selector {
	return defaultSelector
}

// Select waits on permits using the DefaultSelector.
func Select(permits []*Permit, l sync.Locker, deadline time.Time) (int, error) {
	return defaultSelector.Select(permits, l, deadline)
}

// SelectCtx waits on permits using the DefaultSelector until one is claimed or ctx is canceled.
func SelectCtx(ctx context.Context, permits []*Permit, l sync.Locker) (int, error) {
	return defaultSelector.SelectCtx(ctx, permits, l)
}

// Capacity returns the maximum number of concurrent selects.
func (s *Selector) Capacity() int {
	return len(s.slots)
}

// Active returns the number of select slots currently in use.
func (s *Selector) Active() (n int) {
	for i := range s.slots {
		if s.slots[i].tag.Load() == slotTag {
			n++
		}
	}

	return
}

// Select blocks until one of permits is claimed, returning its index.  Permits are polled in
// order, so lower indices win ties.  On return every entry of permits is nil except the claimed one.
// A zero deadline never expires.
//
// An empty list, or any nil or invalid entry, fails the call with ErrInvalidObject.  ErrResourceExhausted is returned when
// the Selector, or any target permit's registration table, is full.
func (s *Selector) Select(permits []*Permit, l sync.Locker, deadline time.Time) (int, error) {
	return s.run(context.Background(), permits, l, deadline)
}

// SelectCtx is like Select with no deadline, but returns ctx.Err() if ctx is canceled first.
func (s *Selector) SelectCtx(ctx context.Context, permits []*Permit, l sync.Locker) (int, error) {
	return s.run(ctx, permits, l, time.Time{})
}

func (s *Selector) acquire() *slot {
	for i := range s.slots {
		if s.slots[i].tag.CompareAndSwap(0, slotTag) {
			return &s.slots[i]
		}
	}

	return nil
}

func (s *Selector) run(ctx context.Context, permits []*Permit, l sync.Locker, deadline time.Time) (selected int, err error) {
	selected = -1
	defer func() {
		s.selects.With(OutcomeLabel, outcomeOf(err)).Add(1.0)
	}()

	if len(permits) == 0 {
		err = ErrInvalidObject
		return
	}

	for _, p := range permits {
		if p == nil || !p.Valid() {
			err = ErrInvalidObject
		}
	}

	if err != nil {
		clear(permits)
		return
	}

	sl := s.acquire()
	if sl == nil {
		s.logger.Debug("select slots exhausted", zap.Int("capacity", len(s.slots)))
		clear(permits)
		err = ErrResourceExhausted
		return
	}

	s.active.Add(1.0)
	defer func() {
		sl.tag.Store(0)
		s.active.Add(-1.0)
	}()

	registered := 0
	for _, p := range permits {
		p.quiesce()
		p.waiters.Add(1)
		if !p.regs.add(sl) {
			p.woken.Add(1)
			err = ErrResourceExhausted
			break
		}

		registered++
	}

	if err == nil {
		selected, err = s.poll(ctx, sl, permits, l, deadline)
	}

	for _, p := range permits[:registered] {
		p.regs.remove(sl)
		p.woken.Add(1)
	}

	for i := range permits {
		if i != selected {
			permits[i] = nil
		}
	}

	return
}

func (s *Selector) poll(ctx context.Context, sl *slot, permits []*Permit, l sync.Locker, deadline time.Time) (int, error) {
	sp := sleeper{clock: s.clock, deadline: deadline}
	defer sp.stop()

	for {
		wake := sl.cond.channel()
		for i, p := range permits {
			if !p.Valid() {
				return -1, ErrInvalidObject
			} else if p.claim(p.replace) {
				return i, nil
			}
		}

		if err := ctx.Err(); err != nil {
			return -1, err
		} else if sp.expired() {
			return -1, ErrTimeout
		}

		sp.sleep(l, wake, ctx.Done())
	}
}
