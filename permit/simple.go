// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import (
	"context"
	"sync"
	"time"
)

// Simple is the lightweight permit variant.  It is always consuming, and supports neither hooks
// nor select.  A zero Simple is invalid until Init is called.
type Simple struct {
	base
}

var _ Interface = (*Simple)(nil)

// NewSimple allocates and initializes a Simple permit.
func NewSimple(initial State, o ...Option) *Simple {
	s := new(Simple)
	s.Init(initial, o...)
	return s
}

// Init initializes s in place.  Init may be called again after Destroy.
func (s *Simple) Init(initial State, o ...Option) {
	s.base.init(simpleTag, initial, o)
}

// Valid reports whether s is initialized and not destroyed.
func (s *Simple) Valid() bool {
	return s.valid(simpleTag)
}

// Granted reports whether s currently holds an unclaimed grant.
func (s *Simple) Granted() bool {
	return s.Valid() && State(s.granted.Load()) == Granted
}

// Waiting returns the number of goroutines blocked on s.
func (s *Simple) Waiting() uint64 {
	return s.blocked()
}

// Grant makes s available to exactly one waiter.
func (s *Simple) Grant() error {
	if !s.Valid() {
		return ErrInvalidObject
	}

	s.granted.Store(uint32(Granted))
	s.wake(simpleTag, nil)
	return nil
}

// Revoke withdraws any unclaimed grant.
func (s *Simple) Revoke() error {
	if !s.Valid() {
		return ErrInvalidObject
	}

	s.granted.Store(uint32(Ungranted))
	return nil
}

// Wait blocks until s is claimed.  l, if not nil, is released while blocked.
func (s *Simple) Wait(l sync.Locker) error {
	return s.wait(context.Background(), l, time.Time{})
}

// TimedWait is like Wait, but returns ErrTimeout once deadline passes.  A zero deadline never expires.
func (s *Simple) TimedWait(l sync.Locker, deadline time.Time) error {
	return s.wait(context.Background(), l, deadline)
}

// WaitCtx is like Wait, but returns ctx.Err() if ctx is canceled first.
func (s *Simple) WaitCtx(ctx context.Context, l sync.Locker) error {
	return s.wait(ctx, l, time.Time{})
}

// TryWait claims s without blocking, returning ErrTimeout if s is not granted.
func (s *Simple) TryWait() error {
	if !s.Valid() {
		return ErrInvalidObject
	} else if s.claim(uint32(Ungranted)) {
		return nil
	}

	return ErrTimeout
}

// Destroy invalidates s.  Goroutines still blocked on s return ErrInvalidObject.
func (s *Simple) Destroy() error {
	if !s.Valid() {
		return ErrInvalidObject
	}

	s.invalidate(nil)
	return nil
}

func (s *Simple) wait(ctx context.Context, l sync.Locker, deadline time.Time) error {
	if !s.Valid() {
		return ErrInvalidObject
	}

	return s.base.wait(ctx, simpleTag, uint32(Ungranted), l, deadline)
}
