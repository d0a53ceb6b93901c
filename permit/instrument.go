// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/xmidt-org/permit/xmetrics"
)

// InstrumentOption represents a configurable option for instrumenting a permit
type InstrumentOption func(*instrumentedPermit)

// WithGrants establishes a metric that counts successful grants.  If a nil counter is supplied,
// grant counts are discarded.
func WithGrants(a xmetrics.Adder) InstrumentOption {
	return func(i *instrumentedPermit) {
		i.grants = xmetrics.AdderOrDiscard(a)
	}
}

// WithRevokes establishes a metric that counts successful revocations.  If a nil counter is supplied,
// revocation counts are discarded.
func WithRevokes(a xmetrics.Adder) InstrumentOption {
	return func(i *instrumentedPermit) {
		i.revokes = xmetrics.AdderOrDiscard(a)
	}
}

// WithWaits establishes a metric that counts completed waits, labeled by OutcomeLabel.  If a nil
// counter is supplied, wait counts are discarded.
func WithWaits(c metrics.Counter) InstrumentOption {
	return func(i *instrumentedPermit) {
		if c != nil {
			i.waits = c
		} else {
			i.waits = discard.NewCounter()
		}
	}
}

// Instrument decorates an existing permit with a set of options.
func Instrument(p Interface, o ...InstrumentOption) Interface {
	ip := &instrumentedPermit{
		Interface: p,
		grants:    discard.NewCounter(),
		revokes:   discard.NewCounter(),
		waits:     discard.NewCounter(),
	}

	for _, f := range o {
		f(ip)
	}

	return ip
}

type instrumentedPermit struct {
	Interface
	grants  xmetrics.Adder
	revokes xmetrics.Adder
	waits   metrics.Counter
}

func (ip *instrumentedPermit) observe(err error) error {
	ip.waits.With(OutcomeLabel, outcomeOf(err)).Add(1.0)
	return err
}

func (ip *instrumentedPermit) Grant() (err error) {
	err = ip.Interface.Grant()
	if !rejected(err) {
		ip.grants.Add(1.0)
	}

	return
}

func (ip *instrumentedPermit) Revoke() (err error) {
	err = ip.Interface.Revoke()
	if !rejected(err) {
		ip.revokes.Add(1.0)
	}

	return
}

func (ip *instrumentedPermit) Wait(l sync.Locker) error {
	return ip.observe(ip.Interface.Wait(l))
}

func (ip *instrumentedPermit) TimedWait(l sync.Locker, deadline time.Time) error {
	return ip.observe(ip.Interface.TimedWait(l, deadline))
}

func (ip *instrumentedPermit) WaitCtx(ctx context.Context, l sync.Locker) error {
	return ip.observe(ip.Interface.WaitCtx(ctx, l))
}

func (ip *instrumentedPermit) TryWait() error {
	return ip.observe(ip.Interface.TryWait())
}

// rejected reports whether an operation was refused outright.  Hook failures still count.
func rejected(err error) bool {
	return errors.Is(err, ErrInvalidObject)
}
