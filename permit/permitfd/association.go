// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permitfd

import (
	"errors"

	"github.com/xmidt-org/permit/permit"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// ErrConsuming is returned when a consuming permit is associated with a descriptor.
var ErrConsuming = errors.New("only nonconsuming permits can be associated with a descriptor")

// endpoint is the platform-specific side of an association.
type endpoint interface {
	// signal makes the read side readable, writing at most one byte.
	signal() error

	// drain reads until the read side is no longer readable.
	drain() error
}

// Option configures an Association.
type Option func(*Association)

// WithLogger sets the zap logger used to report descriptor I/O failures.  If nil, sallust.Default() is used.
func WithLogger(l *zap.Logger) Option {
	return func(a *Association) {
		if l != nil {
			a.logger = l
		} else {
			a.logger = sallust.Default()
		}
	}
}

// Association binds a permit to a descriptor pair through a grant hook and a revoke hook.
type Association struct {
	permit   *permit.Permit
	endpoint endpoint
	logger   *zap.Logger

	grant  permit.Hook
	revoke permit.Hook
}

func associate(p *permit.Permit, e endpoint, o []Option) (*Association, error) {
	if p == nil || !p.Valid() {
		return nil, permit.ErrInvalidObject
	} else if p.Mode() != permit.NonConsuming {
		return nil, ErrConsuming
	}

	a := &Association{
		permit:   p,
		endpoint: e,
		logger:   sallust.Default(),
	}

	for _, f := range o {
		f(a)
	}

	a.grant = permit.Hook{Func: onGrant, Data: a}
	a.revoke = permit.Hook{Func: onRevoke, Data: a}

	if err := p.PushHook(permit.HookGrant, &a.grant); err != nil {
		return nil, err
	}

	if err := p.PushHook(permit.HookRevoke, &a.revoke); err != nil {
		p.RemoveHook(permit.HookGrant, &a.grant)
		return nil, err
	}

	if p.Granted() {
		if err := e.signal(); err != nil {
			a.Deassociate()
			return nil, err
		}
	}

	return a, nil
}

// Permit returns the associated permit.
func (a *Association) Permit() *permit.Permit {
	return a.permit
}

// Deassociate removes the association's hooks from the permit.  The descriptors are left as they are.
func (a *Association) Deassociate() error {
	return errors.Join(
		a.permit.RemoveHook(permit.HookGrant, &a.grant),
		a.permit.RemoveHook(permit.HookRevoke, &a.revoke),
	)
}

func onGrant(p *permit.Permit, h *permit.Hook, next permit.Next) error {
	a := h.Data.(*Association)
	err := a.endpoint.signal()
	if err != nil {
		a.logger.Error("unable to signal descriptor", zap.Error(err))
	}

	return errors.Join(err, next.Call())
}

func onRevoke(p *permit.Permit, h *permit.Hook, next permit.Next) error {
	a := h.Data.(*Association)
	err := a.endpoint.drain()
	if err != nil {
		a.logger.Error("unable to drain descriptor", zap.Error(err))
	}

	return errors.Join(err, next.Call())
}
