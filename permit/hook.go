// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import (
	"fmt"

	"go.uber.org/zap"
)

// HookType identifies the permit operation a hook chain runs inside.
type HookType int

const (
	HookDestroy HookType = iota
	HookGrant
	HookRevoke

	// HookWait is reserved.  Hooks may be installed, but no operation runs them.
	HookWait

	hookTypeCount
)

func (t HookType) String() string {
	switch t {
	case HookDestroy:
		return "destroy"
	case HookGrant:
		return "grant"
	case HookRevoke:
		return "revoke"
	case HookWait:
		return "wait"
	default:
		return "invalid"
	}
}

func (t HookType) valid() bool {
	return t >= 0 && t < hookTypeCount
}

// HookFunc is the callback of a Hook.  It is responsible for continuing the chain through next.
//
// Hooks run synchronously inside Grant, Revoke, and Destroy.  For a NonConsuming permit, grant hooks
// run while the grant exclusion is held, so a hook must not grant, wait on, or mutate the hooks of
// the permit that invoked it.
type HookFunc func(p *Permit, h *Hook, next Next) error

// Hook is a caller-owned entry in a hook chain.  Hooks are compared by identity.
type Hook struct {
	Func HookFunc
	Data interface{}
}

// Next is the remainder of a hook chain after the currently executing hook.
type Next struct {
	permit *Permit
	chain  []*Hook
}

// Len returns the number of hooks remaining in the chain.
func (n Next) Len() int {
	return len(n.chain)
}

// Call invokes the next hook in the chain, if any.  Hooks with a nil Func are skipped.
func (n Next) Call() error {
	for i, h := range n.chain {
		if h.Func != nil {
			return h.Func(n.permit, h, Next{permit: n.permit, chain: n.chain[i+1:]})
		}
	}

	return nil
}

func (p *Permit) chain(t HookType) []*Hook {
	if c := p.hooks[t].Load(); c != nil {
		return *c
	}

	return nil
}

func (p *Permit) checkHook(t HookType) error {
	if !p.Valid() {
		return ErrInvalidObject
	} else if !t.valid() {
		return ErrInvalidHookType
	}

	return nil
}

// PushHook installs h at the head of the chain for t, so that it runs before every hook already installed.
func (p *Permit) PushHook(t HookType, h *Hook) error {
	if err := p.checkHook(t); err != nil {
		return err
	} else if h == nil {
		return ErrNilHook
	}

	p.exclusion.acquire()
	defer p.exclusion.release()

	current := p.chain(t)
	updated := make([]*Hook, 0, len(current)+1)
	updated = append(updated, h)
	updated = append(updated, current...)
	p.hooks[t].Store(&updated)
	return nil
}

// PopHook removes and returns the head of the chain for t.
func (p *Permit) PopHook(t HookType) (*Hook, error) {
	if err := p.checkHook(t); err != nil {
		return nil, err
	}

	p.exclusion.acquire()
	defer p.exclusion.release()

	current := p.chain(t)
	if len(current) == 0 {
		return nil, ErrHookNotFound
	}

	updated := current[1:]
	p.hooks[t].Store(&updated)
	return current[0], nil
}

// RemoveHook removes h from anywhere in the chain for t.
func (p *Permit) RemoveHook(t HookType, h *Hook) error {
	if err := p.checkHook(t); err != nil {
		return err
	}

	p.exclusion.acquire()
	defer p.exclusion.release()

	current := p.chain(t)
	for i, candidate := range current {
		if candidate == h {
			updated := make([]*Hook, 0, len(current)-1)
			updated = append(updated, current[:i]...)
			updated = append(updated, current[i+1:]...)
			p.hooks[t].Store(&updated)
			return nil
		}
	}

	return ErrHookNotFound
}

// Hooks returns a snapshot of the chain for t, most recently pushed first.
func (p *Permit) Hooks(t HookType) []*Hook {
	if !t.valid() {
		return nil
	}

	current := p.chain(t)
	return append(make([]*Hook, 0, len(current)), current...)
}

func (p *Permit) runHooks(t HookType) error {
	chain := p.chain(t)
	if len(chain) == 0 {
		return nil
	}

	if err := (Next{permit: p, chain: chain}).Call(); err != nil {
		p.logger.Error("permit hook failed", zap.Stringer("hookType", t), zap.Error(err))
		return fmt.Errorf("%w: %s hook: %w", ErrInternalSync, t, err)
	}

	return nil
}
