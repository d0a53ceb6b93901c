// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import "errors"

var (
	// ErrInvalidObject is returned by any operation on a permit that was never initialized
	// or that has been destroyed.
	ErrInvalidObject = errors.New("the permit is not initialized or has been destroyed")

	// ErrTimeout is returned when a permit could not be claimed before a deadline.  Cancellation
	// through a context returns ctx.Err() instead.
	ErrTimeout = errors.New("the permit could not be claimed before the deadline")

	// ErrResourceExhausted is returned by a select when no select slots are available, either in
	// the Selector or in the registration table of a target permit.
	ErrResourceExhausted = errors.New("no select slots are available")

	// ErrInternalSync indicates that a synchronization primitive underlying a permit failed.  Hook
	// failures are reported with this error, wrapping the hook's own error.
	ErrInternalSync = errors.New("a synchronization primitive failed")

	// ErrInvalidHookType is returned when a hook operation names an unknown hook type.
	ErrInvalidHookType = errors.New("invalid hook type")

	// ErrNilHook is returned when a nil hook is pushed.
	ErrNilHook = errors.New("the hook cannot be nil")

	// ErrHookNotFound is returned when a hook to be removed is not installed, or a hook chain is empty.
	ErrHookNotFound = errors.New("the hook is not installed")
)
