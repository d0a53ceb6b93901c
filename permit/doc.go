// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package permit provides permits: single-slot events that goroutines wait on and other goroutines grant.

A Consuming permit hands each grant to exactly one waiter, which atomically takes it.  A grant with no
waiter persists until the next wait.  A NonConsuming permit stays granted until it is revoked, releasing
every current and future waiter in the meantime.

Waiting can be multiplexed across many permits with a Selector, and the state of a permit can be
extended with synchronous hooks that run inside Grant, Revoke, and Destroy.  Package permitfd uses
those hooks to mirror a NonConsuming permit onto a file descriptor as level-triggered readiness.

Permits have an explicit lifecycle.  A permit is usable once it has been created with New or
initialized with Init, and unusable after Destroy.  Every operation on an unusable permit returns
ErrInvalidObject.  That check is a guard against misuse only: destroying a permit while goroutines
are blocked on it is a programming error.
*/
package permit
