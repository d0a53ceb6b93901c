// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package permitfd mirrors the state of a NonConsuming permit onto a pair of connected descriptors,
so that the read end is readable exactly while the permit is granted.

This lets code built around poll, select, or an event loop wait on a permit alongside ordinary I/O.
Readiness is level-triggered: a grant writes a single byte unless one is already pending, and a
revocation drains the read end.  Only NonConsuming permits can be associated, since a consuming
grant disappears as soon as a waiter takes it.

Association and deassociation install and remove permit hooks.  They must not run concurrently with
Grant, Revoke, or Destroy on the same permit.
*/
package permitfd
