// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Capture returns the current time as reported by c.  A nil clock means the system clock.
func Capture(c Interface) time.Time {
	if c == nil {
		return time.Now()
	}

	return c.Now()
}

// Diff returns the signed number of nanoseconds from b to a.  The result is positive when a is
// after b.  Differences too large to represent saturate at the int64 bounds.
func Diff(a, b time.Time) int64 {
	return int64(a.Sub(b))
}

// Until returns the signed number of nanoseconds remaining before deadline, as measured by c.
// A zero deadline never expires, and Until returns math.MaxInt64 for it.
func Until(c Interface, deadline time.Time) int64 {
	if deadline.IsZero() {
		return int64(^uint64(0) >> 1)
	}

	return Diff(deadline, Capture(c))
}

// Expired reports whether deadline has passed according to c.  A zero deadline never expires.
func Expired(c Interface, deadline time.Time) bool {
	return Until(c, deadline) <= 0
}
