// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import "sync"

// exclusion serializes non-consuming grants against each other and against hook mutation.
// Waiters quiesce on it so that they do not join a broadcast already in progress.
type exclusion struct {
	m sync.Mutex
}

func (e *exclusion) acquire() {
	e.m.Lock()
}

func (e *exclusion) release() {
	e.m.Unlock()
}

// quiesce blocks until no holder is inside the exclusion.
func (e *exclusion) quiesce() {
	e.m.Lock()
	e.m.Unlock()
}
