/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eject

import "sync/atomic"

// Latch is the single authority for "should auto-play react to mount events".
// The coordinator engages it on a successful eject; the media watcher reads it
// before forwarding mount-appeared edges. Atomic so the watcher goroutine can
// consult it without sharing a lock with the control loop.
type Latch struct {
	suppressed atomic.Bool
}

// Engage suppresses mount reactions.
func (l *Latch) Engage() {
	l.suppressed.Store(true)
}

// Release lifts the suppression.
func (l *Latch) Release() {
	l.suppressed.Store(false)
}

// Suppressed reports whether mount reactions are suppressed.
func (l *Latch) Suppressed() bool {
	return l.suppressed.Load()
}
