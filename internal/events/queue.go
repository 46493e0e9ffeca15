/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skaldbox/internal/telemetry"
)

// ControlType enumerates the discrete events the playback controller reacts to.
type ControlType string

const (
	ControlPlayPause     ControlType = "play_pause"
	ControlNext          ControlType = "next"
	ControlPrevious      ControlType = "previous"
	ControlVolumeDelta   ControlType = "volume_delta"
	ControlEncoderPress  ControlType = "encoder_press"
	ControlMountAppeared ControlType = "mount_appeared"
	ControlMountGone     ControlType = "mount_gone"
	ControlDecoderExit   ControlType = "decoder_exit"
)

// Control is one queued event. Delta is set for volume events, Generation for
// decoder exits so the controller can discard exits from superseded decodes.
type Control struct {
	Type       ControlType
	Delta      int
	Generation uint64
}

// Queue is the bounded single-consumer event queue feeding the control loop.
// All asynchronous producers (input sources, media watcher, decoder exit
// observers, control API) push here; exactly one loop drains it. When the
// queue is full the oldest event is dropped, which is logged and counted —
// input events are not precious, but silent loss would be.
type Queue struct {
	ch      chan Control
	dropped atomic.Uint64
	logger  zerolog.Logger
}

// NewQueue creates a queue with the given capacity.
func NewQueue(size int, logger zerolog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{ch: make(chan Control, size), logger: logger}
}

// Push enqueues ev, evicting the oldest pending event if the queue is full.
func (q *Queue) Push(ev Control) {
	for {
		select {
		case q.ch <- ev:
			return
		default:
		}
		select {
		case old := <-q.ch:
			q.dropped.Add(1)
			telemetry.QueueDroppedTotal.Inc()
			q.logger.Warn().
				Str("dropped", string(old.Type)).
				Str("incoming", string(ev.Type)).
				Msg("event queue full, dropping oldest event")
		default:
		}
	}
}

// C returns the receive side for the single consumer.
func (q *Queue) C() <-chan Control {
	return q.ch
}

// Dropped reports how many events have been evicted.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
