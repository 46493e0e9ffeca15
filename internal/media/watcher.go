/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package media

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/friendsincode/skaldbox/internal/events"
	"github.com/friendsincode/skaldbox/internal/telemetry"
)

// Gate is consulted before an effective mount-appeared event is emitted.
// While engaged (medium manually ejected) mount edges are observed but not
// forwarded, so reinserting a stick the user just ejected does not restart
// playback behind their back.
type Gate interface {
	Suppressed() bool
}

// Watcher turns kernel mount-table changes for one mount point into discrete
// mount-appeared / mount-disappeared events on the control queue. It watches
// the mount point's parent directory with fsnotify and re-checks the mount
// table on a ticker as a fallback, since mount(2) itself does not always
// produce an inotify event on the parent.
type Watcher struct {
	mountPoint string
	interval   time.Duration
	gate       Gate
	queue      *events.Queue
	logger     zerolog.Logger

	// probe is swappable for tests.
	probe func() bool

	// effective is the last state forwarded to the controller: physically
	// mounted AND not suppressed. Tracking the effective state means the
	// appeared edge fires on the next check after suppression lifts, covering
	// a medium reinserted before the user pressed re-enable.
	effective bool
}

// NewWatcher creates a mount watcher.
func NewWatcher(mountPoint string, interval time.Duration, gate Gate, queue *events.Queue, logger zerolog.Logger) *Watcher {
	w := &Watcher{
		mountPoint: mountPoint,
		interval:   interval,
		gate:       gate,
		queue:      queue,
		logger:     logger,
	}
	w.probe = func() bool { return Mounted(mountPoint) }
	return w
}

// Run observes mount state until the context is cancelled. If the medium is
// already mounted when Run starts, a mount-appeared event is emitted so a
// stick inserted before boot still auto-plays.
func (w *Watcher) Run(ctx context.Context) error {
	w.check()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	parent := filepath.Dir(w.mountPoint)
	if err := watcher.Add(parent); err != nil {
		w.logger.Warn().Err(err).Str("dir", parent).Msg("mount watch unavailable, falling back to polling only")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.check()
		case _, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.check()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("mount watcher error")
		}
	}
}

// check compares the current effective mount state against the last one
// forwarded and emits an event on every edge.
func (w *Watcher) check() {
	physical := w.probe()
	suppressed := w.gate != nil && w.gate.Suppressed()

	now := physical && !suppressed
	if now == w.effective {
		if physical && suppressed {
			w.logger.Debug().Str("mount", w.mountPoint).Msg("mount observed but suppressed by manual eject")
		}
		return
	}
	w.effective = now

	if now {
		w.logger.Info().Str("mount", w.mountPoint).Msg("medium appeared")
		telemetry.MountTransitionsTotal.WithLabelValues("appeared").Inc()
		w.queue.Push(events.Control{Type: events.ControlMountAppeared})
		return
	}
	w.logger.Info().Str("mount", w.mountPoint).Msg("medium disappeared")
	telemetry.MountTransitionsTotal.WithLabelValues("gone").Inc()
	w.queue.Push(events.Control{Type: events.ControlMountGone})
}
