/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skaldbox/internal/config"
	"github.com/friendsincode/skaldbox/internal/decoder"
	"github.com/friendsincode/skaldbox/internal/eject"
	"github.com/friendsincode/skaldbox/internal/events"
	"github.com/friendsincode/skaldbox/internal/models"
	"github.com/friendsincode/skaldbox/internal/telemetry"
)

// Decoder is the child-process handle the controller drives.
type Decoder interface {
	Start(ctx context.Context, path string) (uint64, error)
	Stop() error
	Suspend() error
	Resume() error
	Running() bool
	Done() <-chan struct{}
	Generation() uint64
	ExitError() error
}

// Scanner enumerates the medium.
type Scanner interface {
	Scan() (*models.Playlist, error)
}

// Ejector runs the safe-eject / re-enable protocol.
type Ejector interface {
	Eject(ctx context.Context) error
	Reenable(ctx context.Context) error
}

// Mixer applies the output volume.
type Mixer interface {
	Set(ctx context.Context, percent int) error
}

// SessionStore persists the slice of state that survives restarts. May be nil.
type SessionStore interface {
	Load() (models.Session, error)
	Save(volume int, lastTrackPath string) error
}

// Status is an immutable snapshot of the controller's state, published after
// every handled event so other goroutines (status API, display) can read
// without touching the live state.
type Status struct {
	State        models.PlayerState
	Availability models.MediaAvailability
	Volume       int
	Index        int
	TrackCount   int
	Current      string
	Generation   string
}

// Controller owns all mutable playback state. Every field below the queue is
// touched only from the Run loop; producers reach the controller exclusively
// through the queue, which is what makes the state machine lock-free.
type Controller struct {
	cfg    *config.Config
	logger zerolog.Logger
	queue  *events.Queue
	bus    *events.Bus

	dec     Decoder
	scanner Scanner
	ejector Ejector
	mixer   Mixer
	store   SessionStore

	playlist     *models.Playlist
	index        int
	state        models.PlayerState
	availability models.MediaAvailability
	volume       int

	snapshot     atomic.Pointer[Status]
	playlistSnap atomic.Pointer[models.Playlist]
}

// New creates a controller. store may be nil when persistence is disabled.
func New(cfg *config.Config, queue *events.Queue, bus *events.Bus, dec Decoder, scanner Scanner, ejector Ejector, mixer Mixer, store SessionStore, logger zerolog.Logger) *Controller {
	c := &Controller{
		cfg:          cfg,
		logger:       logger,
		queue:        queue,
		bus:          bus,
		dec:          dec,
		scanner:      scanner,
		ejector:      ejector,
		mixer:        mixer,
		store:        store,
		state:        models.StateStopped,
		availability: models.MediaAbsent,
		volume:       cfg.InitialVolume,
	}
	c.publishSnapshot()
	return c
}

// Queue returns the control queue, for wiring additional producers.
func (c *Controller) Queue() *events.Queue {
	return c.queue
}

// Status returns the latest published snapshot.
func (c *Controller) Status() Status {
	return *c.snapshot.Load()
}

// Playlist returns the current playlist snapshot (may be nil).
func (c *Controller) Playlist() *models.Playlist {
	return c.playlistSnap.Load()
}

// Run drains the event queue until the context is cancelled. This is the
// single consumer: it alone mutates playback state.
func (c *Controller) Run(ctx context.Context) error {
	c.restoreSession()
	c.applyVolume(ctx)

	c.logger.Info().Msg("playback controller started")
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case ev := <-c.queue.C():
			c.handle(ctx, ev)
			c.publishSnapshot()
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev events.Control) {
	switch ev.Type {
	case events.ControlMountAppeared:
		c.onMountAppeared(ctx)
	case events.ControlMountGone:
		c.onMountGone()
	case events.ControlPlayPause:
		c.onPlayPause(ctx)
	case events.ControlNext:
		c.onSkip(ctx, +1)
	case events.ControlPrevious:
		c.onSkip(ctx, -1)
	case events.ControlVolumeDelta:
		c.onVolumeDelta(ctx, ev.Delta)
	case events.ControlEncoderPress:
		c.onEncoderPress(ctx)
	case events.ControlDecoderExit:
		c.onDecoderExit(ctx, ev.Generation)
	default:
		c.logger.Warn().Str("type", string(ev.Type)).Msg("unknown control event")
	}
}

func (c *Controller) onMountAppeared(ctx context.Context) {
	if c.availability == models.MediaManuallyEjected {
		return
	}

	playlist, err := c.scanner.Scan()
	if err != nil {
		c.logger.Warn().Err(err).Msg("mount appeared but scan failed")
		return
	}

	c.stopDecode()
	c.availability = models.MediaMounted
	c.playlist = playlist
	c.index = 0

	if playlist.Len() == 0 {
		c.state = models.StateStopped
		c.logger.Info().Msg("medium mounted with no playable tracks")
		c.bus.Publish(events.EventMediaState, events.Payload{
			"state":   "mounted",
			"message": "No tracks found on USB",
		})
		return
	}

	c.logger.Info().Int("tracks", playlist.Len()).Str("generation", playlist.Generation).Msg("playlist loaded")
	c.startTrack(ctx, c.resumeIndex())
}

func (c *Controller) onMountGone() {
	if c.availability == models.MediaManuallyEjected {
		// Physical removal while ejected changes nothing: the latch rules.
		return
	}
	c.stopDecode()
	c.playlist = nil
	c.index = 0
	c.state = models.StateStopped
	c.availability = models.MediaAbsent
	c.bus.Publish(events.EventMediaState, events.Payload{
		"state":   "absent",
		"message": "Waiting for USB...",
	})
}

func (c *Controller) onPlayPause(ctx context.Context) {
	if c.availability == models.MediaManuallyEjected {
		return
	}
	switch c.state {
	case models.StatePlaying:
		if err := c.dec.Suspend(); err != nil {
			c.logger.Warn().Err(err).Msg("suspend failed, stopping instead")
			c.stopDecode()
			c.state = models.StateStopped
			return
		}
		c.state = models.StatePaused
		c.publishNowPlaying()
	case models.StatePaused:
		if err := c.dec.Resume(); err != nil {
			if errors.Is(err, decoder.ErrNotRunning) {
				// Decoder died while suspended; restart the current track.
				c.startTrack(ctx, c.index)
				return
			}
			c.logger.Warn().Err(err).Msg("resume failed, restarting track")
			c.startTrack(ctx, c.index)
			return
		}
		c.state = models.StatePlaying
		c.publishNowPlaying()
	case models.StateStopped:
		if c.playlist.Len() > 0 {
			c.startTrack(ctx, c.index)
		}
	}
}

func (c *Controller) onSkip(ctx context.Context, direction int) {
	if c.availability == models.MediaManuallyEjected || c.playlist.Len() == 0 {
		return
	}
	c.stopDecode()
	c.startTrack(ctx, c.playlist.Wrap(c.index+direction))
}

func (c *Controller) onVolumeDelta(ctx context.Context, delta int) {
	c.volume = clampVolume(c.volume + delta)
	c.applyVolume(ctx)
	c.saveSession()
	c.bus.Publish(events.EventVolume, events.Payload{"volume": c.volume})
}

func (c *Controller) onEncoderPress(ctx context.Context) {
	switch c.availability {
	case models.MediaMounted:
		c.stopDecode()
		c.state = models.StateStopped
		if err := c.ejector.Eject(ctx); err != nil {
			if errors.Is(err, eject.ErrUnmountBusy) {
				c.logger.Warn().Msg("eject aborted: device busy, retry after closing handles")
				c.bus.Publish(events.EventFault, events.Payload{
					"message": "Eject failed: device busy",
				})
				return
			}
			c.logger.Error().Err(err).Msg("eject failed")
			c.bus.Publish(events.EventFault, events.Payload{"message": "Eject failed"})
			return
		}
		c.playlist = nil
		c.index = 0
		c.availability = models.MediaManuallyEjected
	case models.MediaManuallyEjected:
		if err := c.ejector.Reenable(ctx); err != nil {
			c.logger.Error().Err(err).Msg("re-enable failed")
			return
		}
		// Re-enable never synthesizes a mount: the medium is Absent until
		// the watcher reports a fresh mount from the OS.
		c.availability = models.MediaAbsent
		c.state = models.StateStopped
	case models.MediaAbsent:
		c.logger.Debug().Msg("eject requested with no medium present")
	}
}

func (c *Controller) onDecoderExit(ctx context.Context, generation uint64) {
	// Stale exits (superseded by a later start, or arriving after the user
	// already paused/stopped/ejected) are ignored. This makes a Next racing
	// a natural end-of-track safe in either arrival order.
	if c.state != models.StatePlaying || generation != c.dec.Generation() {
		return
	}
	if c.playlist.Len() == 0 {
		c.state = models.StateStopped
		return
	}
	if err := c.dec.ExitError(); err != nil {
		c.logger.Debug().Err(err).Msg("decoder ended with error, advancing anyway")
	}
	c.startTrack(ctx, c.playlist.Wrap(c.index+1))
}

// startTrack stops any live decode and starts the track at index i. A track
// whose decoder cannot spawn is skipped; if every track in the ring fails the
// controller returns to Stopped instead of spinning.
func (c *Controller) startTrack(ctx context.Context, i int) {
	c.stopDecode()

	if c.playlist.Len() == 0 {
		c.state = models.StateStopped
		return
	}

	for attempts := 0; attempts < c.playlist.Len(); attempts++ {
		track := c.playlist.At(i)
		gen, err := c.dec.Start(ctx, track.Path)
		if err != nil {
			telemetry.DecoderSpawnFailuresTotal.Inc()
			c.logger.Warn().Err(err).Str("track", track.Path).Msg("decoder spawn failed, skipping track")
			i = c.playlist.Wrap(i + 1)
			continue
		}

		c.index = i
		c.state = models.StatePlaying
		telemetry.TracksPlayedTotal.Inc()
		c.watchExit(ctx, gen)
		c.saveSession()
		c.publishNowPlaying()
		return
	}

	c.state = models.StateStopped
	c.logger.Error().Msg("no track on the medium could be decoded")
	c.bus.Publish(events.EventFault, events.Payload{"message": "Playback failed for all tracks"})
}

// watchExit forwards the decoder's exit into the queue, stamped with the
// generation of the decode it belongs to.
func (c *Controller) watchExit(ctx context.Context, generation uint64) {
	done := c.dec.Done()
	go func() {
		select {
		case <-done:
			c.queue.Push(events.Control{Type: events.ControlDecoderExit, Generation: generation})
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) stopDecode() {
	if err := c.dec.Stop(); err != nil {
		c.logger.Warn().Err(err).Msg("decoder stop failed")
	}
}

func (c *Controller) applyVolume(ctx context.Context) {
	if c.mixer == nil {
		return
	}
	if err := c.mixer.Set(ctx, c.volume); err != nil {
		c.logger.Warn().Err(err).Int("volume", c.volume).Msg("mixer volume apply failed")
	}
}

// resumeIndex picks the starting track for a fresh playlist: the persisted
// last track if it is still on the medium, otherwise track zero.
func (c *Controller) resumeIndex() int {
	if c.store == nil {
		return 0
	}
	session, err := c.store.Load()
	if err != nil || session.LastTrackPath == "" {
		return 0
	}
	for _, track := range c.playlist.Tracks {
		if track.Path == session.LastTrackPath {
			return track.Ordinal
		}
	}
	return 0
}

func (c *Controller) restoreSession() {
	if c.store == nil {
		return
	}
	session, err := c.store.Load()
	if err != nil {
		c.logger.Warn().Err(err).Msg("session restore failed, using defaults")
		return
	}
	if session.Volume > 0 {
		c.volume = clampVolume(session.Volume)
	}
}

func (c *Controller) saveSession() {
	if c.store == nil {
		return
	}
	var last string
	if c.playlist.Len() > 0 {
		last = c.playlist.At(c.index).Path
	}
	if err := c.store.Save(c.volume, last); err != nil {
		c.logger.Warn().Err(err).Msg("session save failed")
	}
}

func (c *Controller) shutdown() {
	c.stopDecode()
	c.saveSession()
	c.logger.Info().Msg("playback controller stopped")
}

func (c *Controller) publishNowPlaying() {
	payload := events.Payload{
		"state":  string(c.state),
		"volume": c.volume,
	}
	if c.playlist.Len() > 0 {
		track := c.playlist.At(c.index)
		payload["title"] = track.Title
		payload["track"] = c.index + 1
		payload["total"] = c.playlist.Len()
	}
	c.bus.Publish(events.EventNowPlaying, payload)
}

func (c *Controller) publishSnapshot() {
	status := Status{
		State:        c.state,
		Availability: c.availability,
		Volume:       c.volume,
		Index:        c.index,
		TrackCount:   c.playlist.Len(),
	}
	if c.playlist.Len() > 0 {
		status.Current = c.playlist.At(c.index).Title
		status.Generation = c.playlist.Generation
	}
	if c.availability == models.MediaManuallyEjected {
		telemetry.SetPlayerState("ejected")
	} else {
		telemetry.SetPlayerState(string(c.state))
	}
	c.snapshot.Store(&status)
	c.playlistSnap.Store(c.playlist)
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
