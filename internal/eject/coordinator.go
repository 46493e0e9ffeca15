/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eject

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/friendsincode/skaldbox/internal/config"
	"github.com/friendsincode/skaldbox/internal/events"
)

// ErrUnmountBusy means the medium could not be unmounted because something
// still holds it open. The eject is aborted and no state changes; the caller
// may retry once the busy handles are gone.
var ErrUnmountBusy = errors.New("unmount: device busy")

// ErrNotMounted means eject was requested with no medium mounted.
var ErrNotMounted = errors.New("no medium mounted")

// Coordinator implements the safe-eject and re-enable protocol for the
// removable medium. It never mounts anything itself: re-enable only lifts the
// suppression latch and restores bus power, and the next mount-appeared event
// from the watcher does the rest.
type Coordinator struct {
	cfg    *config.Config
	latch  *Latch
	bus    *events.Bus
	logger zerolog.Logger

	// Power control probing happens once; absence of the utility is a
	// reduced capability, not an error.
	powerProbe sync.Once
	powerPath  string
	powerCut   bool

	// OS primitives, swappable for tests.
	syncFS  func()
	unmount func(string) error
	runCmd  func(ctx context.Context, name string, args ...string) error
}

// NewCoordinator creates an eject coordinator.
func NewCoordinator(cfg *config.Config, latch *Latch, bus *events.Bus, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		latch:  latch,
		bus:    bus,
		logger: logger,
		syncFS: unix.Sync,
		unmount: func(target string) error {
			return unix.Unmount(target, 0)
		},
		runCmd: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// Eject flushes and unmounts the medium, optionally cuts upstream USB power,
// and engages the suppression latch. The caller must have stopped any decode
// first and only call this while a medium is mounted. On ErrUnmountBusy
// nothing has changed and the medium is still effectively mounted.
func (c *Coordinator) Eject(ctx context.Context) error {
	c.syncFS()

	if err := c.unmount(c.cfg.MediaRoot); err != nil {
		switch {
		case errors.Is(err, unix.EBUSY):
			c.logger.Warn().Str("mount", c.cfg.MediaRoot).Msg("unmount failed: device busy")
			return ErrUnmountBusy
		case errors.Is(err, unix.EINVAL), errors.Is(err, unix.ENOENT):
			return ErrNotMounted
		default:
			return err
		}
	}
	c.logger.Info().Str("mount", c.cfg.MediaRoot).Msg("medium unmounted")

	if path := c.powerControl(); path != "" {
		if err := c.setHubPower(ctx, path, false); err != nil {
			c.logger.Warn().Err(err).Msg("usb power off failed, medium is still safe to remove")
		} else {
			c.powerCut = true
		}
	}

	c.latch.Engage()

	c.bus.Publish(events.EventMediaState, events.Payload{
		"state":   "ejected",
		"message": "USB EJECTED - Safe to Remove",
	})
	return nil
}

// Reenable restores upstream USB power if it had been cut and lifts the
// suppression latch. It deliberately does not mount or scan: the medium is
// Absent until the OS reports a fresh mount.
func (c *Coordinator) Reenable(ctx context.Context) error {
	if c.powerCut {
		if path := c.powerControl(); path != "" {
			if err := c.setHubPower(ctx, path, true); err != nil {
				c.logger.Warn().Err(err).Msg("usb power on failed")
			}
		}
		c.powerCut = false
	}

	c.latch.Release()

	c.bus.Publish(events.EventMediaState, events.Payload{
		"state":   "waiting",
		"message": "Waiting for USB...",
	})
	return nil
}

// powerControl resolves the power-control utility once and caches the result.
func (c *Coordinator) powerControl() string {
	c.powerProbe.Do(func() {
		path, err := exec.LookPath(c.cfg.PowerControlBin)
		if err != nil {
			c.logger.Info().Str("bin", c.cfg.PowerControlBin).Msg("usb power control not available")
			return
		}
		c.powerPath = path
	})
	return c.powerPath
}

func (c *Coordinator) setHubPower(ctx context.Context, path string, on bool) error {
	action := "off"
	if on {
		action = "on"
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.runCmd(ctx, path,
		"-l", c.cfg.USBHubLocation,
		"-p", strconv.Itoa(c.cfg.USBHubPort),
		"-a", action,
	)
}
