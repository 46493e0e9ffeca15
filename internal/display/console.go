/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package display

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skaldbox/internal/events"
)

// Console renders short status lines from the notification bus. It stands in
// for the appliance's TFT panel when running without one; either way the bus
// keeps it fire-and-forget, so a slow or missing display never stalls the
// control loop.
type Console struct {
	bus    *events.Bus
	logger zerolog.Logger
}

// NewConsole creates a console display.
func NewConsole(bus *events.Bus, logger zerolog.Logger) *Console {
	return &Console{bus: bus, logger: logger}
}

// Run consumes bus events until context cancellation.
func (c *Console) Run(ctx context.Context) error {
	nowPlaying := c.bus.Subscribe(events.EventNowPlaying)
	mediaState := c.bus.Subscribe(events.EventMediaState)
	volume := c.bus.Subscribe(events.EventVolume)
	faults := c.bus.Subscribe(events.EventFault)
	defer func() {
		c.bus.Unsubscribe(events.EventNowPlaying, nowPlaying)
		c.bus.Unsubscribe(events.EventMediaState, mediaState)
		c.bus.Unsubscribe(events.EventVolume, volume)
		c.bus.Unsubscribe(events.EventFault, faults)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload := <-nowPlaying:
			c.show(renderNowPlaying(payload))
		case payload := <-mediaState:
			c.show(str(payload, "message"))
		case payload := <-volume:
			c.show(fmt.Sprintf("Volume: %v%%", payload["volume"]))
		case payload := <-faults:
			c.show(str(payload, "message"))
		}
	}
}

func (c *Console) show(line string) {
	if line == "" {
		return
	}
	c.logger.Info().Str("display", line).Msg("status")
}

func renderNowPlaying(payload events.Payload) string {
	title := str(payload, "title")
	if title == "" {
		return ""
	}
	switch str(payload, "state") {
	case "paused":
		return fmt.Sprintf("Paused: %s", title)
	case "stopped":
		return fmt.Sprintf("Stopped: %s", title)
	default:
		return fmt.Sprintf("Playing: %s (%v/%v)", title, payload["track"], payload["total"])
	}
}

func str(payload events.Payload, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
