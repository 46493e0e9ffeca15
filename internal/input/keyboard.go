/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package input

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skaldbox/internal/events"
	"github.com/friendsincode/skaldbox/internal/telemetry"
)

// Keyboard reads single-letter commands from a line-oriented reader and
// translates them into semantic control events. Used by the interactive mode
// when no physical panel is wired up.
type Keyboard struct {
	queue      *events.Queue
	volumeStep int
	in         io.Reader
	logger     zerolog.Logger
}

// NewKeyboard creates a keyboard source reading from in.
func NewKeyboard(in io.Reader, volumeStep int, queue *events.Queue, logger zerolog.Logger) *Keyboard {
	return &Keyboard{queue: queue, volumeStep: volumeStep, in: in, logger: logger}
}

// Help returns the command summary shown in interactive mode.
func Help() string {
	return strings.Join([]string{
		"Controls:",
		"  <enter>  play / pause",
		"  n        next track",
		"  p        previous track",
		"  +        volume up",
		"  -        volume down",
		"  e        eject / re-enable USB",
		"  q        quit",
	}, "\n")
}

// Run translates lines until EOF, 'q', or context cancellation.
func (k *Keyboard) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(k.in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		var ev events.Control
		switch line {
		case "":
			ev = events.Control{Type: events.ControlPlayPause}
		case "n":
			ev = events.Control{Type: events.ControlNext}
		case "p":
			ev = events.Control{Type: events.ControlPrevious}
		case "+", "=":
			ev = events.Control{Type: events.ControlVolumeDelta, Delta: k.volumeStep}
		case "-":
			ev = events.Control{Type: events.ControlVolumeDelta, Delta: -k.volumeStep}
		case "e":
			ev = events.Control{Type: events.ControlEncoderPress}
		case "q":
			return nil
		default:
			k.logger.Debug().Str("input", line).Msg("unrecognized command")
			continue
		}

		telemetry.InputEventsTotal.WithLabelValues(string(ev.Type)).Inc()
		k.queue.Push(ev)
	}
	return scanner.Err()
}
