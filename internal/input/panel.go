/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package input

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/warthog618/go-gpiocdev"

	"github.com/friendsincode/skaldbox/internal/config"
	"github.com/friendsincode/skaldbox/internal/events"
	"github.com/friendsincode/skaldbox/internal/telemetry"
)

// Panel is the physical control surface: three push buttons and a rotary
// encoder with a push switch, wired to the Linux GPIO character device.
// Debouncing happens in the kernel via the debounce request option, so every
// edge handler invocation is one semantic event. Handlers run on gpiocdev's
// event goroutines and only push into the bounded queue, never touch state.
type Panel struct {
	cfg    *config.Config
	queue  *events.Queue
	logger zerolog.Logger

	buttons  []*gpiocdev.Line
	encoderA *gpiocdev.Line
	encoderB *gpiocdev.Line
}

// NewPanel creates an unopened panel.
func NewPanel(cfg *config.Config, queue *events.Queue, logger zerolog.Logger) *Panel {
	return &Panel{cfg: cfg, queue: queue, logger: logger}
}

// Open requests all GPIO lines and starts delivering events.
func (p *Panel) Open() error {
	buttons := []struct {
		pin     int
		control events.ControlType
	}{
		{p.cfg.PlayPausePin, events.ControlPlayPause},
		{p.cfg.NextPin, events.ControlNext},
		{p.cfg.PrevPin, events.ControlPrevious},
		{p.cfg.EncoderSWPin, events.ControlEncoderPress},
	}

	for _, b := range buttons {
		control := b.control
		line, err := gpiocdev.RequestLine(p.cfg.GPIOChip, b.pin,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithDebounce(p.cfg.DebouncePeriod),
			gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
				p.push(events.Control{Type: control})
			}),
		)
		if err != nil {
			p.Close()
			return fmt.Errorf("request gpio %d on %s: %w", b.pin, p.cfg.GPIOChip, err)
		}
		p.buttons = append(p.buttons, line)
	}

	// Encoder channel B is sampled on every channel A edge to decode the
	// rotation direction.
	encoderB, err := gpiocdev.RequestLine(p.cfg.GPIOChip, p.cfg.EncoderBPin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
	)
	if err != nil {
		p.Close()
		return fmt.Errorf("request encoder B gpio %d: %w", p.cfg.EncoderBPin, err)
	}
	p.encoderB = encoderB

	encoderA, err := gpiocdev.RequestLine(p.cfg.GPIOChip, p.cfg.EncoderAPin,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(p.onEncoderEdge),
	)
	if err != nil {
		p.Close()
		return fmt.Errorf("request encoder A gpio %d: %w", p.cfg.EncoderAPin, err)
	}
	p.encoderA = encoderA

	p.logger.Info().
		Str("chip", p.cfg.GPIOChip).
		Int("play_pause", p.cfg.PlayPausePin).
		Int("next", p.cfg.NextPin).
		Int("prev", p.cfg.PrevPin).
		Int("encoder_a", p.cfg.EncoderAPin).
		Int("encoder_b", p.cfg.EncoderBPin).
		Int("encoder_sw", p.cfg.EncoderSWPin).
		Msg("physical panel ready")
	return nil
}

func (p *Panel) onEncoderEdge(evt gpiocdev.LineEvent) {
	a := 0
	if evt.Type == gpiocdev.LineEventRisingEdge {
		a = 1
	}
	b, err := p.encoderB.Value()
	if err != nil {
		p.logger.Warn().Err(err).Msg("encoder B read failed")
		return
	}

	delta := p.cfg.EncoderVolStep
	if a == b {
		delta = -delta
	}
	p.push(events.Control{Type: events.ControlVolumeDelta, Delta: delta})
}

func (p *Panel) push(ev events.Control) {
	telemetry.InputEventsTotal.WithLabelValues(string(ev.Type)).Inc()
	p.queue.Push(ev)
}

// Close releases all requested lines. Safe on a partially opened panel.
func (p *Panel) Close() {
	for _, line := range p.buttons {
		_ = line.Close()
	}
	p.buttons = nil
	if p.encoderA != nil {
		_ = p.encoderA.Close()
		p.encoderA = nil
	}
	if p.encoderB != nil {
		_ = p.encoderB.Close()
		p.encoderB = nil
	}
}
