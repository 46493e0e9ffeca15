/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// AlsaMixer applies volume through amixer. Failures are reported, not fatal:
// the appliance keeps playing at the previous level.
type AlsaMixer struct {
	bin     string
	control string
	logger  zerolog.Logger
}

// NewAlsaMixer creates a mixer for the given amixer binary and control name.
func NewAlsaMixer(bin, control string, logger zerolog.Logger) *AlsaMixer {
	return &AlsaMixer{bin: bin, control: control, logger: logger}
}

// Set applies the volume as a percentage.
func (m *AlsaMixer) Set(ctx context.Context, percent int) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.bin, "set", m.control, fmt.Sprintf("%d%%", percent))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("amixer set %s %d%%: %w", m.control, percent, err)
	}
	m.logger.Debug().Int("volume", percent).Msg("mixer volume applied")
	return nil
}
