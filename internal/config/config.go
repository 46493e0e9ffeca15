/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Input mode selection.
type InputMode string

const (
	ModeAuto        InputMode = "auto"
	ModeInteractive InputMode = "interactive"
	ModePanel       InputMode = "panel"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string

	// Media
	MediaRoot      string
	Extensions     []string
	MountPollEvery time.Duration

	// Decoder / mixer
	DecoderBin   string
	DecoderArgs  []string
	MixerBin     string
	MixerControl string

	// Playback
	InitialVolume  int
	VolumeStep     int
	EncoderVolStep int
	EventQueueSize int
	StateDBPath    string

	// Control surface (loopback API, also serves /metrics)
	HTTPBind string
	HTTPPort int

	// USB power control (best effort)
	PowerControlBin string
	USBHubLocation  string
	USBHubPort      int

	// Physical panel (GPIO character device)
	GPIOChip       string
	PlayPausePin   int
	NextPin        int
	PrevPin        int
	EncoderAPin    int
	EncoderBPin    int
	EncoderSWPin   int
	DebouncePeriod time.Duration
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:    getEnv("SKALD_ENV", "development"),
		MediaRoot:      getEnv("SKALD_MEDIA_ROOT", "/mnt/usbdrive"),
		Extensions:     splitList(getEnv("SKALD_EXTENSIONS", ".mp3")),
		MountPollEvery: time.Duration(getEnvInt("SKALD_MOUNT_POLL_MS", 2000)) * time.Millisecond,

		DecoderBin:   getEnv("SKALD_DECODER_BIN", "mpg123"),
		DecoderArgs:  strings.Fields(getEnv("SKALD_DECODER_ARGS", "-q")),
		MixerBin:     getEnv("SKALD_MIXER_BIN", "amixer"),
		MixerControl: getEnv("SKALD_MIXER_CONTROL", "PCM"),

		InitialVolume:  getEnvInt("SKALD_INITIAL_VOLUME", 80),
		VolumeStep:     getEnvInt("SKALD_VOLUME_STEP", 5),
		EncoderVolStep: getEnvInt("SKALD_ENCODER_VOLUME_STEP", 2),
		EventQueueSize: getEnvInt("SKALD_EVENT_QUEUE_SIZE", 32),
		StateDBPath:    getEnv("SKALD_STATE_DB", ""),

		HTTPBind: getEnv("SKALD_HTTP_BIND", "127.0.0.1"),
		HTTPPort: getEnvInt("SKALD_HTTP_PORT", 8337),

		PowerControlBin: getEnv("SKALD_POWER_CONTROL_BIN", "uhubctl"),
		USBHubLocation:  getEnv("SKALD_USB_HUB_LOCATION", "1-1"),
		USBHubPort:      getEnvInt("SKALD_USB_HUB_PORT", 2),

		GPIOChip:       getEnv("SKALD_GPIO_CHIP", "gpiochip0"),
		PlayPausePin:   getEnvInt("SKALD_PIN_PLAY_PAUSE", 17),
		NextPin:        getEnvInt("SKALD_PIN_NEXT", 27),
		PrevPin:        getEnvInt("SKALD_PIN_PREV", 22),
		EncoderAPin:    getEnvInt("SKALD_PIN_ENCODER_A", 5),
		EncoderBPin:    getEnvInt("SKALD_PIN_ENCODER_B", 6),
		EncoderSWPin:   getEnvInt("SKALD_PIN_ENCODER_SW", 13),
		DebouncePeriod: time.Duration(getEnvInt("SKALD_DEBOUNCE_MS", 200)) * time.Millisecond,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MediaRoot == "" {
		return fmt.Errorf("SKALD_MEDIA_ROOT must not be empty")
	}
	if c.InitialVolume < 0 || c.InitialVolume > 100 {
		return fmt.Errorf("SKALD_INITIAL_VOLUME out of range [0,100]: %d", c.InitialVolume)
	}
	if c.VolumeStep <= 0 || c.EncoderVolStep <= 0 {
		return fmt.Errorf("volume steps must be positive")
	}
	if c.EventQueueSize <= 0 {
		return fmt.Errorf("SKALD_EVENT_QUEUE_SIZE must be positive")
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("SKALD_EXTENSIONS must name at least one extension")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
