/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/skaldbox/internal/config"
	"github.com/friendsincode/skaldbox/internal/db"
	"github.com/friendsincode/skaldbox/internal/decoder"
	"github.com/friendsincode/skaldbox/internal/display"
	"github.com/friendsincode/skaldbox/internal/eject"
	"github.com/friendsincode/skaldbox/internal/events"
	"github.com/friendsincode/skaldbox/internal/input"
	"github.com/friendsincode/skaldbox/internal/logging"
	"github.com/friendsincode/skaldbox/internal/media"
	"github.com/friendsincode/skaldbox/internal/player"
	"github.com/friendsincode/skaldbox/internal/server"
	"github.com/friendsincode/skaldbox/internal/state"
	"github.com/friendsincode/skaldbox/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config

	modeFlag string
)

var rootCmd = &cobra.Command{
	Use:     "skaldbox",
	Short:   "Skald Box - headless USB music appliance controller",
	Long:    "Skald Box drives a button/encoder-operated music appliance: it watches a removable USB medium, runs an external decoder per track, and owns the playback state machine.",
	Version: version.Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the playback controller",
	Long:  "Start the media watcher, input source, control API, and playback control loop.",
	RunE:  runPlayer,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Enumerate the mounted medium and print the playlist",
	RunE:  runScan,
}

func init() {
	runCmd.Flags().StringVar(&modeFlag, "mode", string(config.ModeAuto),
		"input mode: auto (no local input), interactive (keyboard), panel (GPIO buttons and encoder)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = logging.Setup(cfg.Environment)
	return nil
}

func runPlayer(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	mode := config.InputMode(modeFlag)
	switch mode {
	case config.ModeAuto, config.ModeInteractive, config.ModePanel:
	default:
		return fmt.Errorf("unknown mode %q", modeFlag)
	}

	logger.Info().Str("mode", string(mode)).Str("media_root", cfg.MediaRoot).Msg("Skald Box starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	queue := events.NewQueue(cfg.EventQueueSize, logger)
	latch := &eject.Latch{}

	var store player.SessionStore
	if cfg.StateDBPath != "" {
		database, err := db.Connect(cfg.StateDBPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.StateDBPath).Msg("session store unavailable, continuing without persistence")
		} else {
			defer func() {
				if err := db.Close(database); err != nil {
					logger.Warn().Err(err).Msg("session store close failed")
				}
			}()
			store = state.NewStore(database)
		}
	}

	dec := decoder.New(cfg.DecoderBin, cfg.DecoderArgs, logger)
	scanner := media.NewScanner(cfg.MediaRoot, cfg.Extensions, logger)
	coordinator := eject.NewCoordinator(cfg, latch, bus, logger)
	mixer := player.NewAlsaMixer(cfg.MixerBin, cfg.MixerControl, logger)

	ctrl := player.New(cfg, queue, bus, dec, scanner, coordinator, mixer, store, logger)
	watcher := media.NewWatcher(cfg.MediaRoot, cfg.MountPollEvery, latch, queue, logger)
	console := display.NewConsole(bus, logger)

	go func() {
		if err := console.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("display stopped")
		}
	}()

	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("media watcher stopped")
			stop()
		}
	}()

	switch mode {
	case config.ModeInteractive:
		fmt.Println(input.Help())
		keyboard := input.NewKeyboard(os.Stdin, cfg.VolumeStep, queue, logger)
		go func() {
			if err := keyboard.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn().Err(err).Msg("keyboard input stopped")
			}
			// 'q' or stdin EOF ends the session.
			stop()
		}()
	case config.ModePanel:
		panel := input.NewPanel(cfg, queue, logger)
		if err := panel.Open(); err != nil {
			return fmt.Errorf("open panel: %w", err)
		}
		defer panel.Close()
	}

	api := server.New(cfg, ctrl, queue, logger)
	httpServer := api.HTTPServer()
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("control API listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("control API error")
		}
	}()
	defer func() {
		if err := httpServer.Close(); err != nil {
			logger.Warn().Err(err).Msg("control API close failed")
		}
	}()

	err := ctrl.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info().Msg("Skald Box stopped")
	return err
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	if !media.Mounted(cfg.MediaRoot) {
		return fmt.Errorf("no medium mounted at %s", cfg.MediaRoot)
	}

	scanner := media.NewScanner(cfg.MediaRoot, cfg.Extensions, logger)
	playlist, err := scanner.Scan()
	if err != nil {
		return fmt.Errorf("scan %s: %w", cfg.MediaRoot, err)
	}

	fmt.Printf("Found %d tracks on %s\n", playlist.Len(), cfg.MediaRoot)
	for _, track := range playlist.Tracks {
		fmt.Printf("  %3d. %s\n", track.Ordinal+1, track.Title)
	}
	return nil
}
