package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.MediaRoot != "/mnt/usbdrive" {
		t.Fatalf("unexpected media root: %q", cfg.MediaRoot)
	}
	if cfg.DecoderBin != "mpg123" {
		t.Fatalf("unexpected decoder: %q", cfg.DecoderBin)
	}
	if cfg.InitialVolume != 80 {
		t.Fatalf("unexpected initial volume: %d", cfg.InitialVolume)
	}
	if len(cfg.Extensions) != 1 || cfg.Extensions[0] != ".mp3" {
		t.Fatalf("unexpected extensions: %v", cfg.Extensions)
	}
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("SKALD_MEDIA_ROOT", "/media/stick")
	t.Setenv("SKALD_EXTENSIONS", ".mp3, .OGG,.flac")
	t.Setenv("SKALD_INITIAL_VOLUME", "55")
	t.Setenv("SKALD_PIN_NEXT", "23")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.MediaRoot != "/media/stick" {
		t.Fatalf("unexpected media root: %q", cfg.MediaRoot)
	}
	if len(cfg.Extensions) != 3 || cfg.Extensions[1] != ".ogg" {
		t.Fatalf("unexpected extensions: %v", cfg.Extensions)
	}
	if cfg.InitialVolume != 55 {
		t.Fatalf("unexpected volume: %d", cfg.InitialVolume)
	}
	if cfg.NextPin != 23 {
		t.Fatalf("unexpected next pin: %d", cfg.NextPin)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SKALD_INITIAL_VOLUME", "140")
	if _, err := Load(); err == nil {
		t.Fatal("expected out-of-range volume to fail validation")
	}
}

func TestLoadRejectsDotlessExtension(t *testing.T) {
	t.Setenv("SKALD_EXTENSIONS", "mp3")
	if _, err := Load(); err == nil {
		t.Fatal("expected dotless extension to fail validation")
	}
}
