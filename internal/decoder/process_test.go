package decoder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// The tests drive the handle with plain POSIX tools instead of a real
// decoder: the handle only cares about process lifecycle, not audio.

func TestStartMissingBinaryIsSpawnError(t *testing.T) {
	p := New("skaldbox-no-such-decoder", nil, zerolog.Nop())

	_, err := p.Start(context.Background(), "/tmp/track.mp3")
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
	if p.Running() {
		t.Fatal("failed spawn must not leave a running process")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	p := New("sleep", nil, zerolog.Nop())

	if err := p.Stop(); err != nil {
		t.Fatalf("stop before any start must be a no-op: %v", err)
	}

	if _, err := p.Start(context.Background(), "5"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("second stop must be a no-op: %v", err)
	}
	if p.Running() {
		t.Fatal("process still running after stop")
	}
}

func TestStartRefusesWhileRunning(t *testing.T) {
	p := New("sleep", nil, zerolog.Nop())

	if _, err := p.Start(context.Background(), "5"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = p.Stop() }()

	if _, err := p.Start(context.Background(), "5"); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestNaturalExitObservedThroughDone(t *testing.T) {
	p := New("true", nil, zerolog.Nop())

	gen, err := p.Start(context.Background(), "-")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if gen == 0 {
		t.Fatal("generation must be positive")
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("exit not observed")
	}
	if p.Running() {
		t.Fatal("Running must report false after exit")
	}
	if err := p.ExitError(); err != nil {
		t.Fatalf("true exits cleanly, got %v", err)
	}
}

func TestImmediateErrorExitIsVisible(t *testing.T) {
	p := New("false", nil, zerolog.Nop())

	if _, err := p.Start(context.Background(), "-"); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("early exit not observed")
	}
	if p.ExitError() == nil {
		t.Fatal("non-zero exit must be reported through ExitError")
	}
}

func TestGenerationAdvancesPerStart(t *testing.T) {
	p := New("true", nil, zerolog.Nop())

	gen1, err := p.Start(context.Background(), "-")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	<-p.Done()

	gen2, err := p.Start(context.Background(), "-")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	<-p.Done()

	if gen2 != gen1+1 {
		t.Fatalf("generations must increase per start: %d then %d", gen1, gen2)
	}
	if p.Generation() != gen2 {
		t.Fatalf("Generation() = %d, want %d", p.Generation(), gen2)
	}
}

func TestSuspendResume(t *testing.T) {
	p := New("sleep", nil, zerolog.Nop())

	if _, err := p.Start(context.Background(), "5"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = p.Stop() }()

	if err := p.Suspend(); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if err := p.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
}

func TestResumeAfterExitReportsNotRunning(t *testing.T) {
	p := New("true", nil, zerolog.Nop())

	if _, err := p.Start(context.Background(), "-"); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-p.Done()

	if err := p.Resume(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestStopReapsSuspendedProcess(t *testing.T) {
	p := New("sleep", nil, zerolog.Nop())

	if _, err := p.Start(context.Background(), "5"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Suspend(); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("stop of suspended process: %v", err)
	}
	if p.Running() {
		t.Fatal("suspended process not reaped by stop")
	}
}
