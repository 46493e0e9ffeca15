/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package decoder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// ErrAlreadyRunning is returned when Start is called while a previous decode
// is still alive. Callers stop the previous decode first; the handle refuses
// to hold two processes rather than leaking one.
var ErrAlreadyRunning = errors.New("decoder already running")

// ErrNotRunning is returned by Resume when there is no live process to signal.
var ErrNotRunning = errors.New("decoder not running")

// SpawnError wraps a failure to launch the decoder binary for a track.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn decoder for %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Process owns at most one live decoder child at a time. Each successful
// Start bumps a generation counter; the generation travels with the exit
// notification so a consumer can tell a stale exit from the current one.
type Process struct {
	bin    string
	args   []string
	logger zerolog.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	done      chan struct{}
	exitErr   error
	gen       uint64
	suspended bool
}

// New constructs a decoder handle. args are passed before the track path on
// every invocation (e.g. "-q" for mpg123).
func New(bin string, args []string, logger zerolog.Logger) *Process {
	return &Process{bin: bin, args: args, logger: logger}
}

// Start launches a decode of path. It fails with ErrAlreadyRunning if the
// previous process has not exited, and with SpawnError if the child cannot be
// launched. A child that spawns but dies immediately is still observed
// through Done, never mistaken for silence.
func (p *Process) Start(ctx context.Context, path string) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil && p.done != nil {
		select {
		case <-p.done:
			// Previous process has exited, ok to start new one
		default:
			return 0, ErrAlreadyRunning
		}
	}

	argv := make([]string, 0, len(p.args)+1)
	argv = append(argv, p.args...)
	argv = append(argv, path)
	cmd := exec.CommandContext(ctx, p.bin, argv...)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return 0, &SpawnError{Path: path, Err: err}
	}

	p.cmd = cmd
	p.done = make(chan struct{})
	p.exitErr = nil
	p.suspended = false
	p.gen++
	gen := p.gen

	go func(done chan struct{}, c *exec.Cmd) {
		err := c.Wait()
		p.mu.Lock()
		p.exitErr = err
		p.mu.Unlock()
		close(done)
		if err != nil {
			p.logger.Debug().Err(err).Str("track", path).Msg("decoder exited")
		} else {
			p.logger.Debug().Str("track", path).Msg("decoder finished")
		}
	}(p.done, cmd)

	return gen, nil
}

// Stop terminates the current decode and reaps it. Calling Stop with no live
// process is a no-op.
func (p *Process) Stop() error {
	p.mu.Lock()
	cmd := p.cmd
	done := p.done
	suspended := p.suspended
	p.suspended = false
	p.mu.Unlock()

	if cmd == nil || done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	default:
	}

	if cmd.Process != nil {
		// A suspended child cannot handle SIGTERM until it runs again.
		if suspended {
			_ = cmd.Process.Signal(syscall.SIGCONT)
		}
		_ = cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-time.After(2 * time.Second):
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
	case <-done:
	}

	return nil
}

// Suspend pauses the current decode in place.
func (p *Process) Suspend() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.runningLocked() {
		return ErrNotRunning
	}
	if err := p.cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		return err
	}
	p.suspended = true
	return nil
}

// Resume continues a suspended decode. ErrNotRunning means the child died
// while suspended and the caller should restart the track instead.
func (p *Process) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.runningLocked() {
		return ErrNotRunning
	}
	if err := p.cmd.Process.Signal(syscall.SIGCONT); err != nil {
		return err
	}
	p.suspended = false
	return nil
}

// Running reports whether a decode is currently alive. Non-blocking.
func (p *Process) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runningLocked()
}

func (p *Process) runningLocked() bool {
	if p.cmd == nil || p.done == nil || p.cmd.Process == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Done returns the exit channel of the current decode. It is closed when the
// child has been reaped; nil if no decode was ever started.
func (p *Process) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Generation returns the generation of the most recent Start.
func (p *Process) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// ExitError reports how the last decode ended. Only meaningful after Done is
// closed; nil means a clean end of track.
func (p *Process) ExitError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}
