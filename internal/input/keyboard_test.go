package input

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skaldbox/internal/events"
)

func TestKeyboardTranslatesCommands(t *testing.T) {
	queue := events.NewQueue(16, zerolog.Nop())
	in := strings.NewReader("n\np\n+\n-\ne\n\njunk\nq\n")

	k := NewKeyboard(in, 5, queue, zerolog.Nop())
	if err := k.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []events.Control{
		{Type: events.ControlNext},
		{Type: events.ControlPrevious},
		{Type: events.ControlVolumeDelta, Delta: 5},
		{Type: events.ControlVolumeDelta, Delta: -5},
		{Type: events.ControlEncoderPress},
		{Type: events.ControlPlayPause},
	}
	for i, expected := range want {
		got := <-queue.C()
		if got != expected {
			t.Fatalf("event %d: got %+v, want %+v", i, got, expected)
		}
	}

	select {
	case extra := <-queue.C():
		t.Fatalf("unexpected extra event %+v", extra)
	default:
	}
}

func TestKeyboardStopsOnEOF(t *testing.T) {
	queue := events.NewQueue(4, zerolog.Nop())
	k := NewKeyboard(strings.NewReader("n\n"), 5, queue, zerolog.Nop())
	if err := k.Run(context.Background()); err != nil {
		t.Fatalf("expected clean EOF, got %v", err)
	}
}
