package state

import (
	"path/filepath"
	"testing"

	"github.com/friendsincode/skaldbox/internal/db"
)

func TestSessionRoundTrip(t *testing.T) {
	database, err := db.Connect(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = db.Close(database) }()

	store := NewStore(database)

	session, err := store.Load()
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if session.Volume != 0 || session.LastTrackPath != "" {
		t.Fatalf("expected zero session, got %+v", session)
	}

	if err := store.Save(65, "/mnt/usbdrive/03-song.mp3"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(70, "/mnt/usbdrive/04-song.mp3"); err != nil {
		t.Fatalf("second save: %v", err)
	}

	session, err = store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if session.Volume != 70 {
		t.Fatalf("expected volume 70, got %d", session.Volume)
	}
	if session.LastTrackPath != "/mnt/usbdrive/04-song.mp3" {
		t.Fatalf("unexpected last track: %q", session.LastTrackPath)
	}
}
