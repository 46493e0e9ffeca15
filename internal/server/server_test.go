package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skaldbox/internal/config"
	"github.com/friendsincode/skaldbox/internal/events"
	"github.com/friendsincode/skaldbox/internal/models"
	"github.com/friendsincode/skaldbox/internal/player"
)

type fakeProvider struct {
	status   player.Status
	playlist *models.Playlist
}

func (f *fakeProvider) Status() player.Status      { return f.status }
func (f *fakeProvider) Playlist() *models.Playlist { return f.playlist }

func newTestServer() (*Server, *events.Queue, *fakeProvider) {
	cfg := &config.Config{HTTPBind: "127.0.0.1", HTTPPort: 0, VolumeStep: 5}
	queue := events.NewQueue(8, zerolog.Nop())
	provider := &fakeProvider{
		status: player.Status{
			State:        models.StatePlaying,
			Availability: models.MediaMounted,
			Volume:       80,
			Index:        1,
			TrackCount:   3,
			Current:      "02-track",
		},
		playlist: &models.Playlist{
			Generation: "gen-1",
			Tracks: []models.Track{
				{Path: "/mnt/usbdrive/01.mp3", Ordinal: 0, Title: "01"},
				{Path: "/mnt/usbdrive/02.mp3", Ordinal: 1, Title: "02"},
			},
		},
	}
	return New(cfg, provider, queue, zerolog.Nop()), queue, provider
}

func TestStatusEndpoint(t *testing.T) {
	s, _, _ := newTestServer()

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["state"] != "playing" || body["current"] != "02-track" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestPlaylistEndpointHandlesNilPlaylist(t *testing.T) {
	s, _, provider := newTestServer()
	provider.playlist = nil

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/playlist", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestControlActionsQueueEvents(t *testing.T) {
	s, queue, _ := newTestServer()

	cases := []struct {
		action string
		want   events.Control
	}{
		{"play-pause", events.Control{Type: events.ControlPlayPause}},
		{"next", events.Control{Type: events.ControlNext}},
		{"previous", events.Control{Type: events.ControlPrevious}},
		{"eject", events.Control{Type: events.ControlEncoderPress}},
		{"volume-up", events.Control{Type: events.ControlVolumeDelta, Delta: 5}},
		{"volume-down", events.Control{Type: events.ControlVolumeDelta, Delta: -5}},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/control/"+tc.action, nil))
		if rec.Code != http.StatusAccepted {
			t.Fatalf("%s: status %d", tc.action, rec.Code)
		}
		got := <-queue.C()
		if got != tc.want {
			t.Fatalf("%s: queued %+v, want %+v", tc.action, got, tc.want)
		}
	}
}

func TestUnknownControlActionRejected(t *testing.T) {
	s, queue, _ := newTestServer()

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/control/reboot", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
	select {
	case ev := <-queue.C():
		t.Fatalf("unexpected queued event %+v", ev)
	default:
	}
}
