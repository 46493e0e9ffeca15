/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/skaldbox/internal/config"
	"github.com/friendsincode/skaldbox/internal/events"
	"github.com/friendsincode/skaldbox/internal/models"
	"github.com/friendsincode/skaldbox/internal/player"
	"github.com/friendsincode/skaldbox/internal/telemetry"
	"github.com/friendsincode/skaldbox/internal/version"
)

// StatusProvider exposes the controller's published snapshot.
type StatusProvider interface {
	Status() player.Status
	Playlist() *models.Playlist
}

// Server is the loopback status/control API. POSTed control actions enter the
// same bounded queue as physical inputs; the API never touches player state
// directly.
type Server struct {
	cfg      *config.Config
	logger   zerolog.Logger
	provider StatusProvider
	queue    *events.Queue
	router   chi.Router
}

// New creates the API server.
func New(cfg *config.Config, provider StatusProvider, queue *events.Queue, logger zerolog.Logger) *Server {
	s := &Server{cfg: cfg, logger: logger, provider: provider, queue: queue}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Version})
	})
	r.Get("/status", s.handleStatus)
	r.Get("/playlist", s.handlePlaylist)
	r.Post("/control/{action}", s.handleControl)
	r.Handle("/metrics", telemetry.Handler())

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := s.provider.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":        string(status.State),
		"availability": string(status.Availability),
		"volume":       status.Volume,
		"track":        status.Index + 1,
		"total":        status.TrackCount,
		"current":      status.Current,
		"playlist":     status.Generation,
	})
}

func (s *Server) handlePlaylist(w http.ResponseWriter, _ *http.Request) {
	playlist := s.provider.Playlist()
	tracks := make([]map[string]any, playlist.Len())
	for i, track := range playlistTracks(playlist) {
		tracks[i] = map[string]any{
			"ordinal": track.Ordinal,
			"title":   track.Title,
			"path":    track.Path,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generation": playlistGeneration(playlist),
		"tracks":     tracks,
	})
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var ev events.Control
	action := chi.URLParam(r, "action")
	switch action {
	case "play-pause":
		ev = events.Control{Type: events.ControlPlayPause}
	case "next":
		ev = events.Control{Type: events.ControlNext}
	case "previous":
		ev = events.Control{Type: events.ControlPrevious}
	case "eject":
		ev = events.Control{Type: events.ControlEncoderPress}
	case "volume-up":
		ev = events.Control{Type: events.ControlVolumeDelta, Delta: s.cfg.VolumeStep}
	case "volume-down":
		ev = events.Control{Type: events.ControlVolumeDelta, Delta: -s.cfg.VolumeStep}
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown action: " + action})
		return
	}

	s.queue.Push(ev)
	writeJSON(w, http.StatusAccepted, map[string]string{"queued": string(ev.Type)})
}

// HTTPServer builds the configured http.Server.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.HTTPBind, s.cfg.HTTPPort),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Router exposes the handler tree.
func (s *Server) Router() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func playlistTracks(p *models.Playlist) []models.Track {
	if p == nil {
		return nil
	}
	return p.Tracks
}

func playlistGeneration(p *models.Playlist) string {
	if p == nil {
		return ""
	}
	return p.Generation
}
