/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TracksPlayedTotal counts decoder starts that succeeded.
	TracksPlayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skaldbox_tracks_played_total",
		Help: "Number of tracks handed to the decoder.",
	})

	// DecoderSpawnFailuresTotal counts decoder spawns that failed.
	DecoderSpawnFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skaldbox_decoder_spawn_failures_total",
		Help: "Number of decoder processes that could not be started.",
	})

	// InputEventsTotal counts semantic input events by type.
	InputEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skaldbox_input_events_total",
		Help: "Semantic input events received, by type.",
	}, []string{"type"})

	// QueueDroppedTotal counts control events evicted from the full queue.
	QueueDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skaldbox_queue_dropped_total",
		Help: "Control events dropped because the queue was full.",
	})

	// MountTransitionsTotal counts mount edges by direction.
	MountTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skaldbox_mount_transitions_total",
		Help: "Mount state transitions observed, by direction.",
	}, []string{"direction"})

	// PlayerState reports the current playback state as a one-hot gauge.
	PlayerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "skaldbox_player_state",
		Help: "Current playback state (one-hot).",
	}, []string{"state"})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetPlayerState updates the one-hot state gauge.
func SetPlayerState(state string) {
	for _, s := range []string{"stopped", "playing", "paused", "ejected"} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		PlayerState.WithLabelValues(s).Set(v)
	}
}
