/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"path/filepath"
	"strings"
	"time"
)

// PlayerState enumerates playback states.
type PlayerState string

const (
	StateStopped PlayerState = "stopped"
	StatePlaying PlayerState = "playing"
	StatePaused  PlayerState = "paused"
)

// MediaAvailability describes the removable medium from the controller's
// point of view. ManuallyEjected is policy, not physical truth: the medium
// may still be electrically present while the flag holds.
type MediaAvailability string

const (
	MediaAbsent          MediaAvailability = "absent"
	MediaMounted         MediaAvailability = "mounted"
	MediaManuallyEjected MediaAvailability = "ejected"
)

// Track identifies one playable file on the medium.
type Track struct {
	Path    string
	Ordinal int
	Title   string
}

// TitleFromPath derives a display title from a file path.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Playlist is an ordered, immutable enumeration of the medium's tracks.
// It is replaced wholesale on every fresh mount, never mutated in place.
type Playlist struct {
	Generation string
	Tracks     []Track
}

// Len reports the number of tracks.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Tracks)
}

// At returns the track at index i.
func (p *Playlist) At(i int) Track {
	return p.Tracks[i]
}

// Wrap folds an index into the playlist ring. The playlist must be non-empty.
func (p *Playlist) Wrap(i int) int {
	n := p.Len()
	return ((i % n) + n) % n
}

// Session is the persisted slice of player state that survives restarts.
type Session struct {
	ID            uint `gorm:"primaryKey"`
	Volume        int
	LastTrackPath string
	UpdatedAt     time.Time
}
