/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package state

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/friendsincode/skaldbox/internal/models"
)

// Store persists the session record (volume, last played track) so the
// appliance picks up where it left off after a power cycle.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Load returns the persisted session, or a zero session if none exists yet.
func (s *Store) Load() (models.Session, error) {
	var session models.Session
	err := s.db.First(&session, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Session{}, nil
	}
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// Save upserts the single session row.
func (s *Store) Save(volume int, lastTrackPath string) error {
	session := models.Session{
		ID:            1,
		Volume:        volume,
		LastTrackPath: lastTrackPath,
		UpdatedAt:     time.Now().UTC(),
	}
	return s.db.Save(&session).Error
}
