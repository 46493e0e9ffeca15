/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package media

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/skaldbox/internal/models"
)

// Scanner enumerates playable files under the mount root.
type Scanner struct {
	root   string
	exts   map[string]struct{}
	logger zerolog.Logger
}

// NewScanner creates a scanner for root accepting the given extensions
// (lower case, dot included).
func NewScanner(root string, extensions []string, logger zerolog.Logger) *Scanner {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &Scanner{root: root, exts: exts, logger: logger}
}

// Scan walks the mount root and returns the playlist in lexicographic path
// order, so repeated scans of the same medium are reproducible. An empty
// playlist is a valid result and distinct from the root being absent.
// AppleDouble sidecar files ("._*") are skipped.
func (s *Scanner) Scan() (*models.Playlist, error) {
	if _, err := os.Stat(s.root); err != nil {
		return nil, err
	}

	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("scan: skipping unreadable entry")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, "._") {
			return nil
		}
		if _, ok := s.exts[strings.ToLower(filepath.Ext(name))]; !ok {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)

	tracks := make([]models.Track, len(paths))
	for i, path := range paths {
		tracks[i] = models.Track{
			Path:    path,
			Ordinal: i,
			Title:   models.TitleFromPath(path),
		}
	}

	return &models.Playlist{Generation: uuid.NewString(), Tracks: tracks}, nil
}
