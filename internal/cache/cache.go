// Package cache persists the last good Timeline to a single versioned JSON
// document so a restart or reconnect can restore usable lyrics before the
// feed re-announces them.
//
// The cache is strictly best effort: writes are atomic but failures are the
// caller's to swallow, and any unreadable, mis-versioned, or malformed file
// reads back as a plain miss.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidewind/lyricwire/internal/lyrics"
)

// Version is the only accepted document schema version.
const Version = 1

// Document is the on-disk schema.
type Document struct {
	Version   int                `json:"version"`
	SongKey   string             `json:"songKey"`
	Lines     []lyrics.LyricLine `json:"lines"`
	SavedAt   int64              `json:"savedAt"`
	SourceURL string             `json:"sourceUrl"`
}

// Save writes the timeline to path atomically (temp file in the same
// directory, then rename). Parent directories are created as needed.
func Save(path string, tl *lyrics.Timeline, sourceURL string, savedAt int64) error {
	doc := Document{
		Version:   Version,
		SongKey:   tl.SongKey,
		Lines:     tl.Lines,
		SavedAt:   savedAt,
		SourceURL: sourceURL,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode cache document: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".lyricwire-cache-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

// Load reads the cached timeline from path. A missing, unreadable, corrupt,
// or mis-versioned file is a miss (nil, false, nil); only unexpected I/O
// conditions surface as an error, and callers may treat those as misses too.
func Load(path string) (*lyrics.Timeline, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, nil
	}
	if doc.Version != Version || doc.SongKey == "" {
		return nil, false, nil
	}
	return &lyrics.Timeline{SongKey: doc.SongKey, Lines: doc.Lines}, true, nil
}
