// Package archive provides SQLite-backed storage for every timeline the
// engine has seen, keyed by song.
//
// The flat JSON cache file only remembers the last song; the archive lets a
// reconnect mid-playlist restore lyrics for any previously played song
// before the feed re-announces them. Archive failures are never fatal: the
// session degrades to the cache file alone.
package archive

import (
	"database/sql"
	"encoding/json"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tidewind/lyricwire/internal/lyrics"
)

//go:embed schema.sql
var schemaSQL string

// Archive stores timelines in a SQLite database.
// WAL mode keeps reads cheap while the session's writes trickle in.
type Archive struct {
	db *sql.DB
}

// Open creates or opens the archive database at path. Idempotent.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect archive: %w", err)
	}

	// One writer at a time avoids SQLITE_BUSY under the session's
	// fire-and-forget write pattern.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Put stores or replaces the timeline for its song key.
func (a *Archive) Put(tl *lyrics.Timeline, sourceURL string, savedAt int64) error {
	data, err := json.Marshal(tl.Lines)
	if err != nil {
		return fmt.Errorf("encode lines: %w", err)
	}
	_, err = a.db.Exec(`
		INSERT INTO timelines (song_key, lines, source_url, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(song_key) DO UPDATE SET
			lines = excluded.lines,
			source_url = excluded.source_url,
			saved_at = excluded.saved_at
	`, tl.SongKey, string(data), sourceURL, savedAt)
	if err != nil {
		return fmt.Errorf("store timeline %q: %w", tl.SongKey, err)
	}
	return nil
}

// Get returns the archived timeline for songKey, or ok=false when the song
// has not been seen. A row whose line payload no longer decodes is treated
// as absent rather than an error, matching the cache file's semantics.
func (a *Archive) Get(songKey string) (*lyrics.Timeline, bool, error) {
	var data string
	err := a.db.QueryRow(
		`SELECT lines FROM timelines WHERE song_key = ?`, songKey,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load timeline %q: %w", songKey, err)
	}

	var lines []lyrics.LyricLine
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return nil, false, nil
	}
	return &lyrics.Timeline{SongKey: songKey, Lines: lines}, true, nil
}

// Count returns the number of archived songs. Diagnostic surface for the
// cache inspection command.
func (a *Archive) Count() (int, error) {
	var n int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM timelines`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count timelines: %w", err)
	}
	return n, nil
}
