// Package events defines the NDJSON event stream consumed by the
// presentation layer: one JSON object per line, four shapes, written to a
// single writer. The stream is the engine's only outward surface; rendering
// never reaches back into engine state.
package events

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/tidewind/lyricwire/internal/lyrics"
)

// Event type discriminators.
const (
	TypeStatus   = "status"
	TypeTimeline = "timeline"
	TypeProgress = "progress"
	TypeLyrics   = "lyrics"
)

// Timeline sources.
const (
	SourceAPI   = "api"
	SourceCache = "cache"
)

// Status reports connection state. Error carries the most recent non-fatal
// failure for observability; it never implies the stream is stopping.
type Status struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Timeline carries a full resolved line sequence, either fresh from the
// feed ("api") or restored from local storage ("cache").
type Timeline struct {
	Type    string             `json:"type"`
	Source  string             `json:"source"`
	SongKey string             `json:"songKey"`
	Lines   []lyrics.LyricLine `json:"lines"`
}

// Progress relays one accepted raw sample enriched with the resolved line.
// Idx is -1 when no line owns the sample time.
type Progress struct {
	Type         string  `json:"type"`
	Time         int64   `json:"time"`
	Seeked       bool    `json:"seeked"`
	Idx          int     `json:"idx"`
	LineStart    int64   `json:"lineStart"`
	LineEnd      int64   `json:"lineEnd"`
	LineDuration int64   `json:"lineDuration"`
	LineProgress float64 `json:"lineProgress"`
}

// Lyrics is the legacy line-resolved shape: emitted when the active line
// changes, and with empty text plus IsTransition set while a song change is
// in flight.
type Lyrics struct {
	Type         string               `json:"type"`
	Main         string               `json:"main"`
	Translation  string               `json:"translation"`
	Time         int64                `json:"time"`
	Segments     []lyrics.WordSegment `json:"segments"`
	IsTransition bool                 `json:"isTransition"`
}

// NewStatus builds a status event.
func NewStatus(connected bool, errMsg string) Status {
	return Status{Type: TypeStatus, Connected: connected, Error: errMsg}
}

// NewTimeline builds a timeline event from a resolved Timeline.
func NewTimeline(source string, tl *lyrics.Timeline) Timeline {
	return Timeline{Type: TypeTimeline, Source: source, SongKey: tl.SongKey, Lines: tl.Lines}
}

// Emitter serializes events to w, one per line.
//
// Thread-safety: Emit may be called from the read loop and the ticker; the
// mutex keeps lines whole.
type Emitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewEmitter creates an emitter writing NDJSON to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{enc: json.NewEncoder(w)}
}

// Emit writes one event as a single JSON line.
func (e *Emitter) Emit(v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(v)
}
