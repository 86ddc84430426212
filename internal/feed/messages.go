package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidewind/lyricwire/internal/lyrics"
)

// Wire message type discriminators, as sent by the provider.
const (
	msgSong     = "song"
	msgLyrics   = "lyrics"
	msgProgress = "progress"
	msgPing     = "ping"
	msgPong     = "pong"
)

// SongChange announces that a different track is now playing. The lyric
// definition for it arrives in a separate message, possibly much later.
type SongChange struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Key derives the cache/archive key for the song: the provider ID when one
// exists, otherwise "artist - title".
func (s SongChange) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return strings.TrimSpace(s.Artist + " - " + s.Title)
}

// LyricPayload carries both lyric encodings a provider may emit: LRC
// (line-level timing only) and YRC (per-word karaoke timing).
type LyricPayload struct {
	LRC []lyrics.RawLine `json:"lrcData"`
	YRC []lyrics.RawLine `json:"yrcData"`
}

// ProgressReport is a raw playback position sample.
type ProgressReport struct {
	CurrentTime int64 `json:"currentTime"`
}

// Message is the decoded form of one wire message. Exactly one of the
// payload pointers is set, selected by Type.
type Message struct {
	Type     string
	Song     *SongChange
	Lyrics   *LyricPayload
	Progress *ProgressReport
}

type envelope struct {
	Type string `json:"type"`
	SongChange
	LyricPayload
	ProgressReport
}

// DecodeMessage parses one raw wire message. Unknown types and unparseable
// payloads return an error; per the payload failure policy the caller drops
// the single message and keeps reading.
func DecodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("malformed feed message: %w", err)
	}
	switch env.Type {
	case msgSong:
		song := env.SongChange
		return Message{Type: msgSong, Song: &song}, nil
	case msgLyrics:
		payload := env.LyricPayload
		return Message{Type: msgLyrics, Lyrics: &payload}, nil
	case msgProgress:
		report := env.ProgressReport
		return Message{Type: msgProgress, Progress: &report}, nil
	case msgPing:
		return Message{Type: msgPing}, nil
	default:
		return Message{}, fmt.Errorf("unknown feed message type %q", env.Type)
	}
}

// pongMessage is the reply the provider expects immediately after a ping.
var pongMessage = []byte(`{"type":"pong"}`)
