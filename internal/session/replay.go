package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tidewind/lyricwire/internal/config"
	"github.com/tidewind/lyricwire/internal/events"
	"github.com/tidewind/lyricwire/internal/feed"
)

// TranscriptEntry is one line of a recorded feed transcript: the wall
// instant (milliseconds from transcript start) at which the raw feed
// message arrived, and the message itself.
type TranscriptEntry struct {
	At  int64           `json:"at"`
	Msg json.RawMessage `json:"msg"`
}

// virtualClock is the replay wall clock: it jumps to each transcript
// entry's instant instead of following real time.
type virtualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *virtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *virtualClock) setMs(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = time.UnixMilli(ms)
}

// seqTokens makes replay output independent of UUID generation.
type seqTokens struct{ n int }

func (g *seqTokens) Generate() string {
	g.n++
	return fmt.Sprintf("replay-%d", g.n)
}

// Replay feeds a recorded transcript through the full normalize, clock, and
// index pipeline on a virtual wall clock, writing the resulting NDJSON
// event stream to w. The same transcript always produces the same bytes:
// generation tokens are sequential and no real timer is consulted.
//
// Persistence is disabled during replay; the pipeline is exercised, the
// stores are not.
func Replay(r io.Reader, w io.Writer, cfg config.Config) error {
	// Replaying must not touch the live cache or archive.
	cfg.CachePath = ""
	cfg.ArchivePath = ""

	vc := &virtualClock{}
	s := New(cfg, events.NewEmitter(w),
		WithNow(vc.Now),
		WithTokens(&seqTokens{}),
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var entry TranscriptEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("transcript line %d: %w", lineNo, err)
		}
		vc.setMs(entry.At)

		msg, err := feed.DecodeMessage(entry.Msg)
		if err != nil {
			// Same policy as the live adapter: drop the message, continue.
			s.log.Warn("replay: dropping message", "line", lineNo, "error", err)
			continue
		}
		s.applyMessage(msg)
		s.tick()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	return nil
}

// applyMessage routes a decoded feed message to the session handlers the
// live event loop would invoke.
func (s *Session) applyMessage(msg feed.Message) {
	switch {
	case msg.Song != nil:
		s.handleSong(*msg.Song)
	case msg.Lyrics != nil:
		s.handleLyrics(msg.Lyrics)
	case msg.Progress != nil:
		s.handleProgress(msg.Progress.CurrentTime, s.replaySeek.Observe(msg.Progress.CurrentTime))
	}
}
