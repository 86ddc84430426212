package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tidewind/lyricwire/internal/archive"
	"github.com/tidewind/lyricwire/internal/cache"
	"github.com/tidewind/lyricwire/internal/clock"
	"github.com/tidewind/lyricwire/internal/config"
	"github.com/tidewind/lyricwire/internal/events"
	"github.com/tidewind/lyricwire/internal/feed"
	"github.com/tidewind/lyricwire/internal/index"
	"github.com/tidewind/lyricwire/internal/lyrics"
)

// TickInterval is the cadence of clock prediction and index re-resolution,
// chosen to stay ahead of a 60Hz presentation layer.
const TickInterval = 16 * time.Millisecond

// Session owns one lyric synchronization pipeline: the feed adapter, the
// predictive clock, the timeline index, and the outbound event stream.
//
// All mutable state is owned by the single Run loop goroutine. The adapter
// delivers events over a channel and the ticker is a select case in the
// same loop, so handlers never race. Cache and archive writes are the only
// work leaving the loop, as fire-and-forget goroutines.
type Session struct {
	cfg     config.Config
	log     *slog.Logger
	emitter *events.Emitter
	adapter *feed.Adapter
	arch    *archive.Archive
	tokens  TokenGenerator
	now     func() time.Time

	clk      *clock.Clock
	resolver *index.Resolver
	relay    *feed.RelayLimiter

	timeline *lyrics.Timeline
	songKey  string
	lastLine int

	// replaySeek classifies samples during replay, standing in for the
	// live adapter's detector. Unused outside replay.
	replaySeek feed.SeekDetector

	destroying atomic.Bool
	persists   sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithAdapter attaches a live feed adapter. Without one the session only
// serves replay, which drives the handlers directly.
func WithAdapter(a *feed.Adapter) Option {
	return func(s *Session) { s.adapter = a }
}

// WithArchive attaches the timeline archive. The caller keeps ownership
// and closes it after the session is done.
func WithArchive(a *archive.Archive) Option {
	return func(s *Session) { s.arch = a }
}

// WithNow replaces the wall-clock source for the clock, the relay limiter,
// and persistence timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithTokens replaces the generation token source.
func WithTokens(g TokenGenerator) Option {
	return func(s *Session) { s.tokens = g }
}

// New creates a session emitting to emitter.
func New(cfg config.Config, emitter *events.Emitter, opts ...Option) *Session {
	s := &Session{
		cfg:      cfg,
		log:      slog.Default(),
		emitter:  emitter,
		tokens:   UUIDv7Generator{},
		now:      time.Now,
		lastLine: index.NoLine,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clk = clock.New(clock.WithNow(s.now), clock.WithOffset(cfg.OffsetMs))
	s.resolver = index.NewResolver()
	s.relay = feed.NewRelayLimiter(s.now)
	return s
}

// Run connects the adapter and processes events until ctx is cancelled.
// Teardown order: ticker stopped, backoff cancelled and connection closed
// (both inside adapter.Close), then pending persistence drained. No events
// are emitted after Run returns.
func (s *Session) Run(ctx context.Context) error {
	if s.adapter == nil {
		return errors.New("session has no feed adapter")
	}
	s.restoreStartup()
	s.adapter.Connect()

	ticker := time.NewTicker(TickInterval)
	defer func() {
		s.destroying.Store(true)
		ticker.Stop()
		s.adapter.Close()
		s.persists.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-s.adapter.Events():
			if !ok {
				return nil
			}
			s.handleEvent(e)
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Session) handleEvent(e feed.Event) {
	switch e.Kind {
	case feed.KindStatus:
		s.emit(events.NewStatus(e.Connected, e.Err))
		if !e.Connected && e.Err != "" && s.timeline.Empty() {
			// Unexpected disconnect with nothing on screen: resume from
			// local storage so prediction can keep animating.
			s.restoreFor(s.songKey)
		}
	case feed.KindSong:
		s.handleSong(*e.Song)
	case feed.KindLyrics:
		s.handleLyrics(e.Lyrics)
	case feed.KindProgress:
		s.handleProgress(e.TimeMs, e.Seeked)
	}
}

// handleSong processes a song change. The in-memory timeline is kept: it
// may still be valid (single-track loop, or a reconnect mid-song). Only
// index tracking resets, and a transient cleared state goes out so stale
// text is not shown while the real definition update is in flight.
func (s *Session) handleSong(song feed.SongChange) {
	s.songKey = song.Key()
	s.resolver.Invalidate()
	s.lastLine = index.NoLine
	s.log.Info("song changed", "songKey", s.songKey)

	t, _ := s.clk.PredictedMs()
	s.emit(events.Lyrics{Type: events.TypeLyrics, Time: t, IsTransition: true})

	if s.timeline == nil || s.timeline.SongKey != s.songKey {
		s.restoreFor(s.songKey)
	}
}

// handleLyrics normalizes a fresh lyric definition into a new Timeline,
// replaces the current one wholesale, and persists it in the background.
func (s *Session) handleLyrics(payload *feed.LyricPayload) {
	tl := lyrics.Normalize(s.songKey, s.tokens.Generate(), payload.LRC, payload.YRC)
	s.timeline = tl
	s.lastLine = index.NoLine
	s.log.Debug("timeline replaced", "songKey", tl.SongKey, "lines", len(tl.Lines))

	s.emit(events.NewTimeline(events.SourceAPI, tl))
	s.persist(tl)

	// A stale line from the previous definition must never show against
	// the new text: re-resolve immediately.
	s.tick()
}

func (s *Session) handleProgress(rawMs int64, seeked bool) {
	s.clk.Observe(rawMs, seeked)
	if seeked {
		s.resolver.Invalidate()
		s.lastLine = index.NoLine
	}
	if !s.relay.Allow(seeked) {
		return
	}

	ev := events.Progress{Type: events.TypeProgress, Time: rawMs, Seeked: seeked, Idx: index.NoLine}
	if !s.timeline.Empty() {
		st := s.resolver.Resolve(s.timeline, rawMs)
		if st.Line != index.NoLine {
			line := s.timeline.Lines[st.Line]
			ev.Idx = st.Line
			ev.LineStart = line.StartMs
			ev.LineEnd = line.EndMs
			ev.LineDuration = line.DurationMs()
			if st.Progress >= 0 {
				ev.LineProgress = st.Progress
			}
		}
	}
	s.emit(ev)
}

// tick re-evaluates the clock and the index. Pure computation; emits only
// when the active line changes.
func (s *Session) tick() {
	t, ok := s.clk.PredictedMs()
	if !ok || s.timeline.Empty() {
		return
	}
	st := s.resolver.Resolve(s.timeline, t)
	if st.Line == index.NoLine || st.Line == s.lastLine {
		return
	}
	s.lastLine = st.Line
	line := s.timeline.Lines[st.Line]
	s.emit(events.Lyrics{
		Type:        events.TypeLyrics,
		Main:        line.Main,
		Translation: line.Translation,
		Time:        line.StartMs,
		Segments:    line.Segments,
	})
}

// restoreStartup loads the last cached timeline before the feed has said
// anything, so a restart resumes locally-predicted animation immediately.
func (s *Session) restoreStartup() {
	if s.cfg.CachePath == "" {
		return
	}
	tl, ok, err := cache.Load(s.cfg.CachePath)
	if err != nil {
		s.log.Warn("cache restore failed", "error", err)
		return
	}
	if !ok {
		return
	}
	s.adoptRestored(tl)
}

// restoreFor loads a stored timeline for songKey, preferring the archive
// (any previously seen song) over the flat cache file (last song only).
func (s *Session) restoreFor(songKey string) {
	if songKey != "" && s.arch != nil {
		if tl, ok, err := s.arch.Get(songKey); err != nil {
			s.log.Warn("archive lookup failed", "songKey", songKey, "error", err)
		} else if ok {
			s.adoptRestored(tl)
			return
		}
	}
	if s.cfg.CachePath == "" {
		return
	}
	tl, ok, err := cache.Load(s.cfg.CachePath)
	if err != nil {
		s.log.Warn("cache restore failed", "error", err)
		return
	}
	if !ok || (songKey != "" && tl.SongKey != songKey) {
		return
	}
	s.adoptRestored(tl)
}

func (s *Session) adoptRestored(tl *lyrics.Timeline) {
	tl.Generation = s.tokens.Generate()
	s.timeline = tl
	s.songKey = tl.SongKey
	s.lastLine = index.NoLine
	s.log.Info("timeline restored from storage", "songKey", tl.SongKey, "lines", len(tl.Lines))
	s.emit(events.NewTimeline(events.SourceCache, tl))
}

// persist writes the timeline to the cache file and the archive without
// blocking the loop. Failures are logged and swallowed; local storage is
// strictly best effort.
func (s *Session) persist(tl *lyrics.Timeline) {
	if tl.Empty() {
		return
	}
	savedAt := s.now().UnixMilli()
	s.persists.Add(1)
	go func() {
		defer s.persists.Done()
		if s.cfg.CachePath != "" {
			if err := cache.Save(s.cfg.CachePath, tl, s.cfg.FeedURL, savedAt); err != nil {
				s.log.Warn("cache write failed", "error", err)
			}
		}
		if s.arch != nil {
			if err := s.arch.Put(tl, s.cfg.FeedURL, savedAt); err != nil {
				s.log.Warn("archive write failed", "error", err)
			}
		}
	}()
}

func (s *Session) emit(v any) {
	if s.destroying.Load() {
		return
	}
	if err := s.emitter.Emit(v); err != nil {
		s.log.Warn("event emit failed", "error", err)
	}
}
