// Package feed owns the long-lived WebSocket connection to the external
// now-playing feed. It normalizes raw wire payloads into typed events,
// detects seeks, and survives disconnects with exponential backoff. It has
// no knowledge of the clock or the index; everything flows out through a
// single event channel.
package feed

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventKind discriminates adapter events.
type EventKind int

const (
	// KindStatus reports a connection state change.
	KindStatus EventKind = iota + 1
	// KindSong reports a song change.
	KindSong
	// KindLyrics carries a raw lyric definition payload.
	KindLyrics
	// KindProgress carries one raw playback position sample.
	KindProgress
)

// Event is one normalized adapter emission. The payload fields used depend
// on Kind.
type Event struct {
	Kind      EventKind
	Connected bool
	Err       string
	Song      *SongChange
	Lyrics    *LyricPayload
	TimeMs    int64
	Seeked    bool
}

// Adapter maintains the feed connection.
//
// Lifecycle: Connect is idempotent (an existing connection and any pending
// reconnect are torn down first). Close stops everything; no events are
// emitted afterwards. Events are delivered in arrival order on the channel
// returned by Events; the session's loop is the single consumer.
type Adapter struct {
	url    string
	log    *slog.Logger
	dialer *websocket.Dialer

	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	conn    *websocket.Conn
	retry   *time.Timer
	backoff *backoff
	seek    SeekDetector
	closed  bool
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(log *slog.Logger) AdapterOption {
	return func(a *Adapter) { a.log = log }
}

// WithDialer overrides the websocket dialer (tests shorten its timeout).
func WithDialer(d *websocket.Dialer) AdapterOption {
	return func(a *Adapter) { a.dialer = d }
}

// NewAdapter creates an adapter for the given feed URL. No connection is
// attempted until Connect.
func NewAdapter(feedURL string, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		url:     feedURL,
		log:     slog.Default(),
		dialer:  websocket.DefaultDialer,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
		backoff: newBackoff(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ValidateURL checks that raw names a feed transport this process can
// speak. Failing this is the fatal environment error: no cache can
// substitute for the transport entirely.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid feed URL %q: %w", raw, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("unsupported feed URL scheme %q: need ws or wss", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("feed URL %q has no host", raw)
	}
	return nil
}

// Events returns the adapter's event channel.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// Connect establishes the feed connection, tearing down any live connection
// and cancelling any pending reconnect first. The dial happens on its own
// goroutine; failures schedule a backoff retry rather than surfacing here.
func (a *Adapter) Connect() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	if a.retry != nil {
		a.retry.Stop()
		a.retry = nil
	}
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.mu.Unlock()

	go a.dial()
}

// Close tears the adapter down: pending backoff cancelled, connection
// closed, event channel silenced.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	if a.retry != nil {
		a.retry.Stop()
		a.retry = nil
	}
	conn := a.conn
	a.conn = nil
	a.mu.Unlock()

	close(a.done)
	if conn != nil {
		conn.Close()
	}
	return nil
}

func (a *Adapter) dial() {
	conn, resp, err := a.dialer.Dial(a.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		a.log.Warn("feed dial failed", "url", a.url, "error", err)
		a.emit(Event{Kind: KindStatus, Connected: false, Err: err.Error()})
		a.scheduleRetry()
		return
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		conn.Close()
		return
	}
	a.conn = conn
	a.backoff.Reset()
	a.seek.Reset()
	a.mu.Unlock()

	a.log.Info("feed connected", "url", a.url)
	a.emit(Event{Kind: KindStatus, Connected: true})
	go a.readLoop(conn)
}

func (a *Adapter) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			a.mu.Lock()
			current := a.conn == conn
			if current {
				a.conn = nil
			}
			closed := a.closed
			a.mu.Unlock()

			// A stale loop (superseded by a newer Connect) or a closing
			// adapter exits silently.
			if closed || !current {
				return
			}
			a.log.Warn("feed connection lost", "error", err)
			a.emit(Event{Kind: KindStatus, Connected: false, Err: err.Error()})
			a.scheduleRetry()
			return
		}
		a.handle(conn, data)
	}
}

// handle processes one inbound wire message. Malformed messages are dropped
// individually; the connection keeps reading.
func (a *Adapter) handle(conn *websocket.Conn, data []byte) {
	msg, err := DecodeMessage(data)
	if err != nil {
		a.log.Warn("dropping feed message", "error", err)
		a.emit(Event{Kind: KindStatus, Connected: true, Err: err.Error()})
		return
	}

	switch msg.Type {
	case msgPing:
		if err := conn.WriteMessage(websocket.TextMessage, pongMessage); err != nil {
			a.log.Warn("pong write failed", "error", err)
		}
	case msgSong:
		a.emit(Event{Kind: KindSong, Song: msg.Song})
	case msgLyrics:
		a.emit(Event{Kind: KindLyrics, Lyrics: msg.Lyrics})
	case msgProgress:
		a.mu.Lock()
		seeked := a.seek.Observe(msg.Progress.CurrentTime)
		a.mu.Unlock()
		a.emit(Event{Kind: KindProgress, TimeMs: msg.Progress.CurrentTime, Seeked: seeked})
	}
}

func (a *Adapter) scheduleRetry() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.retry != nil {
		return
	}
	delay := a.backoff.Next()
	a.log.Info("scheduling feed reconnect", "delay", delay)
	a.retry = time.AfterFunc(delay, func() {
		a.mu.Lock()
		a.retry = nil
		closed := a.closed
		a.mu.Unlock()
		if !closed {
			a.Connect()
		}
	})
}

// emit delivers an event unless the adapter is closing.
func (a *Adapter) emit(e Event) {
	select {
	case <-a.done:
		return
	default:
	}
	select {
	case a.events <- e:
	case <-a.done:
	}
}
