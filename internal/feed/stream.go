// stream.go implements the incremental websocket feed. It auto-reconnects
// with exponential backoff and decodes each message into a book.Event
// pushed onto a channel the batching driver reads from. Grounded on the
// example corpus's WebSocket feed pattern (connect/read loop, ping
// keepalive, exponential backoff, typed dispatch by an envelope field).
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"lobd/internal/book"
)

const (
	pingInterval   = 50 * time.Second
	readTimeout    = 90 * time.Second
	writeTimeout   = 10 * time.Second
	eventBufferLen = 1024
)

// Stream manages a single websocket connection to the incremental feed for
// one symbol, decoding and forwarding normalized events.
type Stream struct {
	url    string
	symbol string

	minWait time.Duration
	maxWait time.Duration

	eventCh chan book.Event
	logger  *slog.Logger
}

// NewStream creates a feed for symbol at wsURL. minWait/maxWait bound the
// exponential reconnect backoff.
func NewStream(wsURL, symbol string, minWait, maxWait time.Duration, logger *slog.Logger) *Stream {
	return &Stream{
		url:     wsURL,
		symbol:  symbol,
		minWait: minWait,
		maxWait: maxWait,
		eventCh: make(chan book.Event, eventBufferLen),
		logger:  logger.With("component", "feed-stream", "symbol", symbol),
	}
}

// Events returns the channel of normalized events. The batching driver is
// the sole reader.
func (s *Stream) Events() <-chan book.Event {
	return s.eventCh
}

// Run connects and maintains the websocket connection with auto-reconnect.
// Blocks until ctx is cancelled.
func (s *Stream) Run(ctx context.Context) error {
	backoff := s.minWait

	for {
		err := s.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Warn("stream disconnected, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > s.maxWait {
			backoff = s.maxWait
		}
	}
}

func (s *Stream) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := s.subscribe(conn); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	s.logger.Info("stream connected")

	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.pingLoop(pingCtx, conn)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		s.dispatch(msg)
	}
}

func (s *Stream) subscribe(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(struct {
		Type   string `json:"type"`
		Symbol string `json:"symbol"`
	}{Type: "subscribe", Symbol: s.symbol})
}

func (s *Stream) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Stream) dispatch(data []byte) {
	var w WireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		s.logger.Debug("ignoring non-json stream message", "data", string(data))
		return
	}

	ev, err := ToEvent(w)
	if err != nil {
		s.logger.Warn("dropping malformed stream event", "error", err, "event_type", w.EventType)
		return
	}

	select {
	case s.eventCh <- ev:
	default:
		s.logger.Error("event buffer full, dropping event", "event_type", w.EventType)
	}
}
