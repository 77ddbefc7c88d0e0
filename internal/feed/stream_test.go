package feed

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"lobd/internal/book"
)

func newTestStream() *Stream {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStream("ws://example.invalid", "AAPL_240119C00150000", time.Millisecond, time.Second, logger)
}

func TestDispatchValidEventIsQueued(t *testing.T) {
	t.Parallel()
	s := newTestStream()
	s.dispatch([]byte(`{"event_type":"cancel","cancel":{"oid":"o1"}}`))

	select {
	case ev := <-s.Events():
		if ev == nil {
			t.Fatal("got nil event")
		}
	default:
		t.Fatal("expected event on channel")
	}
}

func TestDispatchIgnoresNonJSON(t *testing.T) {
	t.Parallel()
	s := newTestStream()
	s.dispatch([]byte(`not json`))

	select {
	case ev := <-s.Events():
		t.Fatalf("expected no event, got %v", ev)
	default:
	}
}

func TestDispatchDropsMalformedEvent(t *testing.T) {
	t.Parallel()
	s := newTestStream()
	s.dispatch([]byte(`{"event_type":"add","add":{"oid":"o1","venue":"CBOE","price":"1","qty":"1","side":"SIDEWAYS"}}`))

	select {
	case ev := <-s.Events():
		t.Fatalf("expected no event for malformed side, got %v", ev)
	default:
	}
}

func TestDispatchDoesNotBlockOnFullBuffer(t *testing.T) {
	t.Parallel()
	s := newTestStream()
	s.eventCh = make(chan book.Event, 1)

	s.dispatch([]byte(`{"event_type":"cancel","cancel":{"oid":"o1"}}`))
	done := make(chan struct{})
	go func() {
		s.dispatch([]byte(`{"event_type":"cancel","cancel":{"oid":"o2"}}`))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on full event buffer")
	}
}
