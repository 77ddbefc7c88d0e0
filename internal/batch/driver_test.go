package batch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"lobd/internal/book"
)

type collectingSink struct {
	mu   sync.Mutex
	seen []book.Notification
}

func (s *collectingSink) Notify(n book.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, n)
}

func (s *collectingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDriverFlushesOnMaxEvents(t *testing.T) {
	t.Parallel()
	ob := book.NewOrderBook(0.01)
	sink := &collectingSink{}
	events := make(chan book.Event, 8)
	d := New(ob, events, sink, 2, time.Hour, testLogger())

	events <- book.AddEvent{OID: "o1", Venue: "CBOE", Side: book.Bid, Price: 2.50, Qty: 10}
	events <- book.AddEvent{OID: "o2", Venue: "ISE", Side: book.Bid, Price: 2.55, Qty: 5}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for {
		if bid, ok := d.BestBid(); ok && bid == 2.55 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for batch to apply")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestDriverFlushesOnTicker(t *testing.T) {
	t.Parallel()
	ob := book.NewOrderBook(0.01)
	sink := &collectingSink{}
	events := make(chan book.Event, 8)
	d := New(ob, events, sink, 100, 20*time.Millisecond, testLogger())

	events <- book.AddEvent{OID: "o1", Venue: "CBOE", Side: book.Bid, Price: 2.50, Qty: 10}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for {
		if _, ok := d.BestBid(); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for ticker flush")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestApplySyncAppliesImmediatelyAndNotifies(t *testing.T) {
	t.Parallel()
	ob := book.NewOrderBook(0.01)
	sink := &collectingSink{}
	events := make(chan book.Event)
	d := New(ob, events, sink, 10, time.Hour, testLogger())

	err := d.ApplySync([]book.Event{
		book.AddEvent{OID: "o1", Venue: "CBOE", Side: book.Bid, Price: 2.50, Qty: 10},
		book.AddEvent{OID: "o2", Venue: "ISE", Side: book.Bid, Price: 2.55, Qty: 5},
	})
	if err != nil {
		t.Fatalf("ApplySync: %v", err)
	}

	bid, ok := d.BestBid()
	if !ok || bid != 2.55 {
		t.Errorf("BestBid = %v, %v; want 2.55, true", bid, ok)
	}
	if sink.count() != 1 {
		t.Errorf("notifications = %d, want 1", sink.count())
	}
}

func TestApplySyncStopsAtFirstViolationButKeepsPriorNotifications(t *testing.T) {
	t.Parallel()
	ob := book.NewOrderBook(0.01)
	sink := &collectingSink{}
	events := make(chan book.Event)
	d := New(ob, events, sink, 10, time.Hour, testLogger())

	err := d.ApplySync([]book.Event{
		book.AddEvent{OID: "o1", Venue: "CBOE", Side: book.Bid, Price: 2.50, Qty: 10},
		book.CancelEvent{OID: "unknown"},
	})
	if err == nil {
		t.Fatal("expected error for unknown order cancel")
	}
	if _, ok := d.BestBid(); !ok {
		t.Error("expected the first event to have applied despite the later error")
	}
}
