// Package batch drives one symbol's OrderBook from its event feed: it
// coalesces incoming events into bounded batches, applies each batch with
// a single call to OrderBook.OnBatch, and forwards the resulting
// notifications downstream. Grounded on the example corpus's engine
// orchestration style — a Run loop meant for its own goroutine, stopped by
// cancelling its context, selecting over a handful of channels.
package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lobd/internal/book"
)

// Sink receives notifications as OnBatch produces them, in arrival order.
// *publisher.Hub (via publisher.PublishNotification) is the production
// implementation; tests can pass a closure.
type Sink interface {
	Notify(n book.Notification)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(book.Notification)

// Notify implements Sink.
func (f SinkFunc) Notify(n book.Notification) { f(n) }

// Driver reads events off a channel, batches them by size or time, and
// applies each batch to a single OrderBook. One Driver per symbol, same
// as one OrderBook per symbol — the book holds no locks of its own, so
// every access to it (Run's batches, ApplySync, and the read/checkpoint
// accessors) goes through this driver and is serialized by its mutex.
type Driver struct {
	book   *book.OrderBook
	events <-chan book.Event
	sink   Sink

	maxEvents   int
	maxInterval time.Duration

	logger *slog.Logger

	mu sync.Mutex
}

// New constructs a driver for ob, reading events from the given channel.
// maxEvents and maxInterval bound how long a batch may accumulate before
// being flushed; whichever triggers first wins.
func New(ob *book.OrderBook, events <-chan book.Event, sink Sink, maxEvents int, maxInterval time.Duration, logger *slog.Logger) *Driver {
	return &Driver{
		book:        ob,
		events:      events,
		sink:        sink,
		maxEvents:   maxEvents,
		maxInterval: maxInterval,
		logger:      logger.With("component", "batch-driver"),
	}
}

// Run batches and applies events until ctx is cancelled or the event
// channel is closed.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.maxInterval)
	defer ticker.Stop()

	pending := make([]book.Event, 0, d.maxEvents)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		d.mu.Lock()
		d.apply(pending)
		d.mu.Unlock()
		pending = pending[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()

		case ev, ok := <-d.events:
			if !ok {
				flush()
				return nil
			}
			pending = append(pending, ev)
			if len(pending) >= d.maxEvents {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// ApplySync applies events directly, outside the Run loop's batching —
// used to seed a freshly constructed book from a REST snapshot before
// the incremental stream starts.
func (d *Driver) ApplySync(events []book.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.apply(events)
}

// SetSink installs the driver's notification sink. Callers must do this
// before starting Run — it is not safe to call concurrently with it.
func (d *Driver) SetSink(sink Sink) {
	d.sink = sink
}

// BestBid returns the book's best resting bid, synchronized with any
// in-flight batch application.
func (d *Driver) BestBid() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.book.BestBid()
}

// BestAsk returns the book's best resting ask, synchronized with any
// in-flight batch application.
func (d *Driver) BestAsk() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.book.BestAsk()
}

// LevelCount returns the number of distinct price levels currently resting
// on side, synchronized with any in-flight batch application.
func (d *Driver) LevelCount(side book.Side) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.book.LevelCount(side)
}

// Checkpoint returns a snapshot of the book's resting orders, synchronized
// with any in-flight batch application — safe to call from a goroutine
// other than the one running Run.
func (d *Driver) Checkpoint() []book.OrderRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.book.Checkpoint()
}

// Restore replays a checkpoint's resting orders into the book, synchronized
// with any in-flight batch application. Callers seeding a freshly
// constructed book at startup may call this before Run starts; it is also
// safe to call while Run is already running.
func (d *Driver) Restore(records []book.OrderRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.book.Restore(records)
}

// apply assumes the caller already holds d.mu.
func (d *Driver) apply(events []book.Event) error {
	notifications, err := d.book.OnBatch(events)
	for _, n := range notifications {
		if d.sink != nil {
			d.sink.Notify(n)
		}
	}
	if err != nil {
		d.logger.Error("batch partially applied", "error", err, "applied_notifications", len(notifications))
		return err
	}
	return nil
}
