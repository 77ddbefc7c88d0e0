// Package book implements the core order book: a tick-indexed level map per
// side, a dense-window-plus-heap best-price cursor per side, and the
// order-id registry that ties the two together. It is an observer of
// market-data events, not a matching engine, and owns no cross-symbol
// state — one OrderBook per symbol, single-owner goroutine, no internal
// locking. See SPEC_FULL.md §4 and §5.
package book

import (
	"fmt"
	"strings"

	"lobd/internal/tick"
	"lobd/internal/venue"
)

// orderEntry is the order-map record for one resting order: which side and
// tick it rests at, which venue it was entered on, and how much of it is
// still unfilled.
type orderEntry struct {
	side      Side
	idx       int64
	venueID   venue.ID
	remaining int64
}

// OrderBook owns the per-side level maps, the per-side best-price cursor,
// and the order-id registry for one symbol.
type OrderBook struct {
	codec tick.Codec

	levels [2]map[int64]*PriceLevel
	sides  [2]*DenseWindowSide

	orders map[OrderID]orderEntry
}

// NewOrderBook constructs an empty book at the given tick size (canonically
// 0.01).
func NewOrderBook(tickSize float64) *OrderBook {
	return &OrderBook{
		codec: tick.NewCodec(tickSize),
		levels: [2]map[int64]*PriceLevel{
			Bid: make(map[int64]*PriceLevel),
			Ask: make(map[int64]*PriceLevel),
		},
		orders: make(map[OrderID]orderEntry),
	}
}

// OnAdd enters a new resting order. Returns a non-nil *NBBOImprovement only
// if this add created the first level at idx and that level became the new
// best on its side, displacing a prior best. Per spec, the very first level
// ever created on a side never produces a notification.
func (b *OrderBook) OnAdd(oid OrderID, venueName string, side Side, price float64, qty int64) (*NBBOImprovement, error) {
	vid, ok := venue.Lookup(venueName)
	if !ok {
		return nil, fmt.Errorf("on_add %s: %w: %q", oid, ErrUnknownVenue, venueName)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("on_add %s: %w", oid, ErrNonPositiveQty)
	}
	if _, exists := b.orders[oid]; exists {
		return nil, fmt.Errorf("on_add %s: %w", oid, ErrDuplicateOrder)
	}

	idx := b.codec.ToTick(price)

	level, exists := b.levels[side][idx]
	if !exists {
		level = newPriceLevel()
		b.levels[side][idx] = level
	}
	level.Adjust(vid, qty)

	b.orders[oid] = orderEntry{side: side, idx: idx, venueID: vid, remaining: qty}

	if exists {
		return nil, nil
	}

	cursor := b.sides[side]
	if cursor == nil {
		cursor = NewDenseWindowSide(side, idx)
		b.sides[side] = cursor
	}

	prevBest, improved := cursor.IncLevel(idx)
	if !improved {
		return nil, nil
	}

	displaced := b.levels[side][prevBest]
	activeVenues, _ := displaced.SnapshotByVenue()

	return &NBBOImprovement{
		Side:            side,
		NewPrice:        b.codec.ToPrice(idx),
		NewSize:         uint64(level.AggQty()),
		OldPrice:        b.codec.ToPrice(prevBest),
		OldSize:         uint64(displaced.AggQty()),
		DisplacedVenues: activeVenues,
	}, nil
}

// OnCancel removes a resting order. If removing it drains its level's
// aggregate to zero, the level is deleted immediately and the side's best
// cursor is updated.
func (b *OrderBook) OnCancel(oid OrderID) error {
	entry, ok := b.orders[oid]
	if !ok {
		return fmt.Errorf("on_cancel %s: %w", oid, ErrUnknownOrder)
	}
	delete(b.orders, oid)

	level := b.levels[entry.side][entry.idx]
	level.Adjust(entry.venueID, -entry.remaining)

	if level.AggQty() == 0 {
		b.sides[entry.side].DecLevel(entry.idx)
		delete(b.levels[entry.side], entry.idx)
	}
	return nil
}

// OnReplace is on_add(new_oid, ...) followed by on_cancel(orig_oid), in that
// order. Doing the add first guarantees any NBBO improvement is observed
// even if the cancel would otherwise leave the side transiently empty.
func (b *OrderBook) OnReplace(newOID, origOID OrderID, venueName string, side Side, price float64, qty int64) (*NBBOImprovement, error) {
	if newOID == origOID {
		return nil, fmt.Errorf("on_replace %s: %w", newOID, ErrSameOrderID)
	}
	if _, ok := b.orders[origOID]; !ok {
		return nil, fmt.Errorf("on_replace %s: %w: %s", newOID, ErrUnknownOrder, origOID)
	}

	n, err := b.OnAdd(newOID, venueName, side, price, qty)
	if err != nil {
		return nil, err
	}
	if err := b.OnCancel(origOID); err != nil {
		return n, err
	}
	return n, nil
}

// OnExecute reports a fill against a resting order. exec_qty beyond the
// order's known remaining quantity is clamped (take = min(exec_qty,
// remaining)); this tolerates mildly out-of-order feeds per spec §7 and
// never drives a quantity negative.
func (b *OrderBook) OnExecute(oid OrderID, execQty int64) (*Execution, error) {
	entry, ok := b.orders[oid]
	if !ok {
		return nil, fmt.Errorf("on_execute %s: %w", oid, ErrUnknownOrder)
	}
	if execQty <= 0 {
		return nil, fmt.Errorf("on_execute %s: %w", oid, ErrNonPositiveQty)
	}

	take := execQty
	if take > entry.remaining {
		take = entry.remaining
	}

	level := b.levels[entry.side][entry.idx]
	applied := level.Adjust(entry.venueID, -take)
	take = -applied

	activeVenues, perVenue := level.SnapshotByVenue()
	perVenueQty := make([]uint64, venue.Count)
	for i, q := range perVenue {
		perVenueQty[i] = uint64(q)
	}

	var remainingAtLevel uint64
	if level.AggQty() == 0 {
		b.sides[entry.side].DecLevel(entry.idx)
		delete(b.levels[entry.side], entry.idx)
	} else {
		remainingAtLevel = uint64(level.AggQty())
	}

	remaining := entry.remaining - take
	if remaining <= 0 {
		delete(b.orders, oid)
	} else {
		entry.remaining = remaining
		b.orders[oid] = entry
	}

	return &Execution{
		Side:         entry.side,
		ExecPrice:    b.codec.ToPrice(entry.idx),
		Remaining:    remainingAtLevel,
		PerVenueQty:  perVenueQty,
		ActiveVenues: strings.Join(activeVenues, ","),
	}, nil
}

// BestBid returns the best resting bid price, or false if the bid side has
// never been initialized or is currently empty.
func (b *OrderBook) BestBid() (float64, bool) {
	return b.bestOf(Bid)
}

// BestAsk returns the best resting ask price, or false if the ask side has
// never been initialized or is currently empty.
func (b *OrderBook) BestAsk() (float64, bool) {
	return b.bestOf(Ask)
}

func (b *OrderBook) bestOf(side Side) (float64, bool) {
	cursor := b.sides[side]
	if cursor == nil {
		return 0, false
	}
	idx, ok := cursor.BestTick()
	if !ok {
		return 0, false
	}
	return b.codec.ToPrice(idx), true
}

// LevelCount returns the number of distinct price levels currently resting
// on side, for operational visibility (e.g. a status endpoint).
func (b *OrderBook) LevelCount(side Side) int {
	return len(b.levels[side])
}

// OnBatch applies events in arrival order, collecting the non-nil
// notifications they produce. Processing stops at the first caller-contract
// violation (unknown venue, non-positive quantity, duplicate or unknown
// order id, replace with an unchanged id); the side is not validated here,
// feed.parseSide does that before events reach the book — the
// core never partially applies a malformed event, but a batch is a
// sequence of otherwise-independent events, so earlier ones already
// applied stand; err identifies which event in the slice failed via its
// wrapped sentinel.
func (b *OrderBook) OnBatch(events []Event) ([]Notification, error) {
	notifications := make([]Notification, 0, len(events))
	for i, ev := range events {
		n, err := ev.apply(b)
		if err != nil {
			return notifications, fmt.Errorf("event %d: %w", i, err)
		}
		if n != nil {
			notifications = append(notifications, n)
		}
	}
	return notifications, nil
}
