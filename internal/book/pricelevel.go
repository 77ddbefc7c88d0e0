package book

import (
	"sort"

	"lobd/internal/venue"
)

// PriceLevel holds, for one (side, tick), the resting quantity broken down
// by venue and the running aggregate across venues.
//
// Invariant: aggQty == sum(venueQty). A level whose aggQty reaches zero is
// removed by the owning OrderBook before the mutating event returns; a
// PriceLevel is never observed by a caller in a zero-aggregate state.
type PriceLevel struct {
	venueQty [venue.Count]int64
	aggQty   int64
}

// newPriceLevel returns a freshly zeroed level.
func newPriceLevel() *PriceLevel {
	return &PriceLevel{}
}

// Adjust applies a signed delta to one venue's resting quantity and to the
// aggregate, returning the aggregate delta actually applied.
//
// vid is not bounds-checked; callers hold only IDs returned by venue.Lookup.
// A positive delta is applied as given. A negative delta whose magnitude
// exceeds venueQty[vid] is floored so the venue's quantity stops at zero,
// on cancel and execute alike; the returned value is the decrement actually
// applied. By the order-map invariant the caller's decrement (on execute,
// already clamped to the order's remaining quantity) never exceeds
// venueQty[vid], so the floor only matters if that invariant is broken
// upstream, and a negative venue quantity is never observable.
func (l *PriceLevel) Adjust(vid venue.ID, delta int64) int64 {
	if delta < 0 && -delta > l.venueQty[vid] {
		delta = -l.venueQty[vid]
	}
	l.venueQty[vid] += delta
	l.aggQty += delta
	return delta
}

// AggQty returns the level's current aggregate quantity across all venues.
func (l *PriceLevel) AggQty() int64 {
	return l.aggQty
}

// VenueQty returns the resting quantity at a single venue.
func (l *PriceLevel) VenueQty(vid venue.ID) int64 {
	return l.venueQty[vid]
}

// SnapshotByVenue returns the alphabetically-sorted names of venues with
// nonzero resting quantity at this level, plus the full per-venue view.
// Used when building notification payloads: for the displaced level of an
// NBBO improvement and for the executed level of an execution.
func (l *PriceLevel) SnapshotByVenue() ([]string, [venue.Count]int64) {
	active := make([]string, 0, venue.Count)
	for i, q := range l.venueQty {
		if q > 0 {
			active = append(active, venue.ID(i).Name())
		}
	}
	sort.Strings(active)
	return active, l.venueQty
}
