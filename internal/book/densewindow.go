package book

import "container/heap"

// Window is the width of the dense occupancy bitmap: 1001 ticks, i.e.
// ±500 ticks (±$5 at the canonical 1¢ tick size) around the first tick
// ever touched on a side.
const Window = 1001

// HalfWindow is the offset from the first-touched tick to the window's
// left edge.
const HalfWindow = Window / 2

// DenseWindowSide maintains the best occupied tick on one side of the book
// via a dense bitmap window plus a secondary heap for ticks that fall
// outside it.
//
// The window origin is pinned at construction — at the first tick ever
// added on this side, minus HalfWindow — and never relocated. Re-centering
// would mean copying a 1001-entry bitmap on every drift; pinning trades a
// (rare, bounded) heap fallback for that cost. See spec §4.3/§9.
//
// best is nil when the side currently holds no live tick, unifying the two
// cases the source distinguishes with typed sentinels (-1 for an empty BID,
// +Inf for an empty ASK, and a separate "initial" value to suppress the
// first level's notification): both collapse to "no prior best to report"
// here, which also resolves the negative-tick/sentinel-collision ambiguity
// spec §9 flags for the -1 encoding.
type DenseWindowSide struct {
	side Side

	win0  int64
	flags [Window]bool

	best *int64

	heap *tickHeap
	tomb map[int64]struct{}
}

// NewDenseWindowSide creates a side cursor pinned at firstIdx - HalfWindow.
// Called exactly once, on the first add on a side.
func NewDenseWindowSide(side Side, firstIdx int64) *DenseWindowSide {
	d := &DenseWindowSide{
		side: side,
		win0: firstIdx - HalfWindow,
		heap: &tickHeap{isBid: side == Bid},
		tomb: make(map[int64]struct{}),
	}
	heap.Init(d.heap)
	return d
}

func (d *DenseWindowSide) inWindow(idx int64) (int64, bool) {
	rel := idx - d.win0
	if rel < 0 || rel >= Window {
		return 0, false
	}
	return rel, true
}

// IncLevel marks idx occupied. Precondition: idx transitions from
// unoccupied to occupied. Returns the previous best tick and true if this
// insertion improved the best, else (0, false) — including the case where
// this is the very first occupied tick on the side.
func (d *DenseWindowSide) IncLevel(idx int64) (int64, bool) {
	if rel, ok := d.inWindow(idx); ok {
		d.flags[rel] = true
	} else {
		heap.Push(d.heap, idx)
	}

	if d.best != nil && !d.side.better(idx, *d.best) {
		return 0, false
	}

	prev := d.best
	newBest := idx
	d.best = &newBest
	if prev == nil {
		return 0, false
	}
	return *prev, true
}

// DecLevel clears idx's occupancy. Precondition: idx transitions from
// occupied to unoccupied (its PriceLevel's aggregate just reached zero).
func (d *DenseWindowSide) DecLevel(idx int64) {
	rel, inWin := d.inWindow(idx)
	if inWin {
		d.flags[rel] = false
	} else {
		d.tomb[idx] = struct{}{}
	}

	if d.best == nil || *d.best != idx {
		return
	}

	if inWin {
		if tick, found := d.scanFrom(rel); found {
			d.best = &tick
			return
		}
	}

	d.drainTombstones()
	if d.heap.Len() > 0 {
		tick := d.heap.Peek()
		d.best = &tick
		return
	}

	// Defensive full rescan: the removed best may have been outside the
	// window while the window nevertheless holds the new best, or the
	// window scan above simply found nothing and the heap was already
	// empty. See spec §4.3 step 3 and §9.
	if tick, found := d.scanAll(); found {
		d.best = &tick
		return
	}
	d.best = nil
}

// drainTombstones pops lazily-deleted entries off the top of the heap
// until it is empty or its top is live.
func (d *DenseWindowSide) drainTombstones() {
	for d.heap.Len() > 0 {
		top := d.heap.Peek()
		if _, dead := d.tomb[top]; !dead {
			return
		}
		heap.Pop(d.heap)
		delete(d.tomb, top)
	}
}

// scanFrom scans the window one step past rel in the side-appropriate
// direction (downward for Bid, upward for Ask) for the first occupied
// flag.
func (d *DenseWindowSide) scanFrom(rel int64) (int64, bool) {
	if d.side == Bid {
		for r := rel - 1; r >= 0; r-- {
			if d.flags[r] {
				return d.win0 + r, true
			}
		}
		return 0, false
	}
	for r := rel + 1; r < Window; r++ {
		if d.flags[r] {
			return d.win0 + r, true
		}
	}
	return 0, false
}

// scanAll performs a full in-window scan in the side-appropriate direction.
func (d *DenseWindowSide) scanAll() (int64, bool) {
	if d.side == Bid {
		for r := int64(Window - 1); r >= 0; r-- {
			if d.flags[r] {
				return d.win0 + r, true
			}
		}
		return 0, false
	}
	for r := int64(0); r < Window; r++ {
		if d.flags[r] {
			return d.win0 + r, true
		}
	}
	return 0, false
}

// BestTick returns the current best tick on this side, if any.
func (d *DenseWindowSide) BestTick() (int64, bool) {
	if d.best == nil {
		return 0, false
	}
	return *d.best, true
}
