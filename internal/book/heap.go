package book

// tickHeap is a container/heap.Interface over tick indices that lie outside
// a DenseWindowSide's dense window. isBid selects max-heap (best = highest
// tick) or min-heap (best = lowest tick) ordering, the same polarity as
// Side.better.
//
// Lazy deletion: DenseWindowSide marks out-of-window cancels in its own
// tombstone set instead of calling heap.Remove, which would require
// tracking each tick's heap index. The top is popped and discarded here
// only when DecLevel walks past tombstones looking for a live tick.
type tickHeap struct {
	ticks []int64
	isBid bool
}

func (h *tickHeap) Len() int { return len(h.ticks) }

func (h *tickHeap) Less(i, j int) bool {
	if h.isBid {
		return h.ticks[i] > h.ticks[j]
	}
	return h.ticks[i] < h.ticks[j]
}

func (h *tickHeap) Swap(i, j int) { h.ticks[i], h.ticks[j] = h.ticks[j], h.ticks[i] }

func (h *tickHeap) Push(x interface{}) {
	h.ticks = append(h.ticks, x.(int64))
}

func (h *tickHeap) Pop() interface{} {
	old := h.ticks
	n := len(old)
	x := old[n-1]
	h.ticks = old[:n-1]
	return x
}

// Peek returns the top of the heap without removing it. Only valid when
// Len() > 0.
func (h *tickHeap) Peek() int64 {
	return h.ticks[0]
}
