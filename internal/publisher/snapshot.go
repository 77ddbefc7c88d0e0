package publisher

import (
	"time"

	"lobd/internal/batch"
	"lobd/internal/book"
)

// Snapshot is the JSON shape returned by GET /snapshot.
type Snapshot struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	BestBid   *float64  `json:"best_bid,omitempty"`
	BestAsk   *float64  `json:"best_ask,omitempty"`
	BidLevels int       `json:"bid_levels"`
	AskLevels int       `json:"ask_levels"`
}

// BuildSnapshot reads the current best-bid/best-ask and per-side level
// count through d, which synchronizes the read with any batch application
// the driver's Run loop has in flight. Safe to call from any goroutine.
func BuildSnapshot(symbol string, d *batch.Driver) Snapshot {
	snap := Snapshot{
		Symbol:    symbol,
		Timestamp: time.Now(),
		BidLevels: d.LevelCount(book.Bid),
		AskLevels: d.LevelCount(book.Ask),
	}
	if bid, ok := d.BestBid(); ok {
		snap.BestBid = &bid
	}
	if ask, ok := d.BestAsk(); ok {
		snap.BestAsk = &ask
	}
	return snap
}
