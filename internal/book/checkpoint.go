package book

// OrderRecord is one resting order as captured by a checkpoint. It carries
// enough information to recreate the order via OnAdd; levels and the
// best-price cursor are rebuilt as a side effect of replaying records, so
// they never need to be serialized directly.
type OrderRecord struct {
	OID   OrderID
	Venue string
	Side  Side
	Price float64
	Qty   int64
}

// Checkpoint captures every resting order in the book. Replaying the
// records through Restore (on a freshly constructed OrderBook of the same
// tick size) reproduces the same levels and best-price cursors, because
// both are pure functions of the set of resting orders.
func (b *OrderBook) Checkpoint() []OrderRecord {
	records := make([]OrderRecord, 0, len(b.orders))
	for oid, entry := range b.orders {
		records = append(records, OrderRecord{
			OID:   oid,
			Venue: entry.venueID.Name(),
			Side:  entry.side,
			Price: b.codec.ToPrice(entry.idx),
			Qty:   entry.remaining,
		})
	}
	return records
}

// Restore replays records into b via OnAdd, in slice order. Intended for a
// freshly constructed, empty OrderBook; restoring into a non-empty book
// risks ErrDuplicateOrder if any ids collide.
func (b *OrderBook) Restore(records []OrderRecord) error {
	for _, r := range records {
		if _, err := b.OnAdd(r.OID, r.Venue, r.Side, r.Price, r.Qty); err != nil {
			return err
		}
	}
	return nil
}
