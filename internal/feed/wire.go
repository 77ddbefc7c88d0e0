// Package feed normalizes market-data events from an external venue
// aggregator into the book.Event types OrderBook.OnBatch consumes.
//
// Two independent sources feed the same symbol: an initial REST snapshot
// (SnapshotLoader) that seeds a freshly constructed book, and a continuous
// incremental websocket stream (Stream) that reports adds/cancels/
// replaces/executes as they happen. Both are collaborators in the sense of
// spec §1 — "the event-source is assumed to deliver already-normalized
// events with a monotonic arrival order per order-id" — this package is
// where that normalization happens, outside the core.
package feed

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lobd/internal/book"
)

// WireLevel is a single resting order as reported by the venue aggregator.
// Price/Qty arrive as strings over the wire to preserve decimal precision;
// parsePriceQty parses them as decimal.Decimal and then narrows them to the
// float64 price and int64 quantity that book.AddEvent carries.
type WireLevel struct {
	OID   string `json:"oid"`
	Venue string `json:"venue"`
	Price string `json:"price"`
	Qty   string `json:"qty"`
}

// parsePriceQty decodes a wire level's price and quantity as exact
// decimals and narrows them to the types book.AddEvent expects.
func parsePriceQty(lvl WireLevel) (price float64, qty int64, err error) {
	p, err := decimal.NewFromString(lvl.Price)
	if err != nil {
		return 0, 0, fmt.Errorf("parse price %q: %w", lvl.Price, err)
	}
	q, err := decimal.NewFromString(lvl.Qty)
	if err != nil {
		return 0, 0, fmt.Errorf("parse qty %q: %w", lvl.Qty, err)
	}
	qtyInt := q.IntPart()
	if qtyInt <= 0 {
		return 0, 0, fmt.Errorf("non-positive qty %q for order %s", lvl.Qty, lvl.OID)
	}
	f, _ := p.Float64()
	return f, qtyInt, nil
}

// WireEvent is the incremental message shape on the streaming feed. Exactly
// one of the typed fields is populated per event_type.
type WireEvent struct {
	EventType string `json:"event_type"` // "add", "cancel", "replace", "execute"

	Add     *wireAdd     `json:"add,omitempty"`
	Cancel  *wireCancel  `json:"cancel,omitempty"`
	Replace *wireReplace `json:"replace,omitempty"`
	Execute *wireExecute `json:"execute,omitempty"`
}

type wireAdd struct {
	WireLevel
	Side string `json:"side"`
}

type wireCancel struct {
	OID string `json:"oid"`
}

type wireReplace struct {
	WireLevel        // OID here is the order being replaced
	NewOID    string `json:"new_oid"`
	Side      string `json:"side"`
}

type wireExecute struct {
	OID     string `json:"oid"`
	ExecQty string `json:"exec_qty"`
}

func parseSide(s string) (book.Side, error) {
	switch s {
	case "BID", "BUY":
		return book.Bid, nil
	case "ASK", "SELL":
		return book.Ask, nil
	default:
		return 0, fmt.Errorf("side %q: %w", s, book.ErrUnknownSide)
	}
}

// ToEvent converts one decoded wire message into the book.Event the
// batching driver queues. Returns an error for a malformed or
// unrecognized message; callers are expected to log and skip rather than
// treat this as a caller-contract violation inside the core.
func ToEvent(w WireEvent) (book.Event, error) {
	switch w.EventType {
	case "add":
		if w.Add == nil {
			return nil, fmt.Errorf("add event missing payload")
		}
		side, err := parseSide(w.Add.Side)
		if err != nil {
			return nil, err
		}
		price, qty, err := parsePriceQty(w.Add.WireLevel)
		if err != nil {
			return nil, err
		}
		return book.AddEvent{
			OID:   book.OrderID(w.Add.OID),
			Venue: w.Add.Venue,
			Side:  side,
			Price: price,
			Qty:   qty,
		}, nil

	case "cancel":
		if w.Cancel == nil {
			return nil, fmt.Errorf("cancel event missing payload")
		}
		return book.CancelEvent{OID: book.OrderID(w.Cancel.OID)}, nil

	case "replace":
		if w.Replace == nil {
			return nil, fmt.Errorf("replace event missing payload")
		}
		side, err := parseSide(w.Replace.Side)
		if err != nil {
			return nil, err
		}
		price, qty, err := parsePriceQty(w.Replace.WireLevel)
		if err != nil {
			return nil, err
		}
		return book.ReplaceEvent{
			NewOID:  book.OrderID(w.Replace.NewOID),
			OrigOID: book.OrderID(w.Replace.OID),
			Venue:   w.Replace.Venue,
			Side:    side,
			Price:   price,
			Qty:     qty,
		}, nil

	case "execute":
		if w.Execute == nil {
			return nil, fmt.Errorf("execute event missing payload")
		}
		qty, err := decimal.NewFromString(w.Execute.ExecQty)
		if err != nil {
			return nil, fmt.Errorf("parse exec_qty %q: %w", w.Execute.ExecQty, err)
		}
		return book.ExecuteEvent{OID: book.OrderID(w.Execute.OID), ExecQty: qty.IntPart()}, nil

	default:
		return nil, fmt.Errorf("unrecognized event_type %q", w.EventType)
	}
}
