package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"lobd/internal/book"
	"lobd/internal/ratelimit"
)

// snapshotResponse is the REST shape for GET /book/{symbol}: the full set
// of resting orders across venues, side by side.
type snapshotResponse struct {
	Symbol string      `json:"symbol"`
	Bids   []WireLevel `json:"bids"`
	Asks   []WireLevel `json:"asks"`
}

// SnapshotLoader fetches an initial REST snapshot of resting orders for one
// symbol and converts it into a sequence of AddEvents; the caller applies
// them (via batch.Driver.ApplySync) to seed a freshly constructed book.
// Paced against the venue's published rate
// limit with a token bucket, the same pattern the example corpus uses for
// its Gamma API scanner.
type SnapshotLoader struct {
	httpClient *resty.Client
	limiter    *ratelimit.TokenBucket
	logger     *slog.Logger
}

// NewSnapshotLoader builds a loader pointed at baseURL, pacing requests to
// rps (burst capacity burst).
func NewSnapshotLoader(baseURL string, rps, burst float64, logger *slog.Logger) *SnapshotLoader {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &SnapshotLoader{
		httpClient: client,
		limiter:    ratelimit.NewTokenBucket(burst, rps),
		logger:     logger.With("component", "feed-snapshot"),
	}
}

// Load fetches the current resting-order snapshot for symbol and converts
// it into AddEvents ready for OrderBook.OnBatch. Malformed individual
// levels are logged and skipped rather than failing the whole snapshot —
// the core demands well-formed events, but one bad level from an upstream
// aggregator shouldn't block seeding the rest of the book.
func (l *SnapshotLoader) Load(ctx context.Context, symbol string) ([]book.Event, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var resp snapshotResponse
	r, err := l.httpClient.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetResult(&resp).
		Get("/book/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot for %s: %w", symbol, err)
	}
	if r.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch snapshot for %s: status %d", symbol, r.StatusCode())
	}

	events := make([]book.Event, 0, len(resp.Bids)+len(resp.Asks))
	events = append(events, l.convert(book.Bid, resp.Bids)...)
	events = append(events, l.convert(book.Ask, resp.Asks)...)

	l.logger.Info("snapshot loaded", "symbol", symbol, "events", len(events))
	return events, nil
}

func (l *SnapshotLoader) convert(side book.Side, levels []WireLevel) []book.Event {
	out := make([]book.Event, 0, len(levels))
	for _, lvl := range levels {
		price, qty, err := parsePriceQty(lvl)
		if err != nil {
			l.logger.Warn("skipping malformed snapshot level", "error", err, "oid", lvl.OID)
			continue
		}
		out = append(out, book.AddEvent{
			OID:   book.OrderID(lvl.OID),
			Venue: lvl.Venue,
			Side:  side,
			Price: price,
			Qty:   qty,
		})
	}
	return out
}
