package book

import "errors"

// Caller-contract violations. The book treats these as programming errors
// in the event source: fail fast, never apply part of the event.
var (
	ErrUnknownVenue   = errors.New("book: unrecognized venue")
	ErrUnknownSide    = errors.New("book: unrecognized side")
	ErrDuplicateOrder = errors.New("book: order id already resting")
	ErrUnknownOrder   = errors.New("book: unknown order id")
	ErrSameOrderID    = errors.New("book: replace new id must differ from original")
	ErrNonPositiveQty = errors.New("book: quantity must be positive")
)
