// Package venue defines the fixed, ordered enumeration of exchange venues
// known to the book at build time. A venue is addressed by its small
// integer ID everywhere else in the module; this package is the only
// place name↔ID translation happens.
package venue

import "fmt"

// ID addresses a venue by its position in the fixed enumeration.
type ID int

// names is the canonical, ordered venue table. Index is the venue's ID.
var names = [...]string{
	"CBOE", "ISE", "BOX", "MIAX", "ARCA", "PHLX", "GEM", "EDGX",
	"BAT", "MRX", "BZX", "NDQ", "C2", "AMEX",
}

// Count is the number of recognized venues.
const Count = len(names)

var byName map[string]ID

func init() {
	byName = make(map[string]ID, Count)
	for i, n := range names {
		byName[n] = ID(i)
	}
}

// Name returns the venue's canonical name. Panics if id is out of range;
// callers in the hot path are expected to hold only IDs returned by Lookup.
func (id ID) Name() string {
	return names[id]
}

// Lookup resolves a venue name to its ID. The second return is false for
// any name outside the fixed 14-venue table.
func Lookup(name string) (ID, bool) {
	id, ok := byName[name]
	return id, ok
}

// MustLookup is a convenience for tests and call sites that have already
// validated the name; it panics on an unrecognized venue.
func MustLookup(name string) ID {
	id, ok := Lookup(name)
	if !ok {
		panic(fmt.Sprintf("venue: unrecognized name %q", name))
	}
	return id
}

// All returns the venue table in ID order.
func All() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}
