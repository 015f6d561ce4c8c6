package scoring

import (
	"time"
)

// Row is a stored submission row as seen by the deduplicator.
type Row interface {
	RowID() uint
	Owner() *uint
	LastTouched() time.Time
}

// Reduction is the logical-submission view over a set of raw rows.
type Reduction[K comparable, T Row] struct {
	// Latest holds the authoritative row per key.
	Latest map[K]T
	// Superseded holds every other row with an owner, in input order.
	Superseded []T
	// Dropped counts rows without an owner.
	Dropped int
}

// LatestByUser keeps the most recently touched row per user.
func LatestByUser[T Row](rows []T) Reduction[uint, T] {
	return LatestBy(rows, func(r T) uint { return *r.Owner() })
}

// LatestBy keeps the most recently touched row per key. Ties on the timestamp
// go to the higher row id. Rows without an owner are dropped silently; key is
// only called for rows with an owner.
func LatestBy[K comparable, T Row](rows []T, key func(T) K) Reduction[K, T] {
	red := Reduction[K, T]{Latest: make(map[K]T)}

	for _, row := range rows {
		if row.Owner() == nil {
			red.Dropped++
			continue
		}
		k := key(row)
		current, ok := red.Latest[k]
		if !ok || newer(row, current) {
			red.Latest[k] = row
		}
	}

	for _, row := range rows {
		if row.Owner() == nil {
			continue
		}
		if red.Latest[key(row)].RowID() != row.RowID() {
			red.Superseded = append(red.Superseded, row)
		}
	}

	return red
}

func newer(a, b Row) bool {
	at, bt := a.LastTouched(), b.LastTouched()
	if at.Equal(bt) {
		return a.RowID() > b.RowID()
	}
	return at.After(bt)
}
