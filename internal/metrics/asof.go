//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package metrics computes the derived business metrics of the sales
// warehouse. Every module is a pure function of a warehouse snapshot and
// an explicit as-of date; an empty fact set yields empty or null-valued
// results, never an error.
package metrics

import (
	"time"

	"github.com/salemart/salemart/internal/warehouse"
)

// AsOf returns the maximum calendar date present across all fact rows.
// The second return value is false when there are no facts; callers then
// either skip computation or supply their own as-of date.
func AsOf(snap *warehouse.Snapshot) (time.Time, bool) {
	dates := snap.DatesByKey()
	var maxDate time.Time
	found := false
	for _, f := range snap.Facts {
		d, ok := dates[f.DateKey]
		if !ok {
			continue
		}
		if !found || d.FullDate.After(maxDate) {
			maxDate = d.FullDate
			found = true
		}
	}
	return maxDate, found
}

// factsThrough returns the facts dated on or before asOf, paired with
// their calendar dates. Facts after the as-of date are invisible to
// every metric module so that computations stay reproducible under an
// injected as-of date.
func factsThrough(snap *warehouse.Snapshot, asOf time.Time) []datedFact {
	dates := snap.DatesByKey()
	cut := warehouse.Midnight(asOf)
	out := make([]datedFact, 0, len(snap.Facts))
	for _, f := range snap.Facts {
		d, ok := dates[f.DateKey]
		if !ok {
			continue
		}
		if d.FullDate.After(cut) {
			continue
		}
		out = append(out, datedFact{FactSale: f, Date: d.FullDate})
	}
	return out
}

// datedFact is a fact row joined to its calendar date.
type datedFact struct {
	warehouse.FactSale
	Date time.Time
}

// monthOf truncates a date to the first day of its calendar month.
func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthOffset returns the whole-month distance from a to b.
func monthOffset(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
