//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package metrics

import (
	"sort"
	"time"

	"github.com/salemart/salemart/internal/warehouse"
)

// ActiveWindowDays is the inactivity window used for the "active"
// classification: a buyer whose last purchase is within this many days
// of the as-of date (inclusive) is active.
const ActiveWindowDays = 30

// BuyerValueRow is the per-buyer lifetime-value summary. Buyers present
// in the dimension with no fact rows appear with null-valued metrics and
// NeverPurchased set.
type BuyerValueRow struct {
	BuyerKey     int64
	BuyerID      int64
	TotalRevenue float64

	// TotalOrders counts distinct transaction ids; a multi-line order
	// counts once.
	TotalOrders int

	FirstPurchase *time.Time
	LastPurchase  *time.Time

	// AvgOrderValue is nil, not zero, when TotalOrders is zero.
	AvgOrderValue *float64

	// DaysSinceLast is nil when the buyer has no purchases.
	DaysSinceLast *int

	Active         bool
	NeverPurchased bool
}

// BuyerValue computes the lifetime-value summary for every buyer in the
// dimension as of the given date.
func BuyerValue(snap *warehouse.Snapshot, asOf time.Time) []BuyerValueRow {
	cut := warehouse.Midnight(asOf)

	type acc struct {
		revenue float64
		txns    map[int64]bool
		first   time.Time
		last    time.Time
	}
	accs := make(map[int64]*acc)
	for _, f := range factsThrough(snap, asOf) {
		a := accs[f.BuyerKey]
		if a == nil {
			a = &acc{txns: make(map[int64]bool), first: f.Date, last: f.Date}
			accs[f.BuyerKey] = a
		}
		a.revenue += f.OverallRevenue
		a.txns[f.TransactionID] = true
		if f.Date.Before(a.first) {
			a.first = f.Date
		}
		if f.Date.After(a.last) {
			a.last = f.Date
		}
	}

	rows := make([]BuyerValueRow, 0, len(snap.Buyers))
	for _, b := range snap.Buyers {
		row := BuyerValueRow{BuyerKey: b.Key, BuyerID: b.BuyerID}
		a := accs[b.Key]
		if a == nil {
			row.NeverPurchased = true
			rows = append(rows, row)
			continue
		}

		row.TotalRevenue = a.revenue
		row.TotalOrders = len(a.txns)
		first, last := a.first, a.last
		row.FirstPurchase = &first
		row.LastPurchase = &last

		if row.TotalOrders > 0 {
			aov := row.TotalRevenue / float64(row.TotalOrders)
			row.AvgOrderValue = &aov
		}

		days := int(cut.Sub(last).Hours() / 24)
		row.DaysSinceLast = &days
		row.Active = row.TotalOrders >= 1 && days <= ActiveWindowDays

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].BuyerKey < rows[j].BuyerKey })
	return rows
}
