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

// DailySalesRow is one calendar date of the sales rollup. Every date in
// the calendar dimension appears, zero-filled when no facts exist, so
// downstream rolling windows are never silently gapped.
type DailySalesRow struct {
	Date        time.Time
	Revenue     float64
	Orders      int
	PromoOrders int

	// Rolling7 is the inclusive revenue sum over the trailing 7
	// calendar days ending at Date; Prior7 is the same window shifted
	// back 7 days. Both are recomputed per date, not maintained
	// incrementally.
	Rolling7 float64
	Prior7   float64
}

// DailySales rolls the fact set up by calendar date through the as-of
// date.
func DailySales(snap *warehouse.Snapshot, asOf time.Time) []DailySalesRow {
	cut := warehouse.Midnight(asOf)

	revenue := make(map[time.Time]float64)
	orders := make(map[time.Time]map[int64]bool)
	promos := make(map[time.Time]map[int64]bool)
	for _, f := range factsThrough(snap, asOf) {
		revenue[f.Date] += f.OverallRevenue
		if orders[f.Date] == nil {
			orders[f.Date] = make(map[int64]bool)
		}
		orders[f.Date][f.TransactionID] = true
		if f.Promo() {
			if promos[f.Date] == nil {
				promos[f.Date] = make(map[int64]bool)
			}
			promos[f.Date][f.TransactionID] = true
		}
	}

	calendar := make([]time.Time, 0, len(snap.Dates))
	for _, d := range snap.Dates {
		if d.FullDate.After(cut) {
			continue
		}
		calendar = append(calendar, d.FullDate)
	}
	sort.Slice(calendar, func(i, j int) bool { return calendar[i].Before(calendar[j]) })

	rows := make([]DailySalesRow, 0, len(calendar))
	for _, date := range calendar {
		row := DailySalesRow{
			Date:        date,
			Revenue:     revenue[date],
			Orders:      len(orders[date]),
			PromoOrders: len(promos[date]),
		}
		for back := 0; back < 7; back++ {
			row.Rolling7 += revenue[date.AddDate(0, 0, -back)]
			row.Prior7 += revenue[date.AddDate(0, 0, -back-7)]
		}
		rows = append(rows, row)
	}
	return rows
}
