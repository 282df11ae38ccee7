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

// CohortRow is one cell of the retention matrix: buyers whose first
// purchase fell in CohortMonth who were active again MonthOffset whole
// months later.
type CohortRow struct {
	CohortMonth  time.Time
	MonthOffset  int
	ActiveBuyers int
	CohortSize   int

	// RetentionRate is ActiveBuyers / CohortSize, nil when the cohort
	// is empty. An empty realized cohort cannot occur, but a zero
	// denominator must never crash the computation.
	RetentionRate *float64
}

// Retention aligns buyer activity by calendar-month offset from each
// buyer's first purchase month.
func Retention(snap *warehouse.Snapshot, asOf time.Time) []CohortRow {
	facts := factsThrough(snap, asOf)

	// First purchase month per buyer defines the cohort.
	firstSeen := make(map[int64]time.Time)
	for _, f := range facts {
		m := monthOf(f.Date)
		if cur, ok := firstSeen[f.BuyerKey]; !ok || m.Before(cur) {
			firstSeen[f.BuyerKey] = m
		}
	}

	type cell struct {
		cohort time.Time
		offset int
	}
	active := make(map[cell]map[int64]bool)
	sizes := make(map[time.Time]int)
	for _, cohort := range firstSeen {
		sizes[cohort]++
	}
	for _, f := range facts {
		cohort := firstSeen[f.BuyerKey]
		offset := monthOffset(cohort, monthOf(f.Date))
		c := cell{cohort: cohort, offset: offset}
		if active[c] == nil {
			active[c] = make(map[int64]bool)
		}
		active[c][f.BuyerKey] = true
	}

	rows := make([]CohortRow, 0, len(active))
	for c, buyers := range active {
		row := CohortRow{
			CohortMonth:  c.cohort,
			MonthOffset:  c.offset,
			ActiveBuyers: len(buyers),
			CohortSize:   sizes[c.cohort],
		}
		if row.CohortSize > 0 {
			rate := float64(row.ActiveBuyers) / float64(row.CohortSize)
			row.RetentionRate = &rate
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CohortMonth.Equal(rows[j].CohortMonth) {
			return rows[i].CohortMonth.Before(rows[j].CohortMonth)
		}
		return rows[i].MonthOffset < rows[j].MonthOffset
	})
	return rows
}
