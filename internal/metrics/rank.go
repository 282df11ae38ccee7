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
	"math"
	"sort"
	"time"

	"github.com/salemart/salemart/internal/warehouse"
)

// ItemPerformanceRow is an item's lifetime performance with its revenue
// ranks. Revenue here is gross revenue before discounts and refunds.
type ItemPerformanceRow struct {
	ItemKey      int64
	ItemCode     string
	ItemName     string
	Category     *string
	TotalRevenue float64
	NetQuantity  int64
	RefundedQty  int64

	// DiscountAmount is the summed (non-positive) price reductions.
	DiscountAmount float64

	// DiscountShare is |DiscountAmount| / TotalRevenue, defined as 0
	// (not null) when TotalRevenue is 0.
	DiscountShare float64

	// RevenueRank uses standard competition ranking over all items:
	// tied revenues share a rank and the next distinct revenue takes
	// its positional rank, so [100, 100, 80] ranks [1, 1, 3].
	RevenueRank int

	// CategoryRank applies the same ranking within the item's
	// category; items without a category form their own partition.
	CategoryRank int
}

// ItemPerformance computes lifetime totals and revenue ranks for every
// item in the dimension.
func ItemPerformance(snap *warehouse.Snapshot, asOf time.Time) []ItemPerformanceRow {
	type acc struct {
		revenue  float64
		net      int64
		refunded int64
		discount float64
	}
	accs := make(map[int64]*acc)
	for _, f := range factsThrough(snap, asOf) {
		a := accs[f.ItemKey]
		if a == nil {
			a = &acc{}
			accs[f.ItemKey] = a
		}
		a.revenue += f.TotalRevenue
		a.net += f.FinalQuantity
		a.refunded += -f.RefundedCount
		a.discount += f.PriceReductions
	}

	rows := make([]ItemPerformanceRow, 0, len(snap.Items))
	for _, item := range snap.Items {
		row := ItemPerformanceRow{
			ItemKey:  item.Key,
			ItemCode: item.ItemCode,
			ItemName: item.ItemName,
			Category: item.Category,
		}
		if a := accs[item.Key]; a != nil {
			row.TotalRevenue = a.revenue
			row.NetQuantity = a.net
			row.RefundedQty = a.refunded
			row.DiscountAmount = a.discount
			if a.revenue != 0 {
				row.DiscountShare = math.Abs(a.discount) / a.revenue
			}
		}
		rows = append(rows, row)
	}

	// Rank over all items, then within each category partition.
	rankBy(rows, func(i int) bool { return true }, func(i, rank int) {
		rows[i].RevenueRank = rank
	})
	for _, part := range categoryPartitions(rows) {
		rankBy(rows, part.contains, func(i, rank int) {
			rows[i].CategoryRank = rank
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].ItemKey < rows[j].ItemKey })
	return rows
}

type partition struct {
	members map[int]bool
}

func (p partition) contains(i int) bool { return p.members[i] }

// categoryPartitions groups row indexes by category, with nil-category
// items forming a single partition of their own.
func categoryPartitions(rows []ItemPerformanceRow) []partition {
	byCat := make(map[string]*partition)
	order := make([]*partition, 0)
	for i, row := range rows {
		key := "\x00"
		if row.Category != nil {
			key = *row.Category
		}
		p := byCat[key]
		if p == nil {
			p = &partition{members: make(map[int]bool)}
			byCat[key] = p
			order = append(order, p)
		}
		p.members[i] = true
	}
	parts := make([]partition, len(order))
	for i, p := range order {
		parts[i] = *p
	}
	return parts
}

// rankBy assigns standard competition ranks by descending revenue to the
// row indexes selected by the filter.
func rankBy(rows []ItemPerformanceRow, include func(int) bool, assign func(i, rank int)) {
	idx := make([]int, 0, len(rows))
	for i := range rows {
		if include(i) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rows[idx[a]].TotalRevenue > rows[idx[b]].TotalRevenue
	})

	prevRank := 0
	for pos, i := range idx {
		rank := pos + 1
		if pos > 0 && rows[i].TotalRevenue == rows[idx[pos-1]].TotalRevenue {
			rank = prevRank
		}
		prevRank = rank
		assign(i, rank)
	}
}
