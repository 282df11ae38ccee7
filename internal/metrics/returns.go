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

// ItemMonthReturnRow is the return-rate breakdown for one item in one
// calendar month.
type ItemMonthReturnRow struct {
	ItemKey      int64
	ItemCode     string
	Month        time.Time
	PurchasedQty int64
	RefundedQty  int64

	// ReturnRate is RefundedQty / PurchasedQty, nil when nothing was
	// purchased that month.
	ReturnRate *float64
}

// CategoryMonthReturnRow is the same breakdown grouped by item category.
// Facts whose item has no category are excluded.
type CategoryMonthReturnRow struct {
	Category     string
	Month        time.Time
	PurchasedQty int64
	RefundedQty  int64
	ReturnRate   *float64
}

// ItemReturnRow is an item's all-time return rate, independent of the
// monthly breakdown.
type ItemReturnRow struct {
	ItemKey      int64
	ItemCode     string
	PurchasedQty int64
	RefundedQty  int64
	ReturnRate   *float64
}

type qty struct {
	purchased int64
	refunded  int64
}

func (q qty) rate() *float64 {
	if q.purchased == 0 {
		return nil
	}
	r := float64(q.refunded) / float64(q.purchased)
	return &r
}

// ItemMonthReturns computes return rates by (item, month).
func ItemMonthReturns(snap *warehouse.Snapshot, asOf time.Time) []ItemMonthReturnRow {
	items := snap.ItemsByKey()

	type cell struct {
		item  int64
		month time.Time
	}
	agg := make(map[cell]*qty)
	for _, f := range factsThrough(snap, asOf) {
		c := cell{item: f.ItemKey, month: monthOf(f.Date)}
		q := agg[c]
		if q == nil {
			q = &qty{}
			agg[c] = q
		}
		q.purchased += f.PurchasedCount
		q.refunded += -f.RefundedCount
	}

	rows := make([]ItemMonthReturnRow, 0, len(agg))
	for c, q := range agg {
		rows = append(rows, ItemMonthReturnRow{
			ItemKey:      c.item,
			ItemCode:     items[c.item].ItemCode,
			Month:        c.month,
			PurchasedQty: q.purchased,
			RefundedQty:  q.refunded,
			ReturnRate:   q.rate(),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ItemKey != rows[j].ItemKey {
			return rows[i].ItemKey < rows[j].ItemKey
		}
		return rows[i].Month.Before(rows[j].Month)
	})
	return rows
}

// CategoryMonthReturns computes return rates by (category, month).
func CategoryMonthReturns(snap *warehouse.Snapshot, asOf time.Time) []CategoryMonthReturnRow {
	items := snap.ItemsByKey()

	type cell struct {
		category string
		month    time.Time
	}
	agg := make(map[cell]*qty)
	for _, f := range factsThrough(snap, asOf) {
		item, ok := items[f.ItemKey]
		if !ok || item.Category == nil {
			continue
		}
		c := cell{category: *item.Category, month: monthOf(f.Date)}
		q := agg[c]
		if q == nil {
			q = &qty{}
			agg[c] = q
		}
		q.purchased += f.PurchasedCount
		q.refunded += -f.RefundedCount
	}

	rows := make([]CategoryMonthReturnRow, 0, len(agg))
	for c, q := range agg {
		rows = append(rows, CategoryMonthReturnRow{
			Category:     c.category,
			Month:        c.month,
			PurchasedQty: q.purchased,
			RefundedQty:  q.refunded,
			ReturnRate:   q.rate(),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Category != rows[j].Category {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].Month.Before(rows[j].Month)
	})
	return rows
}

// ItemReturns computes each item's all-time return rate.
func ItemReturns(snap *warehouse.Snapshot, asOf time.Time) []ItemReturnRow {
	agg := make(map[int64]*qty)
	for _, f := range factsThrough(snap, asOf) {
		q := agg[f.ItemKey]
		if q == nil {
			q = &qty{}
			agg[f.ItemKey] = q
		}
		q.purchased += f.PurchasedCount
		q.refunded += -f.RefundedCount
	}

	rows := make([]ItemReturnRow, 0, len(snap.Items))
	for _, item := range snap.Items {
		row := ItemReturnRow{ItemKey: item.Key, ItemCode: item.ItemCode}
		if q := agg[item.Key]; q != nil {
			row.PurchasedQty = q.purchased
			row.RefundedQty = q.refunded
			row.ReturnRate = q.rate()
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ItemKey < rows[j].ItemKey })
	return rows
}
