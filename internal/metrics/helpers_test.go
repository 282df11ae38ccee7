//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/salemart/salemart/internal/warehouse"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// purchase builds a clean purchase line: no discount, refund, or tax.
func purchase(buyer, txn int64, item string, day time.Time, qty int64, revenue float64) warehouse.RawRecord {
	return warehouse.RawRecord{
		ItemID:         hash(item),
		ItemName:       "Item " + item,
		ItemCode:       item,
		BuyerID:        buyer,
		TransactionID:  txn,
		Date:           day,
		PurchasedCount: qty,
		FinalQuantity:  qty,
		TotalRevenue:   revenue,
		FinalRevenue:   revenue,
		OverallRevenue: revenue,
	}
}

// discounted builds a purchase line carrying a (negative) discount.
func discounted(buyer, txn int64, item string, day time.Time, qty int64, revenue, discount float64) warehouse.RawRecord {
	rec := purchase(buyer, txn, item, day, qty, revenue)
	rec.PriceReductions = discount
	rec.FinalRevenue = revenue + discount
	rec.OverallRevenue = rec.FinalRevenue
	return rec
}

// refund builds a refund line for qty units and the given amount.
func refund(buyer, txn int64, item string, day time.Time, qty int64, amount float64) warehouse.RawRecord {
	return warehouse.RawRecord{
		ItemID:         hash(item),
		ItemName:       "Item " + item,
		ItemCode:       item,
		BuyerID:        buyer,
		TransactionID:  txn,
		Date:           day,
		RefundedCount:  -qty,
		FinalQuantity:  -qty,
		Refunds:        -amount,
		FinalRevenue:   -amount,
		OverallRevenue: -amount,
	}
}

func withCategory(rec warehouse.RawRecord, category string) warehouse.RawRecord {
	rec.Category = &category
	return rec
}

func hash(s string) int64 {
	var h int64
	for _, c := range s {
		h = h*31 + int64(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}

// loadFacts runs records through the loader into a memory store and
// returns the resulting snapshot.
func loadFacts(t *testing.T, records []warehouse.RawRecord) *warehouse.Snapshot {
	t.Helper()

	store := warehouse.NewMemoryStore()
	loader := warehouse.NewLoader(store)
	report, err := loader.Load(context.Background(), records)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if report.Rejected > 0 {
		t.Fatalf("Test fixture records were rejected: %v", report.Rejections)
	}

	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	return snap
}

// emptySnapshot returns a snapshot with no dimensions or facts.
func emptySnapshot() *warehouse.Snapshot {
	return &warehouse.Snapshot{}
}
