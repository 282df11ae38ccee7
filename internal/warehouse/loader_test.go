//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"sync"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

// validRecord returns a record that satisfies every invariant.
func validRecord() RawRecord {
	return RawRecord{
		ItemID:         100,
		ItemName:       "Widget",
		ItemCode:       "SKU-100",
		Version:        "v1",
		BuyerID:        1,
		TransactionID:  5000,
		Date:           day(1),
		PurchasedCount: 2,
		RefundedCount:  0,
		FinalQuantity:  2,
		TotalRevenue:   50,
		FinalRevenue:   50,
		OverallRevenue: 50,
	}
}

func TestValidateInvariants(t *testing.T) {
	loader := NewLoader(NewMemoryStore())

	tests := []struct {
		name      string
		mutate    func(*RawRecord)
		invariant string // empty means the record must pass
	}{
		{
			name:   "valid record",
			mutate: func(r *RawRecord) {},
		},
		{
			name: "negative purchased count",
			mutate: func(r *RawRecord) {
				r.PurchasedCount = -1
				r.FinalQuantity = -1
			},
			invariant: InvariantPurchasedNonneg,
		},
		{
			name: "positive refunded count",
			mutate: func(r *RawRecord) {
				r.RefundedCount = 1
				r.FinalQuantity = 3
			},
			invariant: InvariantRefundedNonpositive,
		},
		{
			name:      "quantity imbalance",
			mutate:    func(r *RawRecord) { r.FinalQuantity = 5 },
			invariant: InvariantQuantityBalance,
		},
		{
			name:      "revenue imbalance",
			mutate:    func(r *RawRecord) { r.FinalRevenue = 40 },
			invariant: InvariantRevenueBalance,
		},
		{
			name: "overall imbalance",
			mutate: func(r *RawRecord) {
				r.OverallRevenue = 55
			},
			invariant: InvariantOverallBalance,
		},
		{
			name: "revenue within tolerance passes",
			mutate: func(r *RawRecord) {
				r.FinalRevenue = 50.015
				r.OverallRevenue = 50.015
			},
		},
		{
			name: "refund line",
			mutate: func(r *RawRecord) {
				r.PurchasedCount = 0
				r.RefundedCount = -1
				r.FinalQuantity = -1
				r.TotalRevenue = 0
				r.Refunds = -25
				r.FinalRevenue = -25
				r.OverallRevenue = -25
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)
			rej := loader.Validate(rec)
			if tt.invariant == "" {
				if rej != nil {
					t.Fatalf("Expected record to pass, got rejection: %v", rej)
				}
				return
			}
			if rej == nil {
				t.Fatalf("Expected rejection for %s, got none", tt.invariant)
			}
			if rej.Invariant != tt.invariant {
				t.Errorf("Invariant = %s, want %s", rej.Invariant, tt.invariant)
			}
			if rej.Detail == "" {
				t.Error("Rejection detail should name the offending values")
			}
		})
	}
}

func TestLoadAcceptsAndRejects(t *testing.T) {
	store := NewMemoryStore()
	loader := NewLoader(store)

	bad := validRecord()
	bad.FinalQuantity = 99

	report, err := loader.Load(context.Background(), []RawRecord{validRecord(), bad, validRecord()})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if report.Accepted != 2 {
		t.Errorf("Accepted = %d, want 2", report.Accepted)
	}
	if report.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", report.Rejected)
	}
	if len(report.Rejections) != 1 {
		t.Fatalf("Rejections = %d, want 1", len(report.Rejections))
	}
	if report.Rejections[0].Line != 2 {
		t.Errorf("Rejection line = %d, want 2", report.Rejections[0].Line)
	}
	if report.Rejections[0].Invariant != InvariantQuantityBalance {
		t.Errorf("Rejection invariant = %s", report.Rejections[0].Invariant)
	}

	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Facts) != 2 {
		t.Errorf("Facts = %d, want 2 (rejected record must not be persisted)", len(snap.Facts))
	}
}

func TestLoadNoDeduplication(t *testing.T) {
	// Multiple lines per transaction id are expected at item-line grain.
	store := NewMemoryStore()
	loader := NewLoader(store)

	a := validRecord()
	b := validRecord()
	b.ItemCode = "SKU-101"
	b.ItemID = 101

	report, err := loader.Load(context.Background(), []RawRecord{a, b})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if report.Accepted != 2 {
		t.Fatalf("Accepted = %d, want 2", report.Accepted)
	}

	snap, _ := store.Snapshot(context.Background())
	if len(snap.Facts) != 2 {
		t.Errorf("Facts = %d, want 2 fact rows for one transaction id", len(snap.Facts))
	}
	if snap.Facts[0].Key == snap.Facts[1].Key {
		t.Error("fact surrogate keys must be assigned fresh per row")
	}
}

func TestLoadMaxErrorRateAborts(t *testing.T) {
	store := NewMemoryStore()
	loader := NewLoader(store)
	loader.MaxErrorRate = 0.25

	bad := validRecord()
	bad.FinalRevenue = 999

	report, err := loader.Load(context.Background(), []RawRecord{validRecord(), bad})
	if err == nil {
		t.Fatal("Expected batch abort when rejection rate exceeds the cap")
	}
	if report == nil || report.Rejected != 1 {
		t.Fatal("Report should still describe the rejections")
	}

	snap, _ := store.Snapshot(context.Background())
	if len(snap.Facts) != 0 {
		t.Errorf("Facts = %d, want 0 (aborted batch must not commit partial state)", len(snap.Facts))
	}
}

func TestLoadDryRun(t *testing.T) {
	store := NewMemoryStore()
	loader := NewLoader(store)
	loader.DryRun = true

	report, err := loader.Load(context.Background(), []RawRecord{validRecord()})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !report.DryRun || report.Accepted != 1 {
		t.Errorf("Dry run report wrong: %+v", report)
	}

	snap, _ := store.Snapshot(context.Background())
	if len(snap.Facts) != 0 || len(snap.Dates) != 0 {
		t.Error("Dry run must not write to the store")
	}
}

func TestLoadEmptyBatch(t *testing.T) {
	loader := NewLoader(NewMemoryStore())
	report, err := loader.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load failed on empty batch: %v", err)
	}
	if report.Accepted != 0 || report.Rejected != 0 {
		t.Errorf("Empty batch report wrong: %+v", report)
	}
	if report.ErrorRate() != 0 {
		t.Errorf("ErrorRate = %v, want 0 for empty batch", report.ErrorRate())
	}
}

func TestLoadFillsCalendarRange(t *testing.T) {
	store := NewMemoryStore()
	loader := NewLoader(store)

	a := validRecord()
	a.Date = day(1)
	b := validRecord()
	b.Date = day(10)
	b.TransactionID = 5001

	if _, err := loader.Load(context.Background(), []RawRecord{a, b}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	snap, _ := store.Snapshot(context.Background())
	if len(snap.Dates) != 10 {
		t.Errorf("Dates = %d, want 10 (calendar filled between min and max)", len(snap.Dates))
	}
}

func TestMemoryStoreResolveIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	k1, err := store.ResolveBuyer(ctx, 42)
	if err != nil {
		t.Fatalf("ResolveBuyer failed: %v", err)
	}
	k2, err := store.ResolveBuyer(ctx, 42)
	if err != nil {
		t.Fatalf("ResolveBuyer failed: %v", err)
	}
	if k1 != k2 {
		t.Errorf("Resolving the same buyer twice gave %d then %d", k1, k2)
	}

	d1, _ := store.ResolveDate(ctx, time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC))
	d2, _ := store.ResolveDate(ctx, time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC))
	if d1 != d2 {
		t.Errorf("Two timestamps on one date resolved to %d and %d", d1, d2)
	}

	i1, _ := store.ResolveItem(ctx, ItemAttrs{ItemCode: "SKU-1", ItemID: 1, ItemName: "A"})
	i2, _ := store.ResolveItem(ctx, ItemAttrs{ItemCode: "SKU-1", ItemID: 1, ItemName: "Renamed"})
	if i1 != i2 {
		t.Errorf("Resolving the same item code twice gave %d then %d", i1, i2)
	}

	snap, _ := store.Snapshot(ctx)
	if len(snap.Buyers) != 1 || len(snap.Dates) != 1 || len(snap.Items) != 1 {
		t.Errorf("Repeated resolution created duplicate rows: %d buyers, %d dates, %d items",
			len(snap.Buyers), len(snap.Dates), len(snap.Items))
	}
	// First-write attribute wins; later attribute variants are ignored.
	if snap.Items[0].ItemName != "A" {
		t.Errorf("ItemName = %s, want first-seen attributes kept", snap.Items[0].ItemName)
	}
}

func TestMemoryStoreConcurrentResolve(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers = 16
	keys := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := store.ResolveBuyer(ctx, 7)
			if err != nil {
				t.Errorf("ResolveBuyer failed: %v", err)
				return
			}
			keys[i] = k
		}(i)
	}
	wg.Wait()

	for _, k := range keys {
		if k != keys[0] {
			t.Fatalf("Concurrent resolutions returned different keys: %v", keys)
		}
	}

	snap, _ := store.Snapshot(ctx)
	if len(snap.Buyers) != 1 {
		t.Errorf("Buyers = %d, want exactly 1 row after concurrent resolution", len(snap.Buyers))
	}
}

func TestEnsureDateRange(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// Pre-resolve a date in the middle, then fill around it.
	if _, err := store.ResolveDate(ctx, day(5)); err != nil {
		t.Fatalf("ResolveDate failed: %v", err)
	}
	if err := store.EnsureDateRange(ctx, day(3), day(7)); err != nil {
		t.Fatalf("EnsureDateRange failed: %v", err)
	}

	snap, _ := store.Snapshot(ctx)
	if len(snap.Dates) != 5 {
		t.Errorf("Dates = %d, want 5 (3rd through 7th, existing row kept)", len(snap.Dates))
	}
}
