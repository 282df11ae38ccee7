//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/salemart/salemart/internal/testutil"
	"github.com/salemart/salemart/internal/warehouse"
)

func setupWarehouse(t *testing.T) (*warehouse.PostgresStore, func()) {
	t.Helper()

	baseConnStr := testutil.SkipIfNoPostgres(t)
	connStr := testutil.CreateTestDB(t, baseConnStr)
	dbName := testutil.GetDBNameFromConnStr(connStr)
	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)

	pool := testutil.ConnectTestDB(t, connStr)
	cleanup.SetPool(pool)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := warehouse.CreateSchema(ctx, pool); err != nil {
		cleanup.Cleanup()
		t.Fatalf("CreateSchema failed: %v", err)
	}

	return warehouse.NewPostgresStore(pool), cleanup.Cleanup
}

func TestPostgresResolveIdempotent(t *testing.T) {
	store, cleanup := setupWarehouse(t)
	defer cleanup()
	ctx := context.Background()

	date := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC) // Saturday
	k1, err := store.ResolveDate(ctx, date)
	if err != nil {
		t.Fatalf("ResolveDate failed: %v", err)
	}
	k2, err := store.ResolveDate(ctx, date)
	if err != nil {
		t.Fatalf("ResolveDate failed: %v", err)
	}
	if k1 != k2 {
		t.Errorf("ResolveDate returned %d then %d for the same date", k1, k2)
	}

	i1, err := store.ResolveItem(ctx, warehouse.ItemAttrs{ItemCode: "SKU-9", ItemID: 9, ItemName: "Nine"})
	if err != nil {
		t.Fatalf("ResolveItem failed: %v", err)
	}
	i2, err := store.ResolveItem(ctx, warehouse.ItemAttrs{ItemCode: "SKU-9", ItemID: 9, ItemName: "Nine"})
	if err != nil {
		t.Fatalf("ResolveItem failed: %v", err)
	}
	if i1 != i2 {
		t.Errorf("ResolveItem returned %d then %d for the same code", i1, i2)
	}

	b1, err := store.ResolveBuyer(ctx, 77)
	if err != nil {
		t.Fatalf("ResolveBuyer failed: %v", err)
	}
	b2, err := store.ResolveBuyer(ctx, 77)
	if err != nil {
		t.Fatalf("ResolveBuyer failed: %v", err)
	}
	if b1 != b2 {
		t.Errorf("ResolveBuyer returned %d then %d for the same buyer", b1, b2)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Dates) != 1 || len(snap.Items) != 1 || len(snap.Buyers) != 1 {
		t.Errorf("Duplicate dimension rows created: %d dates, %d items, %d buyers",
			len(snap.Dates), len(snap.Items), len(snap.Buyers))
	}
	if !snap.Dates[0].IsWeekend {
		t.Error("2025-06-14 is a Saturday; is_weekend should be true")
	}
	if snap.Dates[0].Quarter != 2 {
		t.Errorf("Quarter = %d, want 2", snap.Dates[0].Quarter)
	}
}

func TestPostgresConcurrentResolve(t *testing.T) {
	store, cleanup := setupWarehouse(t)
	defer cleanup()
	ctx := context.Background()

	const workers = 8
	keys := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := store.ResolveItem(ctx, warehouse.ItemAttrs{
				ItemCode: "SKU-RACE", ItemID: 1, ItemName: "Contended",
			})
			if err != nil {
				t.Errorf("ResolveItem failed: %v", err)
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
}

func TestPostgresEnsureDateRange(t *testing.T) {
	store, cleanup := setupWarehouse(t)
	defer cleanup()
	ctx := context.Background()

	from := time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	if err := store.EnsureDateRange(ctx, from, to); err != nil {
		t.Fatalf("EnsureDateRange failed: %v", err)
	}
	// Second call is a no-op
	if err := store.EnsureDateRange(ctx, from, to); err != nil {
		t.Fatalf("EnsureDateRange second call failed: %v", err)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Dates) != 5 {
		t.Fatalf("Dates = %d, want 5", len(snap.Dates))
	}
	// Feb 1st 2025 is a Saturday
	for _, d := range snap.Dates {
		if d.FullDate.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) && !d.IsWeekend {
			t.Error("2025-02-01 should be flagged as weekend")
		}
	}
}

func TestPostgresLoadRoundTrip(t *testing.T) {
	store, cleanup := setupWarehouse(t)
	defer cleanup()
	ctx := context.Background()

	loader := warehouse.NewLoader(store)
	category := "Electronics"
	rec := warehouse.RawRecord{
		ItemID:         100,
		ItemName:       "Widget",
		ItemCode:       "SKU-100",
		Version:        "v2",
		Category:       &category,
		BuyerID:        501,
		TransactionID:  9000,
		Date:           time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PurchasedCount: 2,
		FinalQuantity:  2,
		TotalRevenue:   50,
		FinalRevenue:   50,
		OverallRevenue: 50,
	}

	report, err := loader.Load(ctx, []warehouse.RawRecord{rec})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if report.Accepted != 1 || report.Rejected != 0 {
		t.Fatalf("Report = %+v, want 1 accepted", report)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Facts) != 1 {
		t.Fatalf("Facts = %d, want 1", len(snap.Facts))
	}
	fact := snap.Facts[0]
	if fact.Key == 0 {
		t.Error("fact surrogate key not assigned")
	}
	if fact.TransactionID != 9000 || fact.PurchasedCount != 2 || fact.OverallRevenue != 50 {
		t.Errorf("Fact round trip mismatch: %+v", fact)
	}
	if len(snap.Items) != 1 || snap.Items[0].Category == nil || *snap.Items[0].Category != "Electronics" {
		t.Errorf("Item dimension mismatch: %+v", snap.Items)
	}
}
