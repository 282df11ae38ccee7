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
	"testing"

	"github.com/salemart/salemart/internal/metrics"
	"github.com/salemart/salemart/internal/warehouse"
)

func TestAsOf(t *testing.T) {
	snap := loadFacts(t, []warehouse.RawRecord{
		purchase(1, 100, "A-1", date(2025, 3, 1), 1, 10),
		purchase(1, 101, "A-1", date(2025, 3, 9), 1, 10),
		purchase(2, 102, "A-1", date(2025, 3, 4), 1, 10),
	})

	asOf, ok := metrics.AsOf(snap)
	if !ok {
		t.Fatal("Expected an as-of date")
	}
	if want := date(2025, 3, 9); !asOf.Equal(want) {
		t.Errorf("AsOf = %v, want %v", asOf, want)
	}
}

func TestAsOfEmpty(t *testing.T) {
	if _, ok := metrics.AsOf(emptySnapshot()); ok {
		t.Error("Expected no as-of date for an empty snapshot")
	}
}

func TestDailySalesZeroFill(t *testing.T) {
	snap := loadFacts(t, []warehouse.RawRecord{
		purchase(1, 100, "A-1", date(2025, 3, 1), 1, 50),
		purchase(2, 101, "A-1", date(2025, 3, 4), 1, 30),
	})

	rows := metrics.DailySales(snap, date(2025, 3, 4))
	if len(rows) != 4 {
		t.Fatalf("Expected 4 calendar rows, got %d", len(rows))
	}
	for i, row := range rows {
		if want := date(2025, 3, i+1); !row.Date.Equal(want) {
			t.Errorf("rows[%d].Date = %v, want %v", i, row.Date, want)
		}
	}
	for _, i := range []int{1, 2} {
		if rows[i].Revenue != 0 || rows[i].Orders != 0 {
			t.Errorf("rows[%d] should be zero-filled, got revenue %v orders %d",
				i, rows[i].Revenue, rows[i].Orders)
		}
	}
	if rows[0].Revenue != 50 || rows[3].Revenue != 30 {
		t.Errorf("Edge revenues = %v, %v, want 50, 30", rows[0].Revenue, rows[3].Revenue)
	}
}

func TestDailySalesRollingWindows(t *testing.T) {
	records := make([]warehouse.RawRecord, 0, 14)
	for i := 0; i < 14; i++ {
		records = append(records,
			purchase(1, int64(100+i), "A-1", date(2025, 3, 1).AddDate(0, 0, i), 1, 10))
	}
	snap := loadFacts(t, records)

	rows := metrics.DailySales(snap, date(2025, 3, 14))
	if len(rows) != 14 {
		t.Fatalf("Expected 14 rows, got %d", len(rows))
	}

	tests := []struct {
		idx      int
		rolling7 float64
		prior7   float64
	}{
		{0, 10, 0},
		{2, 30, 0},
		{6, 70, 0},
		{9, 70, 30},
		{13, 70, 70},
	}
	for _, tc := range tests {
		if rows[tc.idx].Rolling7 != tc.rolling7 {
			t.Errorf("rows[%d].Rolling7 = %v, want %v", tc.idx, rows[tc.idx].Rolling7, tc.rolling7)
		}
		if rows[tc.idx].Prior7 != tc.prior7 {
			t.Errorf("rows[%d].Prior7 = %v, want %v", tc.idx, rows[tc.idx].Prior7, tc.prior7)
		}
	}
}

func TestDailySalesOrderCounting(t *testing.T) {
	day := date(2025, 3, 1)
	snap := loadFacts(t, []warehouse.RawRecord{
		// Transaction 100 spans two item lines, one of them discounted.
		discounted(1, 100, "A-1", day, 1, 100, -10),
		purchase(1, 100, "B-2", day, 2, 40),
		purchase(2, 101, "A-1", day, 1, 25),
	})

	rows := metrics.DailySales(snap, day)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Orders != 2 {
		t.Errorf("Orders = %d, want 2", row.Orders)
	}
	if row.PromoOrders != 1 {
		t.Errorf("PromoOrders = %d, want 1", row.PromoOrders)
	}
	if row.Revenue != 155 {
		t.Errorf("Revenue = %v, want 155", row.Revenue)
	}
}

func TestDailySalesAsOfCut(t *testing.T) {
	snap := loadFacts(t, []warehouse.RawRecord{
		purchase(1, 100, "A-1", date(2025, 3, 1), 1, 50),
		purchase(1, 101, "A-1", date(2025, 3, 5), 1, 60),
	})

	rows := metrics.DailySales(snap, date(2025, 3, 2))
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows through the as-of date, got %d", len(rows))
	}
	var total float64
	for _, row := range rows {
		total += row.Revenue
	}
	if total != 50 {
		t.Errorf("Total revenue through as-of = %v, want 50", total)
	}
}

func TestDailySalesRefundDay(t *testing.T) {
	snap := loadFacts(t, []warehouse.RawRecord{
		purchase(1, 100, "A-1", date(2025, 3, 1), 2, 100),
		refund(1, 101, "A-1", date(2025, 3, 3), 1, 40),
	})

	rows := metrics.DailySales(snap, date(2025, 3, 3))
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[2].Revenue != -40 {
		t.Errorf("Refund day revenue = %v, want -40", rows[2].Revenue)
	}
	if rows[2].Orders != 1 {
		t.Errorf("Refund day orders = %d, want 1", rows[2].Orders)
	}
}
