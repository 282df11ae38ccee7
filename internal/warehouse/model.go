//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse implements the dimensional model of the sales
// warehouse: lazily created dimension rows with surrogate keys, and
// invariant-checked immutable fact rows.
package warehouse

import "time"

// DateDim is one row of the calendar dimension. Rows are immutable once
// created and keyed by the calendar date.
type DateDim struct {
	Key       int64
	FullDate  time.Time
	Year      int
	Quarter   int
	Month     int
	Day       int
	IsWeekend bool
}

// NewDateDim derives the calendar attributes for a date. The surrogate
// key is left unset; the store assigns it.
func NewDateDim(t time.Time) DateDim {
	d := Midnight(t)
	return DateDim{
		FullDate:  d,
		Year:      d.Year(),
		Quarter:   (int(d.Month())-1)/3 + 1,
		Month:     int(d.Month()),
		Day:       d.Day(),
		IsWeekend: d.Weekday() == time.Saturday || d.Weekday() == time.Sunday,
	}
}

// Midnight truncates a timestamp to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ItemAttrs are the descriptive attributes of an item, keyed by its
// item code (the natural key).
type ItemAttrs struct {
	ItemCode string
	ItemID   int64
	ItemName string
	Category *string
	Version  string
}

// ItemDim is one row of the item dimension.
type ItemDim struct {
	Key      int64
	ItemCode string
	ItemID   int64
	ItemName string
	Category *string
	Version  string
}

// BuyerDim is one row of the buyer dimension.
type BuyerDim struct {
	Key     int64
	BuyerID int64
}

// FactSale is one item-level transaction line. A business transaction id
// may span multiple fact rows; the surrogate key is assigned fresh per row.
type FactSale struct {
	Key             int64
	DateKey         int64
	ItemKey         int64
	BuyerKey        int64
	TransactionID   int64
	PurchasedCount  int64
	RefundedCount   int64
	FinalQuantity   int64
	TotalRevenue    float64
	PriceReductions float64
	Refunds         float64
	FinalRevenue    float64
	SalesTax        float64
	OverallRevenue  float64
}

// Promo reports whether the fact row carries a discount. Promotional
// classification is derived, never stored.
func (f FactSale) Promo() bool {
	return f.PriceReductions != 0
}

// RawRecord is one raw transaction-item row as delivered by the input
// file, before validation and key resolution.
type RawRecord struct {
	ItemID          int64
	ItemName        string
	ItemCode        string
	Version         string
	Category        *string
	BuyerID         int64
	TransactionID   int64
	Date            time.Time
	PurchasedCount  int64
	RefundedCount   int64
	FinalQuantity   int64
	TotalRevenue    float64
	FinalRevenue    float64
	OverallRevenue  float64
	PriceReductions float64
	Refunds         float64
	SalesTax        float64
}

// Snapshot is a read-only view of the accumulated warehouse: all
// dimension rows plus the full fact set. Metric modules consume it as
// a pure input.
type Snapshot struct {
	Dates  []DateDim
	Items  []ItemDim
	Buyers []BuyerDim
	Facts  []FactSale
}

// DatesByKey returns a surrogate-key lookup for the calendar dimension.
func (s *Snapshot) DatesByKey() map[int64]DateDim {
	m := make(map[int64]DateDim, len(s.Dates))
	for _, d := range s.Dates {
		m[d.Key] = d
	}
	return m
}

// ItemsByKey returns a surrogate-key lookup for the item dimension.
func (s *Snapshot) ItemsByKey() map[int64]ItemDim {
	m := make(map[int64]ItemDim, len(s.Items))
	for _, it := range s.Items {
		m[it.Key] = it
	}
	return m
}

// BuyersByKey returns a surrogate-key lookup for the buyer dimension.
func (s *Snapshot) BuyersByKey() map[int64]BuyerDim {
	m := make(map[int64]BuyerDim, len(s.Buyers))
	for _, b := range s.Buyers {
		m[b.Key] = b
	}
	return m
}
