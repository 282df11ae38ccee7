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
	"time"
)

// Store is the tabular store behind the warehouse. Dimension resolution
// is idempotent and race-safe: concurrent first-resolutions of the same
// natural key must yield the same surrogate key and a single row.
type Store interface {
	// ResolveDate returns the surrogate key for a calendar date,
	// creating the dimension row with derived attributes on first sight.
	ResolveDate(ctx context.Context, date time.Time) (int64, error)

	// ResolveItem returns the surrogate key for an item code, creating
	// the dimension row on first sight. Attributes of an already-known
	// item are not rewritten.
	ResolveItem(ctx context.Context, attrs ItemAttrs) (int64, error)

	// ResolveBuyer returns the surrogate key for a buyer id, creating
	// the dimension row on first sight.
	ResolveBuyer(ctx context.Context, buyerID int64) (int64, error)

	// EnsureDateRange creates calendar dimension rows for every day in
	// [from, to], skipping dates that already exist.
	EnsureDateRange(ctx context.Context, from, to time.Time) error

	// InsertFact appends an immutable fact row and sets its surrogate key.
	InsertFact(ctx context.Context, fact *FactSale) error

	// Snapshot reads the full dimension and fact tables.
	Snapshot(ctx context.Context) (*Snapshot, error)
}
