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
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the pgx-backed Store. Dimension resolution uses a
// single-round-trip upsert keyed on the natural-key uniqueness
// constraint, so the loser of a concurrent first-resolution race reads
// the winner's surrogate key instead of failing.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a connection pool as a warehouse Store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// The DO UPDATE arm rewrites the natural key with itself; it exists only
// so RETURNING yields the surviving row's key on conflict.
const resolveDateSQL = `
INSERT INTO dim_date (full_date, year, quarter, month, day, is_weekend)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (full_date) DO UPDATE SET full_date = EXCLUDED.full_date
RETURNING date_key`

const resolveItemSQL = `
INSERT INTO dim_item (item_code, item_id, item_name, category, version)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (item_code) DO UPDATE SET item_code = EXCLUDED.item_code
RETURNING item_key`

const resolveBuyerSQL = `
INSERT INTO dim_buyer (buyer_id)
VALUES ($1)
ON CONFLICT (buyer_id) DO UPDATE SET buyer_id = EXCLUDED.buyer_id
RETURNING buyer_key`

const ensureDateRangeSQL = `
INSERT INTO dim_date (full_date, year, quarter, month, day, is_weekend)
SELECT d::date,
       EXTRACT(YEAR FROM d)::int,
       EXTRACT(QUARTER FROM d)::int,
       EXTRACT(MONTH FROM d)::int,
       EXTRACT(DAY FROM d)::int,
       EXTRACT(ISODOW FROM d) >= 6
FROM generate_series($1::date, $2::date, interval '1 day') AS d
ON CONFLICT (full_date) DO NOTHING`

const insertFactSQL = `
INSERT INTO fact_sales (
    date_key, item_key, buyer_key, transaction_id,
    purchased_item_count, refunded_item_count, final_quantity,
    total_revenue, price_reductions, refunds, final_revenue,
    sales_tax, overall_revenue
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING fact_key`

// ResolveDate upserts a calendar dimension row and returns its key.
func (s *PostgresStore) ResolveDate(ctx context.Context, date time.Time) (int64, error) {
	dim := NewDateDim(date)

	var key int64
	err := s.pool.QueryRow(ctx, resolveDateSQL,
		dim.FullDate, dim.Year, dim.Quarter, dim.Month, dim.Day, dim.IsWeekend,
	).Scan(&key)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve date %s: %w",
			dim.FullDate.Format("2006-01-02"), err)
	}
	return key, nil
}

// ResolveItem upserts an item dimension row and returns its key.
func (s *PostgresStore) ResolveItem(ctx context.Context, attrs ItemAttrs) (int64, error) {
	var key int64
	err := s.pool.QueryRow(ctx, resolveItemSQL,
		attrs.ItemCode, attrs.ItemID, attrs.ItemName, attrs.Category, attrs.Version,
	).Scan(&key)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve item %s: %w", attrs.ItemCode, err)
	}
	return key, nil
}

// ResolveBuyer upserts a buyer dimension row and returns its key.
func (s *PostgresStore) ResolveBuyer(ctx context.Context, buyerID int64) (int64, error) {
	var key int64
	err := s.pool.QueryRow(ctx, resolveBuyerSQL, buyerID).Scan(&key)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve buyer %d: %w", buyerID, err)
	}
	return key, nil
}

// EnsureDateRange fills the calendar dimension for every day in [from, to].
func (s *PostgresStore) EnsureDateRange(ctx context.Context, from, to time.Time) error {
	_, err := s.pool.Exec(ctx, ensureDateRangeSQL, Midnight(from), Midnight(to))
	if err != nil {
		return fmt.Errorf("failed to fill date range: %w", err)
	}
	return nil
}

// InsertFact appends a fact row and assigns its surrogate key.
func (s *PostgresStore) InsertFact(ctx context.Context, fact *FactSale) error {
	err := s.pool.QueryRow(ctx, insertFactSQL,
		fact.DateKey, fact.ItemKey, fact.BuyerKey, fact.TransactionID,
		fact.PurchasedCount, fact.RefundedCount, fact.FinalQuantity,
		fact.TotalRevenue, fact.PriceReductions, fact.Refunds, fact.FinalRevenue,
		fact.SalesTax, fact.OverallRevenue,
	).Scan(&fact.Key)
	if err != nil {
		return fmt.Errorf("failed to insert fact: %w", err)
	}
	return nil
}

// Snapshot reads the full dimension and fact tables.
func (s *PostgresStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	rows, err := s.pool.Query(ctx, `
        SELECT date_key, full_date, year, quarter, month, day, is_weekend
        FROM dim_date ORDER BY full_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to read dim_date: %w", err)
	}
	for rows.Next() {
		var d DateDim
		if err := rows.Scan(&d.Key, &d.FullDate, &d.Year, &d.Quarter, &d.Month, &d.Day, &d.IsWeekend); err != nil {
			rows.Close()
			return nil, err
		}
		d.FullDate = Midnight(d.FullDate)
		snap.Dates = append(snap.Dates, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `
        SELECT item_key, item_code, item_id, item_name, category, version
        FROM dim_item ORDER BY item_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to read dim_item: %w", err)
	}
	for rows.Next() {
		var it ItemDim
		if err := rows.Scan(&it.Key, &it.ItemCode, &it.ItemID, &it.ItemName, &it.Category, &it.Version); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Items = append(snap.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `
        SELECT buyer_key, buyer_id FROM dim_buyer ORDER BY buyer_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to read dim_buyer: %w", err)
	}
	for rows.Next() {
		var b BuyerDim
		if err := rows.Scan(&b.Key, &b.BuyerID); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Buyers = append(snap.Buyers, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `
        SELECT fact_key, date_key, item_key, buyer_key, transaction_id,
               purchased_item_count, refunded_item_count, final_quantity,
               total_revenue, price_reductions, refunds, final_revenue,
               sales_tax, overall_revenue
        FROM fact_sales ORDER BY fact_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to read fact_sales: %w", err)
	}
	for rows.Next() {
		var f FactSale
		if err := rows.Scan(&f.Key, &f.DateKey, &f.ItemKey, &f.BuyerKey, &f.TransactionID,
			&f.PurchasedCount, &f.RefundedCount, &f.FinalQuantity,
			&f.TotalRevenue, &f.PriceReductions, &f.Refunds, &f.FinalRevenue,
			&f.SalesTax, &f.OverallRevenue); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Facts = append(snap.Facts, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}
