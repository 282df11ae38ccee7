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

	"github.com/jackc/pgx/v5/pgxpool"
)

// Star-schema DDL. Natural keys carry UNIQUE constraints so that
// concurrent first-resolutions of a dimension entity collapse to one row.
const createSchemaSQL = `
-- Calendar dimension: one row per date, attributes derived from the date
CREATE TABLE IF NOT EXISTS dim_date (
    date_key    BIGSERIAL PRIMARY KEY,
    full_date   DATE NOT NULL UNIQUE,
    year        INTEGER NOT NULL,
    quarter     INTEGER NOT NULL CHECK (quarter BETWEEN 1 AND 4),
    month       INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
    day         INTEGER NOT NULL CHECK (day BETWEEN 1 AND 31),
    is_weekend  BOOLEAN NOT NULL
);

-- Item dimension: one row per unique item code
CREATE TABLE IF NOT EXISTS dim_item (
    item_key    BIGSERIAL PRIMARY KEY,
    item_code   TEXT NOT NULL UNIQUE,
    item_id     BIGINT NOT NULL,
    item_name   TEXT NOT NULL,
    category    TEXT,
    version     TEXT NOT NULL DEFAULT ''
);

-- Buyer dimension: one row per unique buyer id
CREATE TABLE IF NOT EXISTS dim_buyer (
    buyer_key   BIGSERIAL PRIMARY KEY,
    buyer_id    BIGINT NOT NULL UNIQUE
);

-- Sales fact: grain is one item line within one transaction
CREATE TABLE IF NOT EXISTS fact_sales (
    fact_key             BIGSERIAL PRIMARY KEY,
    date_key             BIGINT NOT NULL REFERENCES dim_date(date_key),
    item_key             BIGINT NOT NULL REFERENCES dim_item(item_key),
    buyer_key            BIGINT NOT NULL REFERENCES dim_buyer(buyer_key),
    transaction_id       BIGINT NOT NULL,
    purchased_item_count BIGINT NOT NULL CHECK (purchased_item_count >= 0),
    refunded_item_count  BIGINT NOT NULL CHECK (refunded_item_count <= 0),
    final_quantity       BIGINT NOT NULL,
    total_revenue        DOUBLE PRECISION NOT NULL,
    price_reductions     DOUBLE PRECISION NOT NULL,
    refunds              DOUBLE PRECISION NOT NULL,
    final_revenue        DOUBLE PRECISION NOT NULL,
    sales_tax            DOUBLE PRECISION NOT NULL,
    overall_revenue      DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fact_sales_date ON fact_sales(date_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_item ON fact_sales(item_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_buyer ON fact_sales(buyer_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_txn ON fact_sales(transaction_id);
`

const dropSchemaSQL = `
DROP TABLE IF EXISTS fact_sales CASCADE;
DROP TABLE IF EXISTS dim_date CASCADE;
DROP TABLE IF EXISTS dim_item CASCADE;
DROP TABLE IF EXISTS dim_buyer CASCADE;
`

// CreateSchema creates the warehouse star schema.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	return err
}

// DropSchema drops the warehouse star schema.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}
