//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package ingest parses delimited transaction files into raw warehouse
// records. Structural problems, a missing column, a malformed number or
// date, or an id field without digits, fail the whole file; business
// rule validation happens later, in the loader.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/salemart/salemart/internal/warehouse"
)

// Input column names. The header row must contain every one of them;
// extra columns are ignored.
const (
	colTransactionID  = "transaction_id"
	colBuyerID        = "buyer_id"
	colItemID         = "item_id"
	colItemCode       = "item_code"
	colItemName       = "item_name"
	colCategory       = "category"
	colVersion        = "version"
	colDate           = "date"
	colPurchasedCount = "purchased_item_count"
	colRefundedCount  = "refunded_item_count"
	colFinalQuantity  = "final_quantity"
	colTotalRevenue   = "total_revenue"
	colReductions     = "price_reductions"
	colRefunds        = "refunds"
	colFinalRevenue   = "final_revenue"
	colSalesTax       = "sales_tax"
	colOverallRevenue = "overall_revenue"
)

var requiredColumns = []string{
	colTransactionID, colBuyerID, colItemID, colItemCode, colItemName,
	colCategory, colVersion, colDate, colPurchasedCount, colRefundedCount,
	colFinalQuantity, colTotalRevenue, colReductions, colRefunds,
	colFinalRevenue, colSalesTax, colOverallRevenue,
}

// Reader parses one delimited file format. The zero value is not usable;
// construct with NewReader and override fields as needed.
type Reader struct {
	Delimiter  rune
	DateFormat string
}

// NewReader returns a reader for comma-delimited files with ISO dates.
func NewReader() *Reader {
	return &Reader{
		Delimiter:  ',',
		DateFormat: "2006-01-02",
	}
}

// ReadFile parses the file at path into raw records.
func (r *Reader) ReadFile(path string) ([]warehouse.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	records, err := r.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Read parses delimited input into raw records. The first row must be a
// header naming all input columns.
func (r *Reader) Read(src io.Reader) ([]warehouse.RawRecord, error) {
	cr := csv.NewReader(src)
	cr.Comma = r.Delimiter
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("input is empty, expected a header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var records []warehouse.RawRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := r.parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *Reader) parseRow(row []string, cols map[string]int) (warehouse.RawRecord, error) {
	var rec warehouse.RawRecord
	var err error

	field := func(name string) string {
		return strings.TrimSpace(row[cols[name]])
	}

	if rec.TransactionID, err = parseID(colTransactionID, field(colTransactionID)); err != nil {
		return rec, err
	}
	if rec.BuyerID, err = parseID(colBuyerID, field(colBuyerID)); err != nil {
		return rec, err
	}
	if rec.ItemID, err = parseID(colItemID, field(colItemID)); err != nil {
		return rec, err
	}

	rec.ItemCode = field(colItemCode)
	if rec.ItemCode == "" {
		return rec, fmt.Errorf("empty %s", colItemCode)
	}
	rec.ItemName = field(colItemName)
	rec.Version = field(colVersion)
	rec.Category = CanonicalCategory(field(colCategory))

	date, err := time.Parse(r.DateFormat, field(colDate))
	if err != nil {
		return rec, fmt.Errorf("invalid %s %q: %w", colDate, field(colDate), err)
	}
	rec.Date = warehouse.Midnight(date)

	ints := []struct {
		name string
		dst  *int64
	}{
		{colPurchasedCount, &rec.PurchasedCount},
		{colRefundedCount, &rec.RefundedCount},
		{colFinalQuantity, &rec.FinalQuantity},
	}
	for _, f := range ints {
		if *f.dst, err = strconv.ParseInt(field(f.name), 10, 64); err != nil {
			return rec, fmt.Errorf("invalid %s %q", f.name, field(f.name))
		}
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{colTotalRevenue, &rec.TotalRevenue},
		{colReductions, &rec.PriceReductions},
		{colRefunds, &rec.Refunds},
		{colFinalRevenue, &rec.FinalRevenue},
		{colSalesTax, &rec.SalesTax},
		{colOverallRevenue, &rec.OverallRevenue},
	}
	for _, f := range floats {
		if *f.dst, err = strconv.ParseFloat(field(f.name), 64); err != nil {
			return rec, fmt.Errorf("invalid %s %q", f.name, field(f.name))
		}
	}

	return rec, nil
}

// parseID extracts the numeric id from a field that may carry stray
// formatting (prefixes, separators). A field with no digits at all is a
// structural failure.
func parseID(name, value string) (int64, error) {
	var digits strings.Builder
	for _, c := range value {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	if digits.Len() == 0 {
		return 0, fmt.Errorf("%s %q contains no digits", name, value)
	}
	id, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return id, nil
}

var titleCaser = cases.Title(language.Und)

// CanonicalCategory normalizes a raw category value: surrounding
// whitespace is trimmed, inner runs of whitespace collapse to a single
// space, and words are title-cased. A blank value maps to nil.
func CanonicalCategory(raw string) *string {
	collapsed := strings.Join(strings.Fields(raw), " ")
	if collapsed == "" {
		return nil
	}
	c := titleCaser.String(collapsed)
	return &c
}
