//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"fmt"
	"math"
	"time"

	"github.com/salemart/salemart/internal/warehouse"
)

// Options controls the shape of the generated data set.
type Options struct {
	// Buyers is the number of distinct buyers.
	Buyers int

	// Items is the number of distinct items in the catalog.
	Items int

	// Days is the length of the trading window ending at End.
	Days int

	// RefundRate is the fraction of purchase lines refunded on a later
	// date within the window.
	RefundRate float64

	// End is the last trading day. Zero means today.
	End time.Time

	// Seed fixes the random stream; zero seeds from the clock.
	Seed uint64
}

const salesTaxRate = 0.08

// catalogItem is one entry of the generated item catalog.
type catalogItem struct {
	id       int64
	code     string
	name     string
	category string
	version  string
}

// Generator produces synthetic transaction records. Every generated
// line balances its quantity and revenue fields exactly, so a batch
// always loads without rejections.
type Generator struct {
	faker *Faker
	opts  Options

	nextTxn int64
}

// NewGenerator creates a generator for the given options.
func NewGenerator(opts Options) *Generator {
	if opts.Buyers <= 0 {
		opts.Buyers = 50
	}
	if opts.Items <= 0 {
		opts.Items = 20
	}
	if opts.Days <= 0 {
		opts.Days = 90
	}
	if opts.End.IsZero() {
		opts.End = time.Now()
	}
	opts.End = warehouse.Midnight(opts.End)

	faker := NewFaker()
	if opts.Seed != 0 {
		faker = NewFakerWithSeed(opts.Seed)
	}
	return &Generator{
		faker:   faker,
		opts:    opts,
		nextTxn: 10000,
	}
}

// Generate produces the full record set for the trading window.
func (g *Generator) Generate() []warehouse.RawRecord {
	catalog := g.buildCatalog()
	start := g.opts.End.AddDate(0, 0, -(g.opts.Days - 1))

	var records []warehouse.RawRecord
	for day := 0; day < g.opts.Days; day++ {
		date := start.AddDate(0, 0, day)
		txns := g.faker.Int(1, g.transactionsPerDay())
		for t := 0; t < txns; t++ {
			records = append(records, g.transaction(catalog, date)...)
		}
	}
	return records
}

// transactionsPerDay scales daily volume with the buyer population.
func (g *Generator) transactionsPerDay() int {
	per := g.opts.Buyers / 10
	if per < 2 {
		per = 2
	}
	return per
}

func (g *Generator) buildCatalog() []catalogItem {
	catalog := make([]catalogItem, g.opts.Items)
	for i := range catalog {
		catalog[i] = catalogItem{
			id:       int64(i + 1),
			code:     fmt.Sprintf("SKU-%04d", i+1),
			name:     g.faker.ProductName(),
			category: g.faker.ProductCategory(),
			version:  fmt.Sprintf("v%d", g.faker.Int(1, 3)),
		}
	}
	return catalog
}

// transaction emits the purchase lines of one order, plus any refund
// lines scheduled on later days inside the window.
func (g *Generator) transaction(catalog []catalogItem, date time.Time) []warehouse.RawRecord {
	buyer := int64(g.faker.Int(1, g.opts.Buyers))
	txn := g.nextTxn
	g.nextTxn++

	lines := g.faker.Int(1, 3)
	records := make([]warehouse.RawRecord, 0, lines)
	for l := 0; l < lines; l++ {
		item := Choose(g.faker, catalog)
		qty := int64(g.faker.Int(1, 5))
		total := roundCents(g.faker.Price(5, 200) * float64(qty))

		var discount float64
		if g.faker.Float64(0, 1) < 0.3 {
			discount = -roundCents(total * g.faker.Float64(0.05, 0.3))
		}
		final := total + discount
		tax := roundCents(final * salesTaxRate)

		rec := warehouse.RawRecord{
			ItemID:          item.id,
			ItemName:        item.name,
			ItemCode:        item.code,
			Version:         item.version,
			Category:        &item.category,
			BuyerID:         buyer,
			TransactionID:   txn,
			Date:            date,
			PurchasedCount:  qty,
			FinalQuantity:   qty,
			TotalRevenue:    total,
			PriceReductions: discount,
			FinalRevenue:    final,
			SalesTax:        tax,
			OverallRevenue:  final + tax,
		}
		records = append(records, rec)

		if g.faker.Float64(0, 1) < g.opts.RefundRate {
			if refund, ok := g.refundFor(rec, date); ok {
				records = append(records, refund)
			}
		}
	}
	return records
}

// refundFor builds a refund line for part of a purchase, dated 1 to 14
// days after it. Refunds falling past the trading window are dropped.
func (g *Generator) refundFor(purchase warehouse.RawRecord, date time.Time) (warehouse.RawRecord, bool) {
	refundDate := date.AddDate(0, 0, g.faker.Int(1, 14))
	if refundDate.After(g.opts.End) {
		return warehouse.RawRecord{}, false
	}

	qty := int64(g.faker.Int(1, int(purchase.PurchasedCount)))
	amount := roundCents(purchase.FinalRevenue * float64(qty) / float64(purchase.PurchasedCount))
	tax := roundCents(amount * salesTaxRate)

	txn := g.nextTxn
	g.nextTxn++

	return warehouse.RawRecord{
		ItemID:         purchase.ItemID,
		ItemName:       purchase.ItemName,
		ItemCode:       purchase.ItemCode,
		Version:        purchase.Version,
		Category:       purchase.Category,
		BuyerID:        purchase.BuyerID,
		TransactionID:  txn,
		Date:           refundDate,
		RefundedCount:  -qty,
		FinalQuantity:  -qty,
		Refunds:        -amount,
		FinalRevenue:   -amount,
		SalesTax:       -tax,
		OverallRevenue: -(amount + tax),
	}, true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
