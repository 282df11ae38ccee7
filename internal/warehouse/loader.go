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
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/salemart/salemart/internal/logging"
)

// DefaultTolerance is the maximum absolute difference allowed when
// reconciling the monetary balance invariants.
const DefaultTolerance = 0.02

// Invariant names reported on rejection.
const (
	InvariantQuantityBalance     = "quantity_balance"
	InvariantRevenueBalance      = "revenue_balance"
	InvariantOverallBalance      = "overall_balance"
	InvariantPurchasedNonneg     = "purchased_nonnegative"
	InvariantRefundedNonpositive = "refunded_nonpositive"
)

// Rejection describes one raw record that failed validation. The record
// is skipped; the batch continues.
type Rejection struct {
	Line          int
	TransactionID int64
	Invariant     string
	Detail        string
}

func (r Rejection) String() string {
	return fmt.Sprintf("line %d (transaction %d): %s: %s",
		r.Line, r.TransactionID, r.Invariant, r.Detail)
}

// LoadReport summarizes one batch load.
type LoadReport struct {
	BatchID    uuid.UUID
	Accepted   int
	Rejected   int
	Rejections []Rejection
	DryRun     bool
}

// ErrorRate returns rejected/total for the batch, 0 for an empty batch.
func (r *LoadReport) ErrorRate() float64 {
	total := r.Accepted + r.Rejected
	if total == 0 {
		return 0
	}
	return float64(r.Rejected) / float64(total)
}

// Loader validates raw transaction records and appends the surviving
// fact rows to the store.
type Loader struct {
	store Store

	// Tolerance bounds the monetary balance checks. Zero means
	// DefaultTolerance.
	Tolerance float64

	// MaxErrorRate aborts the batch before any insert when the
	// rejection rate exceeds it. 1.0 disables the check.
	MaxErrorRate float64

	// DryRun validates and reports without touching the store.
	DryRun bool
}

// NewLoader creates a Loader with default tolerance and no error-rate cap.
func NewLoader(store Store) *Loader {
	return &Loader{
		store:        store,
		Tolerance:    DefaultTolerance,
		MaxErrorRate: 1.0,
	}
}

// Validate checks the four fact invariants on a raw record. It returns
// nil when the record is acceptable.
func (l *Loader) Validate(rec RawRecord) *Rejection {
	tol := l.Tolerance
	if tol == 0 {
		tol = DefaultTolerance
	}

	if rec.PurchasedCount < 0 {
		return &Rejection{
			TransactionID: rec.TransactionID,
			Invariant:     InvariantPurchasedNonneg,
			Detail:        fmt.Sprintf("purchased_item_count = %d", rec.PurchasedCount),
		}
	}
	if rec.RefundedCount > 0 {
		return &Rejection{
			TransactionID: rec.TransactionID,
			Invariant:     InvariantRefundedNonpositive,
			Detail:        fmt.Sprintf("refunded_item_count = %d", rec.RefundedCount),
		}
	}
	if rec.FinalQuantity != rec.PurchasedCount+rec.RefundedCount {
		return &Rejection{
			TransactionID: rec.TransactionID,
			Invariant:     InvariantQuantityBalance,
			Detail: fmt.Sprintf("final_quantity %d != purchased %d + refunded %d",
				rec.FinalQuantity, rec.PurchasedCount, rec.RefundedCount),
		}
	}
	if diff := rec.FinalRevenue - (rec.TotalRevenue + rec.PriceReductions + rec.Refunds); math.Abs(diff) > tol {
		return &Rejection{
			TransactionID: rec.TransactionID,
			Invariant:     InvariantRevenueBalance,
			Detail: fmt.Sprintf("final_revenue %.2f != total %.2f + reductions %.2f + refunds %.2f",
				rec.FinalRevenue, rec.TotalRevenue, rec.PriceReductions, rec.Refunds),
		}
	}
	if diff := rec.OverallRevenue - (rec.FinalRevenue + rec.SalesTax); math.Abs(diff) > tol {
		return &Rejection{
			TransactionID: rec.TransactionID,
			Invariant:     InvariantOverallBalance,
			Detail: fmt.Sprintf("overall_revenue %.2f != final %.2f + tax %.2f",
				rec.OverallRevenue, rec.FinalRevenue, rec.SalesTax),
		}
	}
	return nil
}

// Load validates a batch of raw records and inserts the accepted ones.
// Validation happens in full before the first insert, so an error-rate
// abort leaves the warehouse untouched. Record order within the batch
// carries no meaning.
func (l *Loader) Load(ctx context.Context, records []RawRecord) (*LoadReport, error) {
	report := &LoadReport{
		BatchID: uuid.New(),
		DryRun:  l.DryRun,
	}

	accepted := make([]RawRecord, 0, len(records))
	for i, rec := range records {
		if rej := l.Validate(rec); rej != nil {
			rej.Line = i + 1
			report.Rejected++
			report.Rejections = append(report.Rejections, *rej)
			logging.Debug().
				Str("batch", report.BatchID.String()).
				Int("line", rej.Line).
				Str("invariant", rej.Invariant).
				Msg("Rejected record")
			continue
		}
		accepted = append(accepted, rec)
	}
	report.Accepted = len(accepted)

	if l.MaxErrorRate < 1.0 && report.ErrorRate() > l.MaxErrorRate {
		return report, fmt.Errorf(
			"rejection rate %.2f%% exceeds max error rate %.2f%%; batch aborted",
			report.ErrorRate()*100, l.MaxErrorRate*100)
	}

	if l.DryRun {
		logging.Info().
			Str("batch", report.BatchID.String()).
			Int("accepted", report.Accepted).
			Int("rejected", report.Rejected).
			Msg("Dry run complete, nothing written")
		return report, nil
	}

	if len(accepted) > 0 {
		minDate, maxDate := dateBounds(accepted)
		if err := l.store.EnsureDateRange(ctx, minDate, maxDate); err != nil {
			return report, err
		}
	}

	for _, rec := range accepted {
		fact, err := l.buildFact(ctx, rec)
		if err != nil {
			return report, err
		}
		if err := l.store.InsertFact(ctx, fact); err != nil {
			return report, err
		}
	}

	logging.Info().
		Str("batch", report.BatchID.String()).
		Int("accepted", report.Accepted).
		Int("rejected", report.Rejected).
		Msg("Batch load complete")

	return report, nil
}

// buildFact resolves the three dimension keys for a validated record and
// assembles the fact row.
func (l *Loader) buildFact(ctx context.Context, rec RawRecord) (*FactSale, error) {
	dateKey, err := l.store.ResolveDate(ctx, rec.Date)
	if err != nil {
		return nil, err
	}
	itemKey, err := l.store.ResolveItem(ctx, ItemAttrs{
		ItemCode: rec.ItemCode,
		ItemID:   rec.ItemID,
		ItemName: rec.ItemName,
		Category: rec.Category,
		Version:  rec.Version,
	})
	if err != nil {
		return nil, err
	}
	buyerKey, err := l.store.ResolveBuyer(ctx, rec.BuyerID)
	if err != nil {
		return nil, err
	}

	return &FactSale{
		DateKey:         dateKey,
		ItemKey:         itemKey,
		BuyerKey:        buyerKey,
		TransactionID:   rec.TransactionID,
		PurchasedCount:  rec.PurchasedCount,
		RefundedCount:   rec.RefundedCount,
		FinalQuantity:   rec.FinalQuantity,
		TotalRevenue:    rec.TotalRevenue,
		PriceReductions: rec.PriceReductions,
		Refunds:         rec.Refunds,
		FinalRevenue:    rec.FinalRevenue,
		SalesTax:        rec.SalesTax,
		OverallRevenue:  rec.OverallRevenue,
	}, nil
}

func dateBounds(records []RawRecord) (time.Time, time.Time) {
	minDate, maxDate := records[0].Date, records[0].Date
	for _, rec := range records[1:] {
		if rec.Date.Before(minDate) {
			minDate = rec.Date
		}
		if rec.Date.After(maxDate) {
			maxDate = rec.Date
		}
	}
	return minDate, maxDate
}
