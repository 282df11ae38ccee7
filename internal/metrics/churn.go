//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package metrics

// Churn thresholds in days. A buyer is churned only when inactivity
// strictly exceeds the threshold: exactly 30 days is not churned.
const (
	ChurnThreshold30 = 30
	ChurnThreshold60 = 60
)

// ChurnRow classifies one buyer. Buyers who never purchased are neither
// active nor churned; they are tracked separately.
type ChurnRow struct {
	BuyerKey       int64
	BuyerID        int64
	Active         bool
	Churned30      bool
	Churned60      bool
	NeverPurchased bool
}

// ChurnSummary aggregates the classification over all buyers.
type ChurnSummary struct {
	Buyers         int
	Active         int
	Churned30      int
	Churned60      int
	NeverPurchased int
}

// Classify derives churn flags purely from the CLV output.
func Classify(values []BuyerValueRow) []ChurnRow {
	rows := make([]ChurnRow, 0, len(values))
	for _, v := range values {
		row := ChurnRow{
			BuyerKey:       v.BuyerKey,
			BuyerID:        v.BuyerID,
			Active:         v.Active,
			NeverPurchased: v.NeverPurchased,
		}
		if v.LastPurchase != nil && v.DaysSinceLast != nil {
			row.Churned30 = *v.DaysSinceLast > ChurnThreshold30
			row.Churned60 = *v.DaysSinceLast > ChurnThreshold60
		}
		rows = append(rows, row)
	}
	return rows
}

// Summarize counts the classification outcomes.
func Summarize(rows []ChurnRow) ChurnSummary {
	var s ChurnSummary
	s.Buyers = len(rows)
	for _, r := range rows {
		if r.Active {
			s.Active++
		}
		if r.Churned30 {
			s.Churned30++
		}
		if r.Churned60 {
			s.Churned60++
		}
		if r.NeverPurchased {
			s.NeverPurchased++
		}
	}
	return s
}
