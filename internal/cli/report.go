//-------------------------------------------------------------------------
//
// Salemart Warehouse Toolkit
//
// Copyright (c) 2025 - 2026, the salemart authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/salemart/salemart/internal/db"
	"github.com/salemart/salemart/internal/logging"
	"github.com/salemart/salemart/internal/metrics"
	"github.com/salemart/salemart/internal/warehouse"
)

var (
	reportSet  string
	reportAsOf string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute and print a metric set from the warehouse",
	Long: `Compute one of the derived metric sets over the loaded facts and
print it as a table. All metrics are computed as of the latest
transaction date in the warehouse unless --as-of overrides it.

Metric sets:
  daily-sales - per-day revenue, orders, and rolling 7-day windows
  clv         - per-buyer lifetime value
  churn       - buyer churn classification summary
  cohort      - monthly cohort retention matrix
  returns     - item and category return rates
  ranking     - item performance with revenue ranks

Example:
  salemart report --set daily-sales --connection "postgres://..."`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportSet, "set", "",
		"metric set to compute (default: daily-sales)")
	reportCmd.Flags().StringVar(&reportAsOf, "as-of", "",
		"as-of date YYYY-MM-DD (default: latest transaction date)")
}

func runReport(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if reportSet != "" {
		cfg.Report.Set = reportSet
	}
	if reportAsOf != "" {
		cfg.Report.AsOf = reportAsOf
	}

	if err := cfg.ValidateReport(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	snap, err := warehouse.NewPostgresStore(pool).Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read warehouse: %w", err)
	}

	asOf, err := resolveAsOf(snap)
	if err != nil {
		return err
	}
	if asOf.IsZero() {
		logging.Warn().Msg("Warehouse holds no facts, nothing to report")
		return nil
	}
	logging.Info().
		Str("set", cfg.Report.Set).
		Str("as_of", asOf.Format("2006-01-02")).
		Msg("Computing metrics")

	out := cmd.OutOrStdout()
	switch cfg.Report.Set {
	case "daily-sales":
		printDailySales(out, metrics.DailySales(snap, asOf))
	case "clv":
		printBuyerValue(out, metrics.BuyerValue(snap, asOf))
	case "churn":
		rows := metrics.Classify(metrics.BuyerValue(snap, asOf))
		printChurn(out, metrics.Summarize(rows))
	case "cohort":
		printRetention(out, metrics.Retention(snap, asOf))
	case "returns":
		printReturns(out, metrics.ItemReturns(snap, asOf), metrics.CategoryMonthReturns(snap, asOf))
	case "ranking":
		printRanking(out, metrics.ItemPerformance(snap, asOf))
	default:
		return fmt.Errorf("unknown metric set: %s", cfg.Report.Set)
	}
	return nil
}

// resolveAsOf picks the explicit as-of date when configured, otherwise
// the latest fact date. A zero time with nil error means an empty
// warehouse.
func resolveAsOf(snap *warehouse.Snapshot) (time.Time, error) {
	if cfg.Report.AsOf != "" {
		asOf, err := time.Parse("2006-01-02", cfg.Report.AsOf)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --as-of date %q: %w", cfg.Report.AsOf, err)
		}
		return asOf, nil
	}
	asOf, ok := metrics.AsOf(snap)
	if !ok {
		return time.Time{}, nil
	}
	return asOf, nil
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func fmtDay(t time.Time) string {
	return t.Format("2006-01-02")
}

func fmtMonth(t time.Time) string {
	return t.Format("2006-01")
}

// fmtOptFloat renders a nullable metric, "-" when absent.
func fmtOptFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func printDailySales(out io.Writer, rows []metrics.DailySalesRow) {
	w := newTable(out)
	fmt.Fprintln(w, "DATE\tREVENUE\tORDERS\tPROMO\tROLLING 7D\tPRIOR 7D")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.2f\t%d\t%d\t%.2f\t%.2f\n",
			fmtDay(r.Date), r.Revenue, r.Orders, r.PromoOrders, r.Rolling7, r.Prior7)
	}
	w.Flush()
}

func printBuyerValue(out io.Writer, rows []metrics.BuyerValueRow) {
	w := newTable(out)
	fmt.Fprintln(w, "BUYER\tREVENUE\tORDERS\tFIRST\tLAST\tAOV\tDAYS SINCE\tSTATUS")
	for _, r := range rows {
		status := "inactive"
		switch {
		case r.NeverPurchased:
			status = "never purchased"
		case r.Active:
			status = "active"
		}
		first, last, days := "-", "-", "-"
		if r.FirstPurchase != nil {
			first = fmtDay(*r.FirstPurchase)
		}
		if r.LastPurchase != nil {
			last = fmtDay(*r.LastPurchase)
		}
		if r.DaysSinceLast != nil {
			days = fmt.Sprintf("%d", *r.DaysSinceLast)
		}
		fmt.Fprintf(w, "%d\t%.2f\t%d\t%s\t%s\t%s\t%s\t%s\n",
			r.BuyerID, r.TotalRevenue, r.TotalOrders, first, last,
			fmtOptFloat(r.AvgOrderValue, "%.2f"), days, status)
	}
	w.Flush()
}

func printChurn(out io.Writer, s metrics.ChurnSummary) {
	w := newTable(out)
	fmt.Fprintln(w, "METRIC\tCOUNT")
	fmt.Fprintf(w, "buyers\t%d\n", s.Buyers)
	fmt.Fprintf(w, "active\t%d\n", s.Active)
	fmt.Fprintf(w, "churned 30d\t%d\n", s.Churned30)
	fmt.Fprintf(w, "churned 60d\t%d\n", s.Churned60)
	fmt.Fprintf(w, "never purchased\t%d\n", s.NeverPurchased)
	w.Flush()
}

func printRetention(out io.Writer, rows []metrics.CohortRow) {
	w := newTable(out)
	fmt.Fprintln(w, "COHORT\tOFFSET\tACTIVE\tSIZE\tRATE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t+%d\t%d\t%d\t%s\n",
			fmtMonth(r.CohortMonth), r.MonthOffset, r.ActiveBuyers, r.CohortSize,
			fmtOptFloat(r.RetentionRate, "%.3f"))
	}
	w.Flush()
}

func printReturns(out io.Writer, items []metrics.ItemReturnRow, categories []metrics.CategoryMonthReturnRow) {
	w := newTable(out)
	fmt.Fprintln(w, "ITEM\tPURCHASED\tREFUNDED\tRATE")
	for _, r := range items {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			r.ItemCode, r.PurchasedQty, r.RefundedQty, fmtOptFloat(r.ReturnRate, "%.3f"))
	}
	w.Flush()

	if len(categories) == 0 {
		return
	}
	fmt.Fprintln(out)
	w = newTable(out)
	fmt.Fprintln(w, "CATEGORY\tMONTH\tPURCHASED\tREFUNDED\tRATE")
	for _, r := range categories {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			r.Category, fmtMonth(r.Month), r.PurchasedQty, r.RefundedQty,
			fmtOptFloat(r.ReturnRate, "%.3f"))
	}
	w.Flush()
}

func printRanking(out io.Writer, rows []metrics.ItemPerformanceRow) {
	w := newTable(out)
	fmt.Fprintln(w, "ITEM\tCATEGORY\tREVENUE\tNET QTY\tREFUNDED\tDISCOUNT\tSHARE\tRANK\tCAT RANK")
	for _, r := range rows {
		category := "-"
		if r.Category != nil {
			category = *r.Category
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%d\t%.2f\t%.3f\t%d\t%d\n",
			r.ItemCode, category, r.TotalRevenue, r.NetQuantity, r.RefundedQty,
			r.DiscountAmount, r.DiscountShare, r.RevenueRank, r.CategoryRank)
	}
	w.Flush()
}
