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

	"github.com/spf13/cobra"

	"github.com/salemart/salemart/internal/db"
	"github.com/salemart/salemart/internal/ingest"
	"github.com/salemart/salemart/internal/logging"
	"github.com/salemart/salemart/internal/warehouse"
)

var (
	loadFile         string
	loadDelimiter    string
	loadDateFormat   string
	loadTolerance    float64
	loadMaxErrorRate float64
	loadDryRun       bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Validate and load a transaction file into the warehouse",
	Long: `Load a delimited transaction file into the warehouse. Each line is
checked against the quantity and revenue balance rules; lines that fail
are reported and skipped, the rest are inserted. Dimension rows are
created on first sight.

Example:
  salemart load --file orders.csv --connection "postgres://..."`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadFile, "file", "",
		"delimited transaction file to load")
	loadCmd.Flags().StringVar(&loadDelimiter, "delimiter", "",
		"field delimiter (default: ,)")
	loadCmd.Flags().StringVar(&loadDateFormat, "date-format", "",
		"transaction date layout in Go reference time format (default: 2006-01-02)")
	loadCmd.Flags().Float64Var(&loadTolerance, "tolerance", 0,
		"monetary balance tolerance (default: 0.02)")
	loadCmd.Flags().Float64Var(&loadMaxErrorRate, "max-error-rate", 0,
		"abort when rejected/total exceeds this fraction (default: 1.0)")
	loadCmd.Flags().BoolVar(&loadDryRun, "dry-run", false,
		"validate and report without writing to the warehouse")
}

func runLoad(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if loadFile != "" {
		cfg.Load.Path = loadFile
	}
	if loadDelimiter != "" {
		cfg.Load.Delimiter = loadDelimiter
	}
	if loadDateFormat != "" {
		cfg.Load.DateFormat = loadDateFormat
	}
	if loadTolerance > 0 {
		cfg.Load.Tolerance = loadTolerance
	}
	if loadMaxErrorRate > 0 {
		cfg.Load.MaxErrorRate = loadMaxErrorRate
	}
	if loadDryRun {
		cfg.Load.DryRun = true
	}

	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	reader := ingest.NewReader()
	reader.Delimiter = rune(cfg.Load.Delimiter[0])
	reader.DateFormat = cfg.Load.DateFormat

	records, err := reader.ReadFile(cfg.Load.Path)
	if err != nil {
		return err
	}
	logging.Info().
		Str("file", cfg.Load.Path).
		Int("records", len(records)).
		Msg("Parsed input file")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	loader := warehouse.NewLoader(warehouse.NewPostgresStore(pool))
	loader.Tolerance = cfg.Load.Tolerance
	loader.MaxErrorRate = cfg.Load.MaxErrorRate
	loader.DryRun = cfg.Load.DryRun

	report, err := loader.Load(ctx, records)
	if report != nil {
		for _, rej := range report.Rejections {
			logging.Warn().
				Int("line", rej.Line).
				Int64("transaction_id", rej.TransactionID).
				Str("rule", rej.Invariant).
				Msg(rej.Detail)
		}
	}
	return err
}
