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
	"github.com/salemart/salemart/internal/logging"
	"github.com/salemart/salemart/internal/warehouse"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the warehouse schema",
	Long: `Initialize a PostgreSQL database with the star schema: the date,
item, and buyer dimensions and the sales fact table.

Example:
  salemart init --connection "postgres://..."`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop an existing warehouse schema before initialization")
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Check for an existing warehouse at a different schema version.
	existing, err := db.GetMetadataValue(ctx, pool, "schema_version")
	if err == nil && existing != "" && existing != db.SchemaVersion {
		if !initDropExisting {
			return fmt.Errorf(
				"database holds warehouse schema version %s, this build expects %s; "+
					"use --drop-existing to reinitialize", existing, db.SchemaVersion)
		}
		logging.Warn().
			Str("existing_version", existing).
			Str("new_version", db.SchemaVersion).
			Msg("Dropping existing warehouse schema")
	}

	if initDropExisting {
		logging.Info().Msg("Dropping existing schema")
		if err := warehouse.DropSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
		if err := db.DropMetadata(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	logging.Info().Msg("Creating warehouse schema")
	if err := warehouse.CreateSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := db.SaveMetadata(ctx, pool); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().Msg("Warehouse initialized")
	return nil
}
