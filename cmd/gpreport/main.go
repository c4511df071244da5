// Command gpreport runs the full GP appointments analysis pipeline:
// it unions the monthly per-CCG appointment extracts, builds the CCG
// deprivation reference table, derives the regional and national
// metric series, computes the deprivation correlation series, and
// writes every derived table to CSV for the report layer.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/markagreen/remote-GP-consultations/internal/analysis"
	"github.com/markagreen/remote-GP-consultations/internal/config"
	"github.com/markagreen/remote-GP-consultations/internal/dataset"
	"github.com/markagreen/remote-GP-consultations/internal/deprivation"
	"github.com/markagreen/remote-GP-consultations/internal/exporter"
	"github.com/markagreen/remote-GP-consultations/internal/infrastructure"
	"github.com/markagreen/remote-GP-consultations/internal/ingest"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML configuration file")
	extractsDir := flag.String("extracts", "", "directory of monthly appointment extract CSVs (overrides config)")
	imdFile := flag.String("imd", "", "IMD workbook path (overrides config)")
	lookupFile := flag.String("lookup", "", "LSOA to CCG lookup CSV path (overrides config)")
	outputDir := flag.String("out", "", "output directory for derived tables (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *extractsDir != "" {
		cfg.Paths.ExtractsDir = *extractsDir
	}
	if *imdFile != "" {
		cfg.Paths.IMDFile = *imdFile
	}
	if *lookupFile != "" {
		cfg.Paths.LookupFile = *lookupFile
	}
	if *outputDir != "" {
		cfg.Paths.OutputDir = *outputDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	ctx := infrastructure.WithRunID(context.Background(), infrastructure.NewRunID())
	start := time.Now()
	logger.InfoContext(ctx, "starting pipeline run",
		"extracts_dir", cfg.Paths.ExtractsDir,
		"imd_file", cfg.Paths.IMDFile,
		"lookup_file", cfg.Paths.LookupFile,
		"output_dir", cfg.Paths.OutputDir,
	)

	// Load and union the monthly appointment extracts. Any schema
	// mismatch or unrecognised period token aborts the run here;
	// partial outputs are never written.
	extracts, err := ingest.LoadExtracts(ctx, logger, cfg.Paths.ExtractsDir)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load extracts", "error", err)
		os.Exit(1)
	}
	records, err := dataset.Union(ctx, logger, extracts)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to union extracts", "error", err)
		os.Exit(1)
	}

	// Build the static deprivation reference table once per run.
	index, err := ingest.LoadIMD(ctx, logger, cfg.Paths.IMDFile)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load IMD index", "error", err)
		os.Exit(1)
	}
	lookup, err := ingest.LoadLookup(ctx, logger, cfg.Paths.LookupFile)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load LSOA lookup", "error", err)
		os.Exit(1)
	}
	depriv := deprivation.Build(ctx, logger, index, lookup)

	// Derive every output table in one pass.
	pipeline := analysis.NewPipeline(logger)
	result, err := pipeline.Run(ctx, records, depriv)
	if err != nil {
		logger.ErrorContext(ctx, "Pipeline run failed", "error", err)
		os.Exit(1)
	}

	writer := exporter.NewCSVWriter(cfg.Paths.OutputDir, logger)
	if err := writer.WriteResult(result, depriv); err != nil {
		logger.ErrorContext(ctx, "Failed to write derived tables", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "pipeline run completed",
		"records", len(records),
		"regional_rows", len(result.Regional),
		"national_rows", len(result.National),
		"correlation_series", len(result.Correlations),
		"elapsed", time.Since(start),
	)
}
