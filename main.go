package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"listings-etl/config"
	"listings-etl/models"
	"listings-etl/services"
	"listings-etl/storage"
	"listings-etl/utils"
)

func main() {
	cfg := config.Load()

	configFile := flag.String("config", os.Getenv("ETL_CONFIG"), "Optional YAML config file")
	listings := flag.String("listings", "", "Listings CSV path")
	lookup := flag.String("lookup", "", "Category lookup CSV path")
	outdir := flag.String("outdir", "", "Output directory")
	flag.Parse()

	if *configFile != "" {
		if err := cfg.LoadFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
	}
	if *listings != "" {
		cfg.ListingsPath = *listings
	}
	if *lookup != "" {
		cfg.LookupPath = *lookup
	}
	if *outdir != "" {
		cfg.OutputDir = *outdir
	}

	runID := uuid.NewString()
	logger := utils.NewLogger(cfg.Env, cfg.LogLevel).With("run_id", runID)

	if err := cfg.Validate(); err != nil {
		logger.Error("%v", err)
		flag.Usage()
		os.Exit(1)
	}

	if err := run(cfg, runID, logger); err != nil {
		logger.Error("Run failed: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, runID string, logger *utils.Logger) error {
	start := time.Now()
	logger.Info("=== Listings ingest starting ===")
	logger.Info("Inputs: listings %s | lookup %s | outdir %s",
		cfg.ListingsPath, cfg.LookupPath, cfg.OutputDir)

	listingsTable, err := storage.ReadTable(cfg.ListingsPath)
	if err != nil {
		return err
	}
	lookupTable, err := storage.ReadTable(cfg.LookupPath)
	if err != nil {
		return err
	}

	result, err := services.NewPipeline(logger).Run(listingsTable, lookupTable)
	if err != nil {
		return err
	}

	profiler := services.NewProfileService(logger)
	profile := profiler.Generate(runID, result.Rows)
	profile.ValidationIssues = &result.Issues

	out := &models.Output{
		RunID:    runID,
		Columns:  result.Columns,
		Rows:     result.Rows,
		Report:   result.Report,
		Rejected: result.Rejected,
		Profile:  profile,
	}

	files, err := storage.NewFileSink(cfg.OutputDir, cfg.WriteRejects)
	if err != nil {
		return err
	}
	if err := files.Stage(out); err != nil {
		return err
	}

	mirrors, err := openMirrors(cfg, logger)
	if err != nil {
		files.Discard()
		return err
	}
	defer func() {
		for _, m := range mirrors {
			_ = m.Close()
		}
	}()

	for _, m := range mirrors {
		if err := m.Write(out); err != nil {
			files.Discard()
			return err
		}
	}

	published, err := files.Commit()
	if err != nil {
		return err
	}
	for _, p := range published {
		logger.Info("Wrote %s", p)
	}

	profiler.Print(out.Report, out.Profile)
	logger.Info("Done in %v. Clean rows: %d | Invalid dropped: %d | Duplicates: %d",
		time.Since(start).Round(time.Millisecond),
		out.Report.RowsAfterDedup,
		out.RejectedCount(),
		out.Report.ValidRowsAfterClean-out.Report.RowsAfterDedup)
	return nil
}

// openMirrors connects the optional database mirrors enabled in cfg.
func openMirrors(cfg *config.Config, logger *utils.Logger) ([]storage.OutputWriter, error) {
	var mirrors []storage.OutputWriter

	if cfg.PostgresEnabled {
		retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: time.Second, Logger: logger}
		pg, err := storage.NewPostgresWriter(cfg.DSN(), retry)
		if err != nil {
			return nil, err
		}
		logger.Info("PostgreSQL mirror enabled (%s:%s/%s)", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
		mirrors = append(mirrors, pg)
	}

	if cfg.SQLitePath != "" {
		lite, err := storage.NewSQLiteWriter(cfg.SQLitePath)
		if err != nil {
			for _, m := range mirrors {
				_ = m.Close()
			}
			return nil, err
		}
		logger.Info("SQLite mirror enabled (%s)", cfg.SQLitePath)
		mirrors = append(mirrors, lite)
	}

	return mirrors, nil
}
