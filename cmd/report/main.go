// Command report runs the report pipeline once: load the master data,
// analyze it, and render the PDF report into the configured output
// directory with a timestamped filename.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"wlacli/internal/config"
	"wlacli/internal/infrastructure"
	"wlacli/internal/pipeline"
	"wlacli/internal/report"
	"wlacli/internal/store"
	"wlacli/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	outputDir := flag.String("out", "", "output directory for the report (overrides config)")
	dsn := flag.String("dsn", "", "database DSN (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}
	if *dsn != "" {
		cfg.Database.DSN = *dsn
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "dsn", cfg.Database.DSN)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info(contracts.GetVersionString())

	loader := store.NewLoader(db, cfg.Database.Table, logger)
	emitter := report.NewEmitter(cfg.Report.Title, cfg.Report.Author, nil, logger)
	runner := pipeline.NewRunner(loader, emitter, cfg.Report, nil, nil, logger)

	result, err := runner.Run(context.Background())
	if err != nil {
		logger.Error("Report run failed", "error", err)
		os.Exit(1)
	}

	if result.Outcome == pipeline.OutcomeNoData {
		logger.Info("No data found. Report cannot be generated.")
		return
	}

	logger.Info("Report successfully generated",
		"path", result.ReportPath,
		"records", result.Records)
}
