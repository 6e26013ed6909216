// Command bulkload appends the rows of a spreadsheet into the master
// data table. Column headers are normalized to snake_case; row values
// are inserted verbatim.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"wlacli/internal/bulkload"
	"wlacli/internal/config"
	"wlacli/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	file := flag.String("file", "", "path to the spreadsheet to load (required)")
	dsn := flag.String("dsn", "", "database DSN (overrides config)")
	flag.Parse()

	if *file == "" {
		slog.Error("Missing required -file argument")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
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

	ingestor := bulkload.NewIngestor(db, cfg.Database.Table, logger)
	inserted, err := ingestor.Ingest(context.Background(), *file)
	if err != nil {
		logger.Error("Bulk load failed", "error", err, "file", *file)
		os.Exit(1)
	}

	logger.Info("Data inserted successfully", "rows", inserted, "file", *file)
}
