// Command dashboard serves the trend and forecast HTTP API over the
// master data. Data is loaded once at startup with the dashboard
// category filter and can be reloaded via POST /api/refresh.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"wlacli/internal/config"
	"wlacli/internal/dashboard"
	"wlacli/internal/infrastructure"
	"wlacli/internal/store"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	port := flag.Int("port", 0, "listen port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Dashboard.Port = *port
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

	loader := store.NewLoader(db, cfg.Database.Table, logger)
	service := dashboard.NewService(loader, cfg.Dashboard.PopGroups, nil, logger)

	ctx := context.Background()
	if err := service.Refresh(ctx); err != nil {
		logger.Error("Initial data load failed", "error", err)
		os.Exit(1)
	}

	handler := dashboard.NewHandler(service, cfg.Dashboard.DefaultHorizon, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Dashboard.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Dashboard.ReadTimeout,
		WriteTimeout: cfg.Dashboard.WriteTimeout,
	}

	go func() {
		logger.Info("Dashboard listening", "port", cfg.Dashboard.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Dashboard.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}
