// Package pipeline orchestrates one report run: load, analyze, render.
// The empty-table policy lives here and nowhere else: the aggregator is
// only ever called with a non-empty table.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"wlacli/internal/analytics"
	"wlacli/internal/config"
	"wlacli/internal/errors"
	"wlacli/internal/infrastructure"
	"wlacli/internal/report"
	"wlacli/internal/store"
)

// Outcome is the terminal state of a pipeline run.
type Outcome string

const (
	// OutcomeReport means a document was generated.
	OutcomeReport Outcome = "report_generated"
	// OutcomeNoData means the store held no rows. This is a valid,
	// non-error terminal outcome: no document is produced.
	OutcomeNoData Outcome = "no_data"
)

// Result describes a completed run.
type Result struct {
	Outcome    Outcome
	ReportPath string
	Records    int
}

// Runner drives the load -> analyze -> render sequence. Each run owns its
// table and insights; runners share no mutable state, so independent
// runners may run concurrently.
type Runner struct {
	loader     *store.Loader
	emitter    *report.Emitter
	cfg        config.ReportConfig
	newSurface func() report.Surface
	now        func() time.Time
	logger     *slog.Logger
}

// NewRunner creates a report pipeline runner. The surface factory and
// clock are injectable for tests; nil selects the PDF surface and
// time.Now.
func NewRunner(loader *store.Loader, emitter *report.Emitter, cfg config.ReportConfig,
	newSurface func() report.Surface, now func() time.Time, logger *slog.Logger) *Runner {
	if newSurface == nil {
		newSurface = func() report.Surface { return report.NewPDFSurface() }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		loader:     loader,
		emitter:    emitter,
		cfg:        cfg,
		newSurface: newSurface,
		now:        now,
		logger:     logger,
	}
}

// Run executes one pipeline run end to end. Store and render failures
// propagate; an empty store terminates the run with OutcomeNoData.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	runID := uuid.New().String()
	ctx = infrastructure.WithTraceID(ctx, runID)
	logger := r.logger.With(slog.String("run_id", runID))

	logger.InfoContext(ctx, "starting report run")

	table, err := r.loader.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	if table.IsEmpty() {
		logger.InfoContext(ctx, "no data found, report cannot be generated")
		return Result{Outcome: OutcomeNoData}, nil
	}

	insights := analytics.Analyze(table)

	if err := os.MkdirAll(r.cfg.OutputDir, 0755); err != nil {
		return Result{}, errors.NewStorageError("failed to create report output directory", err)
	}

	// Timestamped filename avoids overwriting earlier runs.
	filename := fmt.Sprintf("%s_%s.pdf", r.cfg.FilenamePrefix, r.now().Format("20060102_150405"))
	path := filepath.Join(r.cfg.OutputDir, filename)

	if err := r.emitter.Render(insights, r.newSurface(), path); err != nil {
		return Result{}, err
	}

	logger.InfoContext(ctx, "report run complete",
		slog.String("path", path),
		slog.Int("records", insights.TotalRecords))

	return Result{Outcome: OutcomeReport, ReportPath: path, Records: len(table)}, nil
}
