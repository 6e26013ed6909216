// Package bulkload appends spreadsheet rows into the master data table.
// The only transformation applied is header normalization; row values are
// inserted verbatim and cleaned later by the store loader.
package bulkload

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"wlacli/internal/errors"
)

// Ingestor reads a spreadsheet and appends its rows into the store.
type Ingestor struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// NewIngestor creates an ingestor over an open database handle.
func NewIngestor(db *sql.DB, table string, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	if table == "" {
		table = "master_data"
	}
	return &Ingestor{db: db, table: table, logger: logger}
}

// Ingest reads the first sheet of the workbook at path, normalizes the
// header row to snake_case, and appends every data row into the table in
// a single transaction. It returns the number of rows inserted.
func (i *Ingestor) Ingest(ctx context.Context, path string) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, errors.NewStorageError("failed to open spreadsheet", err).
			WithContext("path", path)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, errors.NewStorageError("failed to read spreadsheet rows", err)
	}
	if len(rows) == 0 {
		return 0, errors.NewSchemaError("spreadsheet has no header row", nil)
	}

	headers := NormalizeHeaders(rows[0])
	if err := checkHeaders(headers); err != nil {
		return 0, err
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewDataAccessError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(headers))
	for n := range placeholders {
		placeholders[n] = "?"
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		i.table, strings.Join(headers, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, errors.NewDataAccessError("failed to prepare insert", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, row := range rows[1:] {
		values := make([]interface{}, len(headers))
		for n := range headers {
			if n < len(row) {
				values[n] = row[n]
			} else {
				// Short rows are padded; the loader drops them later.
				values[n] = ""
			}
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return 0, errors.NewDataAccessError("failed to insert spreadsheet row", err).
				WithContext("row", inserted+2)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewDataAccessError("failed to commit bulk load", err)
	}

	i.logger.InfoContext(ctx, "bulk load complete",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", inserted))

	return inserted, nil
}

// NormalizeHeaders converts raw column headers to the store's snake_case
// convention: trim, lowercase, spaces and hyphens to underscores.
func NormalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.ToLower(strings.TrimSpace(h))
		h = strings.ReplaceAll(h, " ", "_")
		h = strings.ReplaceAll(h, "-", "_")
		headers[i] = h
	}
	return headers
}

// checkHeaders requires the four canonical columns after normalization.
func checkHeaders(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	for _, want := range []string{"state", "month", "pop_group", "avg"} {
		if !present[want] {
			return errors.NewSchemaError(fmt.Sprintf("missing required column: %s", want), nil)
		}
	}
	return nil
}
