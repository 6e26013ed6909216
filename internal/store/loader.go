// Package store loads raw rows from the relational store and normalizes
// them into the canonical table consumed by the rest of the pipeline.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"wlacli/internal/errors"
	"wlacli/pkg/contracts/domain"
)

// requiredColumns are the columns the master table must expose.
var requiredColumns = []string{"state", "month", "pop_group", "avg"}

// monthLayouts are the date formats accepted for the month column.
// Rows whose month matches none of them are dropped.
var monthLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"2006-01",
}

// Loader fetches and cleans rows from the master data table.
type Loader struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// NewLoader creates a loader over an open database handle.
func NewLoader(db *sql.DB, table string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if table == "" {
		table = "master_data"
	}
	return &Loader{db: db, table: table, logger: logger}
}

// Load fetches all rows, optionally filtered to the given raw pop_group
// labels, and returns the canonical table sorted ascending by month.
// Zero matching rows is a valid outcome and returns an empty table.
func (l *Loader) Load(ctx context.Context, popGroups ...string) (domain.Table, error) {
	if err := l.checkSchema(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT state, month, pop_group, avg FROM %s", l.table)
	args := make([]interface{}, 0, len(popGroups))
	if len(popGroups) > 0 {
		placeholders := make([]string, len(popGroups))
		for i, g := range popGroups {
			placeholders[i] = "?"
			args = append(args, g)
		}
		query += fmt.Sprintf(" WHERE pop_group IN (%s)", strings.Join(placeholders, ", "))
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewDataAccessError("failed to query master data", err)
	}
	defer rows.Close()

	var table domain.Table
	dropped := 0
	for rows.Next() {
		var rawState, rawMonth, rawGroup, rawAvg interface{}
		if err := rows.Scan(&rawState, &rawMonth, &rawGroup, &rawAvg); err != nil {
			return nil, errors.NewDataAccessError("failed to scan master data row", err)
		}

		row, ok := normalizeRow(rawState, rawMonth, rawGroup, rawAvg)
		if !ok {
			dropped++
			continue
		}
		table = append(table, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDataAccessError("failed to read master data rows", err)
	}

	// Stable sort keeps the store's relative order within a month.
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Month.Before(table[j].Month)
	})

	l.logger.InfoContext(ctx, "loaded master data",
		slog.Int("rows", len(table)),
		slog.Int("dropped", dropped),
		slog.Int("group_filter", len(popGroups)))

	return table, nil
}

// checkSchema verifies the expected columns exist before querying data.
func (l *Loader) checkSchema(ctx context.Context) error {
	rows, err := l.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", l.table))
	if err != nil {
		return errors.NewDataAccessError(fmt.Sprintf("failed to inspect table %s", l.table), err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return errors.NewDataAccessError("failed to read table columns", err)
	}

	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[strings.ToLower(strings.TrimSpace(c))] = true
	}
	for _, want := range requiredColumns {
		if !present[want] {
			return errors.NewSchemaError(fmt.Sprintf("missing required column: %s", want), nil).
				WithContext("table", l.table)
		}
	}
	return nil
}

// normalizeRow converts one raw tuple into a canonical row. It reports
// false when any field is missing or uncoercible; such rows are dropped,
// never defaulted.
func normalizeRow(rawState, rawMonth, rawGroup, rawAvg interface{}) (domain.Row, bool) {
	state := domain.NormalizeState(coerceString(rawState))
	group := domain.NormalizePopGroup(coerceString(rawGroup))
	if state == "" || group == "" {
		return domain.Row{}, false
	}

	month, ok := coerceMonth(rawMonth)
	if !ok {
		return domain.Row{}, false
	}

	avg, ok := coerceFloat(rawAvg)
	if !ok || math.IsNaN(avg) || math.IsInf(avg, 0) {
		return domain.Row{}, false
	}

	return domain.Row{State: state, Month: month, PopGroup: group, Avg: avg}, true
}

func coerceString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}

func coerceMonth(v interface{}) (time.Time, bool) {
	switch m := v.(type) {
	case time.Time:
		return m, true
	case string:
		return parseMonth(m)
	case []byte:
		return parseMonth(string(m))
	default:
		return time.Time{}, false
	}
}

func parseMonth(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func coerceFloat(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int64:
		return float64(f), true
	case int:
		return float64(f), true
	case []byte:
		return parseFloat(string(f))
	case string:
		return parseFloat(f)
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
