package dashboard

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wlacli/internal/errors"
	"wlacli/internal/store"
)

func seedService(t *testing.T, popGroups []string, rows ...[4]interface{}) *Service {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE master_data (state TEXT, month TEXT, pop_group TEXT, avg REAL)`)
	require.NoError(t, err)
	for _, row := range rows {
		_, err = db.Exec("INSERT INTO master_data VALUES (?, ?, ?, ?)", row[0], row[1], row[2], row[3])
		require.NoError(t, err)
	}

	service := NewService(store.NewLoader(db, "master_data", nil), popGroups, nil, nil)
	require.NoError(t, service.Refresh(context.Background()))
	return service
}

func TestTrendsAggregatesPerMonthAndGroup(t *testing.T) {
	service := seedService(t, nil,
		[4]interface{}{"California", "2024-01-01", "Urban", 10.0},
		[4]interface{}{"Texas", "2024-01-01", "Urban", 20.0},
		[4]interface{}{"California", "2024-01-01", "Rural", 4.0},
		[4]interface{}{"California", "2024-02-01", "Urban", 30.0},
	)

	points := service.Trends(nil)
	require.Len(t, points, 3)

	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, TrendPoint{Month: jan, PopGroup: "rural", Avg: 4.0}, points[0])
	assert.Equal(t, TrendPoint{Month: jan, PopGroup: "urban", Avg: 15.0}, points[1])
	assert.Equal(t, "urban", points[2].PopGroup)
	assert.Equal(t, 30.0, points[2].Avg)
}

func TestTrendsStateSelection(t *testing.T) {
	service := seedService(t, nil,
		[4]interface{}{"California", "2024-01-01", "Urban", 10.0},
		[4]interface{}{"Texas", "2024-01-01", "Urban", 20.0},
	)

	points := service.Trends([]string{"Texas"})
	require.Len(t, points, 1)
	assert.Equal(t, 20.0, points[0].Avg)

	assert.Empty(t, service.Trends([]string{"Nowhere"}))
}

func TestRefreshFiltersOnRawGroupLabels(t *testing.T) {
	service := seedService(t, []string{"Urban", "S - Urban"},
		[4]interface{}{"California", "2024-01-01", "Urban", 10.0},
		[4]interface{}{"California", "2024-01-01", "S - Urban", 8.0},
		[4]interface{}{"California", "2024-01-01", "Other", 99.0},
	)

	points := service.Trends(nil)
	require.Len(t, points, 2)
	assert.Equal(t, "s-urban", points[0].PopGroup)
	assert.Equal(t, "urban", points[1].PopGroup)
}

func TestForecastGroup(t *testing.T) {
	service := seedService(t, nil,
		[4]interface{}{"California", "2024-01-01", "Urban", 10.0},
		[4]interface{}{"California", "2024-02-01", "Urban", 12.0},
		[4]interface{}{"California", "2024-03-01", "Urban", 14.0},
	)

	result, err := service.ForecastGroup(nil, "urban", 3)
	require.NoError(t, err)

	assert.Equal(t, "urban", result.PopGroup)
	require.Len(t, result.Actual, 3)
	require.Len(t, result.Predicted, 3)
	assert.InDelta(t, 16.0, result.Predicted[0].Value, 1e-9)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), result.Predicted[0].Month)
}

func TestForecastGroupInsufficientData(t *testing.T) {
	service := seedService(t, nil,
		[4]interface{}{"California", "2024-01-01", "Urban", 10.0},
	)

	_, err := service.ForecastGroup(nil, "urban", 12)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	// An unknown group is the zero-observation case of the same rule.
	_, err = service.ForecastGroup(nil, "nope", 12)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestForecastAllSkipsShortSeries(t *testing.T) {
	service := seedService(t, nil,
		[4]interface{}{"California", "2024-01-01", "Urban", 10.0},
		[4]interface{}{"California", "2024-02-01", "Urban", 12.0},
		[4]interface{}{"California", "2024-02-01", "Rural", 5.0},
	)

	forecasts, err := service.ForecastAll(context.Background(), nil, 6)
	require.NoError(t, err)

	// Rural has a single observation and is skipped, not an error.
	require.Len(t, forecasts, 1)
	assert.Equal(t, "urban", forecasts[0].PopGroup)
	assert.Len(t, forecasts[0].Predicted, 6)
}

func TestForecastAllOrderedByGroup(t *testing.T) {
	service := seedService(t, nil,
		[4]interface{}{"A", "2024-01-01", "Urban", 1.0},
		[4]interface{}{"A", "2024-02-01", "Urban", 2.0},
		[4]interface{}{"A", "2024-01-01", "Rural", 1.0},
		[4]interface{}{"A", "2024-02-01", "Rural", 2.0},
		[4]interface{}{"A", "2024-01-01", "S - Urban", 1.0},
		[4]interface{}{"A", "2024-02-01", "S - Urban", 2.0},
	)

	forecasts, err := service.ForecastAll(context.Background(), nil, 3)
	require.NoError(t, err)
	require.Len(t, forecasts, 3)
	assert.Equal(t, "rural", forecasts[0].PopGroup)
	assert.Equal(t, "s-urban", forecasts[1].PopGroup)
	assert.Equal(t, "urban", forecasts[2].PopGroup)
}

func TestStatesBeforeRefreshIsEmpty(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	service := NewService(store.NewLoader(db, "master_data", nil), nil, nil, nil)
	assert.Empty(t, service.States())
	assert.Empty(t, service.Trends(nil))
}
