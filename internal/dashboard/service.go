// Package dashboard serves interactive trend and forecast views over the
// canonical table: monthly aggregates, per-category forecasts, charts and
// CSV downloads. Computation is re-run per request against an immutable
// snapshot of the table; refresh swaps the snapshot atomically.
package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wlacli/internal/errors"
	"wlacli/internal/forecast"
	"wlacli/internal/store"
	"wlacli/pkg/contracts/domain"
)

// TrendPoint is the monthly mean for one pop group across the selected
// states.
type TrendPoint struct {
	Month    time.Time `json:"month"`
	PopGroup string    `json:"pop_group"`
	Avg      float64   `json:"avg"`
}

// GroupForecast pairs a group's historical series with its predictions.
type GroupForecast struct {
	PopGroup  string           `json:"pop_group"`
	Actual    []forecast.Point `json:"actual"`
	Predicted []forecast.Point `json:"predicted"`
}

// Service owns the dashboard's data snapshot and its aggregations.
type Service struct {
	loader    *store.Loader
	popGroups []string
	newModel  func() forecast.Model
	logger    *slog.Logger

	mu    sync.RWMutex
	table domain.Table
}

// NewService creates a dashboard service. popGroups are the raw category
// labels passed to the store filter. The model factory is injectable;
// nil selects the linear trend model.
func NewService(loader *store.Loader, popGroups []string, newModel func() forecast.Model, logger *slog.Logger) *Service {
	if newModel == nil {
		newModel = func() forecast.Model { return forecast.NewLinearTrend() }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		loader:    loader,
		popGroups: popGroups,
		newModel:  newModel,
		logger:    logger,
	}
}

// Refresh reloads the table from the store and swaps the snapshot.
func (s *Service) Refresh(ctx context.Context) error {
	table, err := s.loader.Load(ctx, s.popGroups...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.table = table
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dashboard data refreshed", slog.Int("rows", len(table)))
	return nil
}

// snapshot returns the current table. The table itself is never mutated,
// so holding the returned value outside the lock is safe.
func (s *Service) snapshot() domain.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// States returns the distinct states available for selection.
func (s *Service) States() []string {
	return s.snapshot().States()
}

// Trends aggregates the selected states into the monthly mean per
// (month, pop group), sorted by month then group label. An empty state
// selection means all states; unknown states are simply absent.
func (s *Service) Trends(states []string) []TrendPoint {
	filtered := s.snapshot().FilterStates(states)

	type key struct {
		month time.Time
		group string
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)
	for _, row := range filtered {
		k := key{month: row.Month, group: row.PopGroup}
		sums[k] += row.Avg
		counts[k]++
	}

	points := make([]TrendPoint, 0, len(sums))
	for k, sum := range sums {
		points = append(points, TrendPoint{
			Month:    k.month,
			PopGroup: k.group,
			Avg:      sum / float64(counts[k]),
		})
	}

	sort.Slice(points, func(i, j int) bool {
		if !points[i].Month.Equal(points[j].Month) {
			return points[i].Month.Before(points[j].Month)
		}
		return points[i].PopGroup < points[j].PopGroup
	})

	return points
}

// groupSeries extracts one group's trend as a forecastable series.
func groupSeries(trends []TrendPoint, group string) []forecast.Point {
	var series []forecast.Point
	for _, p := range trends {
		if p.PopGroup == group {
			series = append(series, forecast.Point{Month: p.Month, Value: p.Avg})
		}
	}
	return series
}

// ForecastGroup fits a model to one group's aggregated series and
// predicts the given number of months. A series shorter than the model
// minimum yields a VALIDATION error; the model is not called.
func (s *Service) ForecastGroup(states []string, group string, months int) (GroupForecast, error) {
	series := groupSeries(s.Trends(states), group)
	if len(series) < forecast.MinObservations {
		return GroupForecast{}, errors.NewValidationError("not enough data points to create a forecast").
			WithContext("pop_group", group).
			WithContext("observations", len(series))
	}

	model := s.newModel()
	if err := model.Fit(series); err != nil {
		return GroupForecast{}, err
	}

	return GroupForecast{
		PopGroup:  group,
		Actual:    series,
		Predicted: model.Predict(months),
	}, nil
}

// ForecastAll runs one forecast per available group concurrently and
// returns them in group-label order. Groups with too few observations
// are skipped rather than failing the comparison.
func (s *Service) ForecastAll(ctx context.Context, states []string, months int) ([]GroupForecast, error) {
	trends := s.Trends(states)

	seen := make(map[string]bool)
	var groups []string
	for _, p := range trends {
		if !seen[p.PopGroup] {
			seen[p.PopGroup] = true
			groups = append(groups, p.PopGroup)
		}
	}
	sort.Strings(groups)

	results := make([]*GroupForecast, len(groups))
	g, ctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			series := groupSeries(trends, group)
			if len(series) < forecast.MinObservations {
				return nil
			}
			model := s.newModel()
			if err := model.Fit(series); err != nil {
				return err
			}
			results[i] = &GroupForecast{
				PopGroup:  group,
				Actual:    series,
				Predicted: model.Predict(months),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	forecasts := make([]GroupForecast, 0, len(results))
	for _, r := range results {
		if r != nil {
			forecasts = append(forecasts, *r)
		}
	}
	return forecasts, nil
}
