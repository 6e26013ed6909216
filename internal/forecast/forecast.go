// Package forecast defines the fit/predict contract consumed by the
// dashboard and provides a linear trend model as the default
// implementation. The dashboard never depends on a model's internals;
// any Model can be substituted.
package forecast

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"wlacli/internal/errors"
)

// MinObservations is the smallest series a model can be fitted to.
// Callers with fewer points must report insufficient data instead of
// calling Fit.
const MinObservations = 2

// Point is one (month, value) observation or prediction.
type Point struct {
	Month time.Time `json:"month"`
	Value float64   `json:"value"`
}

// Model is the opaque forecasting contract: fit a monthly series, then
// predict a fixed number of months past its end.
type Model interface {
	Fit(series []Point) error
	Predict(horizon int) []Point
}

// LinearTrend fits an ordinary least-squares line over the series and
// extends it one calendar month per step.
type LinearTrend struct {
	alpha, beta float64
	lastMonth   time.Time
	n           int
}

// NewLinearTrend returns an unfitted linear trend model.
func NewLinearTrend() *LinearTrend {
	return &LinearTrend{}
}

// Fit estimates the trend line. The series must be sorted ascending by
// month and hold at least MinObservations points.
func (m *LinearTrend) Fit(series []Point) error {
	if len(series) < MinObservations {
		return errors.NewValidationError("forecast requires at least 2 observations").
			WithContext("observations", len(series))
	}

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = float64(i)
		ys[i] = p.Value
	}

	m.alpha, m.beta = stat.LinearRegression(xs, ys, nil, false)
	m.lastMonth = series[len(series)-1].Month
	m.n = len(series)
	return nil
}

// Predict returns horizon monthly points continuing the fitted trend.
// Calling Predict before a successful Fit returns nil.
func (m *LinearTrend) Predict(horizon int) []Point {
	if m.n == 0 || horizon <= 0 {
		return nil
	}

	points := make([]Point, horizon)
	for i := 0; i < horizon; i++ {
		x := float64(m.n + i)
		points[i] = Point{
			Month: m.lastMonth.AddDate(0, i+1, 0),
			Value: m.alpha + m.beta*x,
		}
	}
	return points
}
