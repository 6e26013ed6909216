package dashboard

import (
	"bytes"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"wlacli/internal/errors"
)

// RenderTrendChart draws the monthly trend aggregate as a PNG line chart,
// one line per pop group.
func RenderTrendChart(trends []TrendPoint) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Monthly Avg Trends"
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "Average Value"
	p.X.Tick.Marker = plot.TimeTicks{Format: "Jan 2006"}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	series := make(map[string]plotter.XYs)
	var groups []string
	for _, t := range trends {
		if _, ok := series[t.PopGroup]; !ok {
			groups = append(groups, t.PopGroup)
		}
		series[t.PopGroup] = append(series[t.PopGroup], plotter.XY{
			X: float64(t.Month.Unix()),
			Y: t.Avg,
		})
	}

	for i, group := range groups {
		line, points, err := plotter.NewLinePoints(series[group])
		if err != nil {
			return nil, errors.NewRenderError("failed to build trend line", err)
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(group, line, points)
	}

	writer, err := p.WriterTo(10*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return nil, errors.NewRenderError("failed to render trend chart", err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, errors.NewRenderError("failed to encode trend chart", err)
	}
	return buf.Bytes(), nil
}
