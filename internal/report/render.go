// Package report renders the insights bundle into a paginated document.
// Layout decisions live here; drawing primitives are behind the Surface
// interface so the layout is testable without a PDF backend.
package report

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"wlacli/internal/analytics"
	"wlacli/internal/errors"
)

// FontStyle selects a named font style on the surface.
type FontStyle string

const (
	StylePlain  FontStyle = ""
	StyleBold   FontStyle = "B"
	StyleItalic FontStyle = "I"
)

// Align selects horizontal cell alignment.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Surface is the abstract rendering target. Implementations own pixels,
// fonts and page geometry; the emitter only names styles and sizes.
type Surface interface {
	SetAuthor(author string)
	// SetHeaderFunc registers a callback invoked at the top of every page.
	SetHeaderFunc(fn func())
	// SetFooterFunc registers a callback invoked at the bottom of every page.
	SetFooterFunc(fn func())
	AddPage()
	SetFont(style FontStyle, size float64)
	SetFillColor(r, g, b int)
	// Cell draws one fixed-width cell. Width 0 extends to the right margin;
	// newline advances to the next line after drawing.
	Cell(w, h float64, text string, border, newline bool, align Align, fill bool)
	// MultiCell draws a wrapped text block spanning the content width.
	MultiCell(lineHeight float64, text string)
	Ln(h float64)
	SetY(y float64)
	PageNo() int
	ContentWidth() float64
	// OutputFile serializes the document to the given path.
	OutputFile(path string) error
}

// Emitter lays out the report document.
type Emitter struct {
	title  string
	author string
	now    func() time.Time
	logger *slog.Logger
}

// NewEmitter creates an emitter. The clock is injectable so tests can pin
// the generation timestamp; nil uses time.Now.
func NewEmitter(title, author string, now func() time.Time, logger *slog.Logger) *Emitter {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{title: title, author: author, now: now, logger: logger}
}

// Render draws the full report onto the surface and serializes it to path.
// A rejected write returns a RENDER error; it is not retried.
func (e *Emitter) Render(insights analytics.Insights, surface Surface, path string) error {
	generatedAt := e.now()

	surface.SetAuthor(e.author)
	surface.SetHeaderFunc(func() {
		surface.SetFont(StyleBold, 15)
		surface.Cell(0, 10, e.title, false, true, AlignCenter, false)
		surface.SetFont(StylePlain, 10)
		surface.Cell(0, 5, "Generated on: "+generatedAt.Format("2006-01-02 15:04:05"), false, true, AlignCenter, false)
		surface.Ln(10)
	})
	surface.SetFooterFunc(func() {
		surface.SetY(-15)
		surface.SetFont(StyleItalic, 8)
		surface.Cell(0, 10, fmt.Sprintf("Page %d", surface.PageNo()), false, false, AlignCenter, false)
	})
	surface.AddPage()

	e.executiveSummary(surface, insights)
	e.popGroupSection(surface, insights)
	e.stateSection(surface, insights)

	if err := surface.OutputFile(path); err != nil {
		return errors.NewRenderError("failed to write report document", err).
			WithContext("path", path)
	}

	e.logger.Info("report rendered",
		slog.String("path", path),
		slog.Int("records", insights.TotalRecords))
	return nil
}

func (e *Emitter) executiveSummary(s Surface, insights analytics.Insights) {
	chapterTitle(s, "Executive Summary")
	kpiBox(s, "Data Range Analyzed", insights.DateRange,
		"The start and end dates of the data included.")
	kpiBox(s, "Overall Average `avg`", formatFloat(insights.OverallAvg),
		"The mean `avg` across all states, pop groups, and months.")
	kpiBox(s, "Peak Performance", formatFloat(insights.Peak.Value),
		fmt.Sprintf("Achieved by %s.", insights.Peak.Details))
	kpiBox(s, "Overall Growth", formatFloat(insights.OverallGrowth)+"%",
		"Percentage change in avg `avg` from the first to the last month.")
	kpiBox(s, "Most Improved State",
		fmt.Sprintf("%s (%s%%)", insights.MostImproved.State, formatFloat(insights.MostImproved.GrowthPercent)),
		"State with the highest percentage growth over the entire period.")
	s.Ln(10)
}

func (e *Emitter) popGroupSection(s Surface, insights analytics.Insights) {
	chapterTitle(s, "Performance by POP Group")
	s.SetFont(StylePlain, 10)
	s.MultiCell(5, "This section details the performance metrics for each population group, highlighting average performance and volatility.")
	s.Ln(5)
	simpleTable(s,
		[]string{"POP Group", "Mean Avg", "Min Avg", "Max Avg", "Volatility (Std Dev)"},
		popGroupRows(insights.PopGroupTable))
	s.Ln(10)
}

func (e *Emitter) stateSection(s Surface, insights analytics.Insights) {
	chapterTitle(s, "Performance by State")
	s.SetFont(StylePlain, 10)
	s.MultiCell(5, "The following tables rank states by their average `avg` to identify top performers and areas for potential improvement.")
	s.Ln(5)

	s.SetFont(StyleBold, 10)
	s.Cell(0, 5, "Top 5 Performing States", false, true, AlignLeft, false)
	simpleTable(s, []string{"State", "Mean Avg", "Record Count"}, stateRows(insights.Top5States))
	s.Ln(5)

	s.SetFont(StyleBold, 10)
	s.Cell(0, 5, "Bottom 5 Performing States", false, true, AlignLeft, false)
	simpleTable(s, []string{"State", "Mean Avg", "Record Count"}, stateRows(insights.Bottom5States))
	s.Ln(5)
}

// chapterTitle draws a filled section heading.
func chapterTitle(s Surface, title string) {
	s.SetFont(StyleBold, 12)
	s.SetFillColor(230, 230, 230)
	s.Cell(0, 6, title, false, true, AlignLeft, true)
	s.Ln(4)
}

// kpiBox draws one (label, value, description) triple.
func kpiBox(s Surface, label, value, description string) {
	s.SetFont(StylePlain, 10)
	s.Cell(50, 6, label, true, false, AlignLeft, false)
	s.SetFont(StyleBold, 10)
	s.Cell(0, 6, value, true, true, AlignLeft, false)
	s.SetFont(StyleItalic, 9)
	s.MultiCell(5, fmt.Sprintf("  (%s)", description))
	s.Ln(2)
}

// simpleTable draws a bordered table with equal column widths. A table
// with no data rows renders a single placeholder row instead.
func simpleTable(s Surface, headers []string, rows [][]string) {
	if len(rows) == 0 {
		s.Cell(0, 10, "No data available for this section.", false, true, AlignLeft, false)
		return
	}

	colWidth := s.ContentWidth() / float64(len(headers))

	s.SetFont(StyleBold, 9)
	for _, h := range headers {
		s.Cell(colWidth, 7, h, true, false, AlignCenter, false)
	}
	s.Ln(0)

	s.SetFont(StylePlain, 9)
	for _, row := range rows {
		for _, cell := range row {
			s.Cell(colWidth, 6, cell, true, false, AlignCenter, false)
		}
		s.Ln(0)
	}
}

func popGroupRows(summaries []analytics.CategorySummary) [][]string {
	rows := make([][]string, len(summaries))
	for i, c := range summaries {
		rows[i] = []string{
			c.PopGroup,
			formatFloat(c.Mean),
			formatFloat(c.Min),
			formatFloat(c.Max),
			formatFloat(c.Std),
		}
	}
	return rows
}

func stateRows(summaries []analytics.StateSummary) [][]string {
	rows := make([][]string, len(summaries))
	for i, st := range summaries {
		rows[i] = []string{st.State, formatFloat(st.Mean), fmt.Sprintf("%d", st.Count)}
	}
	return rows
}

// formatFloat renders numeric cells with exactly 2 decimal places.
// Non-computable values (single-observation std) render as "N/A".
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", f)
}
