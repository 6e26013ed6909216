// Package analytics computes the insights bundle over a canonical table:
// overall summary figures, per-category statistics, state rankings and
// growth metrics. Analyze is a pure function of its input.
package analytics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"wlacli/pkg/contracts/domain"
)

// monthFormat is the display format for calendar months, e.g. "Feb 2024".
const monthFormat = "Jan 2006"

// PeakPerformance is the single best observation in the table.
type PeakPerformance struct {
	Value   float64 `json:"value"`
	Details string  `json:"details"`
}

// CategorySummary holds the descriptive statistics for one pop group.
// Std is the sample standard deviation; it is NaN for a group with a
// single observation, which renders as "N/A".
type CategorySummary struct {
	PopGroup string  `json:"pop_group"`
	Mean     float64 `json:"mean"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Std      float64 `json:"std"`
}

// StateSummary holds the ranking figures for one state.
type StateSummary struct {
	State string  `json:"state"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// ImprovedState names the state with the highest growth between its own
// earliest and latest observation. State is "N/A" when no state has at
// least two observations.
type ImprovedState struct {
	State         string  `json:"state"`
	GrowthPercent float64 `json:"growth_percent"`
}

// Insights is the immutable analysis bundle consumed by the report emitter
// and the dashboard.
type Insights struct {
	DateRange     string            `json:"date_range"`
	TotalRecords  int               `json:"total_records"`
	OverallAvg    float64           `json:"overall_avg"`
	Peak          PeakPerformance   `json:"peak_performance"`
	PopGroupTable []CategorySummary `json:"pop_group_table"`
	Top5States    []StateSummary    `json:"top_5_states"`
	Bottom5States []StateSummary    `json:"bottom_5_states"`
	OverallGrowth float64           `json:"overall_growth"`
	MostImproved  ImprovedState     `json:"most_improved_state"`
}

// Analyze computes the full insights bundle. The table must be non-empty
// and sorted ascending by month; the pipeline driver guarantees both.
func Analyze(table domain.Table) Insights {
	first := table[0].Month
	last := table[len(table)-1].Month

	values := make([]float64, len(table))
	for i, row := range table {
		values[i] = row.Avg
	}

	insights := Insights{
		DateRange:     fmt.Sprintf("%s to %s", first.Format(monthFormat), last.Format(monthFormat)),
		TotalRecords:  len(table),
		OverallAvg:    stat.Mean(values, nil),
		Peak:          peakPerformance(table),
		PopGroupTable: popGroupSummaries(table),
		OverallGrowth: overallGrowth(table),
		MostImproved:  mostImprovedState(table),
	}
	insights.Top5States, insights.Bottom5States = stateRankings(table)

	return insights
}

// peakPerformance finds the row with the maximum avg. Ties keep the first
// such row in table order.
func peakPerformance(table domain.Table) PeakPerformance {
	best := 0
	for i, row := range table {
		if row.Avg > table[best].Avg {
			best = i
		}
	}
	peak := table[best]
	return PeakPerformance{
		Value: peak.Avg,
		Details: fmt.Sprintf("%s in %s (%s)",
			domain.CapitalizePopGroup(peak.PopGroup), peak.State, peak.Month.Format(monthFormat)),
	}
}

// popGroupSummaries groups rows by pop group and computes mean, min, max
// and sample standard deviation, sorted by mean descending with ties broken
// by group label ascending.
func popGroupSummaries(table domain.Table) []CategorySummary {
	grouped := make(map[string][]float64)
	for _, row := range table {
		grouped[row.PopGroup] = append(grouped[row.PopGroup], row.Avg)
	}

	summaries := make([]CategorySummary, 0, len(grouped))
	for group, vals := range grouped {
		s := CategorySummary{
			PopGroup: group,
			Mean:     stat.Mean(vals, nil),
			Min:      vals[0],
			Max:      vals[0],
			Std:      stat.StdDev(vals, nil),
		}
		for _, v := range vals[1:] {
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
		summaries = append(summaries, s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Mean != summaries[j].Mean {
			return summaries[i].Mean > summaries[j].Mean
		}
		return summaries[i].PopGroup < summaries[j].PopGroup
	})

	return summaries
}

// stateRankings groups rows by state and returns the top-5 and bottom-5
// states by mean. Ties are broken by state name ascending in both lists.
func stateRankings(table domain.Table) (top, bottom []StateSummary) {
	grouped := make(map[string][]float64)
	for _, row := range table {
		grouped[row.State] = append(grouped[row.State], row.Avg)
	}

	summaries := make([]StateSummary, 0, len(grouped))
	for state, vals := range grouped {
		summaries = append(summaries, StateSummary{
			State: state,
			Mean:  stat.Mean(vals, nil),
			Count: len(vals),
		})
	}

	byMeanDesc := make([]StateSummary, len(summaries))
	copy(byMeanDesc, summaries)
	sort.Slice(byMeanDesc, func(i, j int) bool {
		if byMeanDesc[i].Mean != byMeanDesc[j].Mean {
			return byMeanDesc[i].Mean > byMeanDesc[j].Mean
		}
		return byMeanDesc[i].State < byMeanDesc[j].State
	})

	byMeanAsc := make([]StateSummary, len(summaries))
	copy(byMeanAsc, summaries)
	sort.Slice(byMeanAsc, func(i, j int) bool {
		if byMeanAsc[i].Mean != byMeanAsc[j].Mean {
			return byMeanAsc[i].Mean < byMeanAsc[j].Mean
		}
		return byMeanAsc[i].State < byMeanAsc[j].State
	})

	return firstN(byMeanDesc, 5), firstN(byMeanAsc, 5)
}

// overallGrowth compares the mean avg of all rows in the globally earliest
// month against the mean of all rows in the latest month. A zero base
// yields growth 0, not an error.
func overallGrowth(table domain.Table) float64 {
	minMonth := table[0].Month
	maxMonth := table[len(table)-1].Month

	var firstSum, lastSum float64
	var firstN, lastN int
	for _, row := range table {
		if row.Month.Equal(minMonth) {
			firstSum += row.Avg
			firstN++
		}
		if row.Month.Equal(maxMonth) {
			lastSum += row.Avg
			lastN++
		}
	}

	firstMean := firstSum / float64(firstN)
	lastMean := lastSum / float64(lastN)
	if firstMean == 0 {
		return 0
	}
	return (lastMean - firstMean) / firstMean * 100
}

// mostImprovedState finds the state with the highest growth between its
// own earliest and latest observation. Only states with at least two
// observations qualify; each state's window is its own, not the global
// date range. States whose earliest value is zero contribute growth 0.
func mostImprovedState(table domain.Table) ImprovedState {
	type span struct {
		first, last float64
		count       int
	}
	spans := make(map[string]*span)
	// Table order is month-ascending, so the first occurrence per state is
	// its earliest observation and the last occurrence its latest.
	for _, row := range table {
		s, ok := spans[row.State]
		if !ok {
			spans[row.State] = &span{first: row.Avg, last: row.Avg, count: 1}
			continue
		}
		s.last = row.Avg
		s.count++
	}

	states := make([]string, 0, len(spans))
	for state, s := range spans {
		if s.count >= 2 {
			states = append(states, state)
		}
	}
	if len(states) == 0 {
		return ImprovedState{State: "N/A", GrowthPercent: 0}
	}
	sort.Strings(states)

	best := ImprovedState{State: states[0], GrowthPercent: stateGrowth(spans[states[0]].first, spans[states[0]].last)}
	for _, state := range states[1:] {
		if g := stateGrowth(spans[state].first, spans[state].last); g > best.GrowthPercent {
			best = ImprovedState{State: state, GrowthPercent: g}
		}
	}
	return best
}

func stateGrowth(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

func firstN(s []StateSummary, n int) []StateSummary {
	if len(s) < n {
		n = len(s)
	}
	out := make([]StateSummary, n)
	copy(out, s[:n])
	return out
}
