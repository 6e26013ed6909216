package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wlacli/pkg/contracts/domain"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// fixtureTable is the three-row table used across the end-to-end
// assertions: two California observations and one Texas observation.
func fixtureTable() domain.Table {
	return domain.Table{
		{State: "California", Month: month(2024, time.January), PopGroup: "urban", Avg: 10.0},
		{State: "Texas", Month: month(2024, time.January), PopGroup: "rural", Avg: 5.0},
		{State: "California", Month: month(2024, time.February), PopGroup: "urban", Avg: 20.0},
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	insights := Analyze(fixtureTable())

	assert.Equal(t, "Jan 2024 to Feb 2024", insights.DateRange)
	assert.Equal(t, 3, insights.TotalRecords)
	assert.InDelta(t, 35.0/3.0, insights.OverallAvg, 1e-9)

	assert.Equal(t, 20.0, insights.Peak.Value)
	assert.Equal(t, "Urban in California (Feb 2024)", insights.Peak.Details)

	// January mean is (10+5)/2 = 7.5, February mean is 20.
	assert.InDelta(t, (20.0-7.5)/7.5*100, insights.OverallGrowth, 1e-9)

	// Texas has a single observation and is excluded; California doubled.
	assert.Equal(t, "California", insights.MostImproved.State)
	assert.InDelta(t, 100.0, insights.MostImproved.GrowthPercent, 1e-9)

	require.Len(t, insights.Top5States, 2)
	assert.Equal(t, StateSummary{State: "California", Mean: 15.0, Count: 2}, insights.Top5States[0])
	assert.Equal(t, StateSummary{State: "Texas", Mean: 5.0, Count: 1}, insights.Top5States[1])

	require.Len(t, insights.Bottom5States, 2)
	assert.Equal(t, "Texas", insights.Bottom5States[0].State)
	assert.Equal(t, "California", insights.Bottom5States[1].State)
}

func TestAnalyzeIsPure(t *testing.T) {
	table := fixtureTable()
	first := Analyze(table)
	second := Analyze(table)

	assert.Equal(t, first, second)
	assert.Equal(t, fixtureTable(), table, "input table must not be mutated")
}

func TestPeakTieKeepsEarlierRow(t *testing.T) {
	table := domain.Table{
		{State: "Alpha", Month: month(2024, time.January), PopGroup: "urban", Avg: 9.0},
		{State: "Beta", Month: month(2024, time.February), PopGroup: "rural", Avg: 9.0},
	}

	peak := Analyze(table).Peak
	assert.Equal(t, 9.0, peak.Value)
	assert.Equal(t, "Urban in Alpha (Jan 2024)", peak.Details)
}

func TestPopGroupSummaries(t *testing.T) {
	table := domain.Table{
		{State: "A", Month: month(2024, time.January), PopGroup: "urban", Avg: 10.0},
		{State: "A", Month: month(2024, time.February), PopGroup: "urban", Avg: 14.0},
		{State: "B", Month: month(2024, time.January), PopGroup: "rural", Avg: 6.0},
	}

	summaries := Analyze(table).PopGroupTable
	require.Len(t, summaries, 2)

	urban := summaries[0]
	assert.Equal(t, "urban", urban.PopGroup)
	assert.Equal(t, 12.0, urban.Mean)
	assert.Equal(t, 10.0, urban.Min)
	assert.Equal(t, 14.0, urban.Max)
	assert.InDelta(t, math.Sqrt2*2, urban.Std, 1e-9)

	rural := summaries[1]
	assert.Equal(t, "rural", rural.PopGroup)
	assert.Equal(t, 6.0, rural.Mean)
	assert.True(t, math.IsNaN(rural.Std), "single observation has no sample deviation")
}

func TestPopGroupSummariesOrderedByMeanThenLabel(t *testing.T) {
	table := domain.Table{
		{State: "A", Month: month(2024, time.January), PopGroup: "urban", Avg: 8.0},
		{State: "A", Month: month(2024, time.January), PopGroup: "rural", Avg: 8.0},
		{State: "A", Month: month(2024, time.January), PopGroup: "s-urban", Avg: 12.0},
	}

	summaries := Analyze(table).PopGroupTable
	require.Len(t, summaries, 3)
	assert.Equal(t, "s-urban", summaries[0].PopGroup)
	assert.Equal(t, "rural", summaries[1].PopGroup)
	assert.Equal(t, "urban", summaries[2].PopGroup)
}

func TestOverallGrowthZeroBase(t *testing.T) {
	table := domain.Table{
		{State: "A", Month: month(2024, time.January), PopGroup: "urban", Avg: 0.0},
		{State: "A", Month: month(2024, time.February), PopGroup: "urban", Avg: 10.0},
	}

	assert.Equal(t, 0.0, Analyze(table).OverallGrowth)
}

func TestOverallGrowthSingleMonth(t *testing.T) {
	table := domain.Table{
		{State: "A", Month: month(2024, time.March), PopGroup: "urban", Avg: 4.0},
		{State: "B", Month: month(2024, time.March), PopGroup: "rural", Avg: 8.0},
	}

	// First and last month coincide, so growth is zero.
	assert.Equal(t, 0.0, Analyze(table).OverallGrowth)
}

func TestMostImprovedStateRequiresTwoObservations(t *testing.T) {
	table := domain.Table{
		{State: "A", Month: month(2024, time.January), PopGroup: "urban", Avg: 10.0},
		{State: "B", Month: month(2024, time.February), PopGroup: "rural", Avg: 99.0},
	}

	improved := Analyze(table).MostImproved
	assert.Equal(t, "N/A", improved.State)
	assert.Equal(t, 0.0, improved.GrowthPercent)
}

func TestMostImprovedStateZeroBaseScoresZero(t *testing.T) {
	table := domain.Table{
		{State: "Zero", Month: month(2024, time.January), PopGroup: "urban", Avg: 0.0},
		{State: "Zero", Month: month(2024, time.February), PopGroup: "urban", Avg: 50.0},
		{State: "Slow", Month: month(2024, time.January), PopGroup: "rural", Avg: 10.0},
		{State: "Slow", Month: month(2024, time.February), PopGroup: "rural", Avg: 11.0},
	}

	// Zero's base is zero so it scores 0; Slow wins with 10%.
	improved := Analyze(table).MostImproved
	assert.Equal(t, "Slow", improved.State)
	assert.InDelta(t, 10.0, improved.GrowthPercent, 1e-9)
}

func TestMostImprovedStateTieKeepsFirstAlphabetically(t *testing.T) {
	table := domain.Table{
		{State: "Bravo", Month: month(2024, time.January), PopGroup: "urban", Avg: 10.0},
		{State: "Alpha", Month: month(2024, time.January), PopGroup: "urban", Avg: 10.0},
		{State: "Alpha", Month: month(2024, time.February), PopGroup: "urban", Avg: 20.0},
		{State: "Bravo", Month: month(2024, time.February), PopGroup: "urban", Avg: 20.0},
	}

	assert.Equal(t, "Alpha", Analyze(table).MostImproved.State)
}

func TestStateRankingsCapAtFive(t *testing.T) {
	var table domain.Table
	for i, state := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		table = append(table, domain.Row{
			State: state, Month: month(2024, time.January), PopGroup: "urban", Avg: float64(i + 1),
		})
	}

	insights := Analyze(table)
	require.Len(t, insights.Top5States, 5)
	require.Len(t, insights.Bottom5States, 5)
	assert.Equal(t, "G", insights.Top5States[0].State)
	assert.Equal(t, "A", insights.Bottom5States[0].State)
}

func TestSingleRowTable(t *testing.T) {
	table := domain.Table{
		{State: "Solo", Month: month(2024, time.June), PopGroup: "urban", Avg: 42.0},
	}

	insights := Analyze(table)
	assert.Equal(t, "Jun 2024 to Jun 2024", insights.DateRange)
	assert.Equal(t, 42.0, insights.OverallAvg)
	assert.Equal(t, 0.0, insights.OverallGrowth)
	assert.Equal(t, "N/A", insights.MostImproved.State)
	require.Len(t, insights.PopGroupTable, 1)
	assert.True(t, math.IsNaN(insights.PopGroupTable[0].Std))
}
