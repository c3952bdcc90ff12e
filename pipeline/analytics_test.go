package pipeline

import (
	"testing"
	"time"

	"dealdesk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC)

func stage(id uint, name string, order int) models.Stage {
	s := models.Stage{Name: name, DisplayOrder: order, Color: "#3B82F6"}
	s.ID = id
	return s
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil, testNow)

	assert.Equal(t, 0, s.TotalDeals)
	assert.Zero(t, s.TotalPipelineValue)
	assert.Zero(t, s.WeightedPipelineValue)
	assert.Zero(t, s.AvgDealSize)
	assert.Zero(t, s.AvgProbability)
	assert.Zero(t, s.CommissionForecast)

	// Collections are empty, never nil, so the JSON encodes as [].
	assert.NotNil(t, s.DealsByStage)
	assert.NotNil(t, s.DealsByPriority)
	assert.NotNil(t, s.ClosingThisWeek)
	assert.NotNil(t, s.ClosingThisMonth)
}

func TestSummarizeWeightedValue(t *testing.T) {
	deals := []models.Deal{
		{StageID: 1, Value: f64(100_000), Probability: i(75), Priority: models.PriorityHigh},
	}
	s := Summarize(deals, nil, testNow)

	assert.InDelta(t, 100_000, s.TotalPipelineValue, 0.001)
	assert.InDelta(t, 75_000, s.WeightedPipelineValue, 0.001)
	assert.InDelta(t, 75_000*CommissionRate, s.CommissionForecast, 0.001)
}

func TestSummarizeMissingProbability(t *testing.T) {
	deals := []models.Deal{
		{StageID: 1, Value: f64(200_000), Probability: i(80), Priority: models.PriorityHigh},
		{StageID: 1, Value: f64(100_000), Probability: nil, Priority: models.PriorityLow},
	}
	s := Summarize(deals, nil, testNow)

	// The unestimated deal weighs in at 50% but stays out of the average.
	assert.InDelta(t, 200_000*0.8+100_000*0.5, s.WeightedPipelineValue, 0.001)
	assert.InDelta(t, 80, s.AvgProbability, 0.001)
}

func TestSummarizeTwoStagePipeline(t *testing.T) {
	stages := []models.Stage{
		stage(2, "Negotiation", 1),
		stage(1, "Prospect", 0),
	}
	deals := []models.Deal{
		{StageID: 1, Value: f64(1_000_000), Probability: i(100), Priority: models.PriorityHigh},
		{StageID: 2, Value: f64(250_000), Probability: i(20), Priority: models.PriorityMedium},
	}

	s := Summarize(deals, stages, testNow)

	assert.Equal(t, 2, s.TotalDeals)
	assert.InDelta(t, 1_250_000, s.TotalPipelineValue, 0.001)
	assert.InDelta(t, 1_050_000, s.WeightedPipelineValue, 0.001)
	assert.InDelta(t, 625_000, s.AvgDealSize, 0.001)
	assert.InDelta(t, 60, s.AvgProbability, 0.001)

	// Stage breakdown follows display order, not input order.
	require.Len(t, s.DealsByStage, 2)
	assert.Equal(t, "Prospect", s.DealsByStage[0].Name)
	assert.Equal(t, "Negotiation", s.DealsByStage[1].Name)
	assert.InDelta(t, 1_000_000, s.DealsByStage[0].Value, 0.001)

	// Priority buckets come out high, medium, low with empties omitted.
	require.Len(t, s.DealsByPriority, 2)
	assert.Equal(t, models.PriorityHigh, s.DealsByPriority[0].Priority)
	assert.Equal(t, models.PriorityMedium, s.DealsByPriority[1].Priority)
}

func TestSummarizeEmptyStagesOmitted(t *testing.T) {
	stages := []models.Stage{
		stage(1, "Prospect", 0),
		stage(2, "Empty", 1),
	}
	deals := []models.Deal{
		{StageID: 1, Value: f64(500_000), Priority: models.PriorityMedium},
	}

	s := Summarize(deals, stages, testNow)
	require.Len(t, s.DealsByStage, 1)
	assert.Equal(t, "Prospect", s.DealsByStage[0].Name)
}

func TestSummarizeClosingWindows(t *testing.T) {
	mk := func(addr string, close time.Time) models.Deal {
		return models.Deal{
			PropertyAddress: addr,
			StageID:         1,
			Priority:        models.PriorityMedium,
			ExpectedClose:   &close,
		}
	}

	deals := []models.Deal{
		mk("today", testNow),
		mk("week boundary", testNow.AddDate(0, 0, 7)),
		mk("past week", testNow.AddDate(0, 0, 8)),
		mk("month boundary", testNow.AddDate(0, 0, 30)),
		mk("past month", testNow.AddDate(0, 0, 31)),
		mk("yesterday", testNow.AddDate(0, 0, -1)),
	}

	s := Summarize(deals, nil, testNow)

	weekAddrs := addresses(s.ClosingThisWeek)
	assert.Equal(t, []string{"today", "week boundary"}, weekAddrs)

	monthAddrs := addresses(s.ClosingThisMonth)
	assert.Equal(t, []string{"today", "week boundary", "past week", "month boundary"}, monthAddrs)
}

func TestSummarizeClosingWindowIgnoresTimeOfDay(t *testing.T) {
	// A close stamped late on the boundary day still counts.
	lateOnBoundary := time.Date(2026, 9, 3, 23, 59, 0, 0, time.UTC)
	deals := []models.Deal{
		{PropertyAddress: "boundary", StageID: 1, Priority: models.PriorityLow, ExpectedClose: &lateOnBoundary},
	}

	s := Summarize(deals, nil, testNow)
	require.Len(t, s.ClosingThisWeek, 1)
}

func TestClosingWindowBounds(t *testing.T) {
	win := ClosingWindow(testNow, WeekWindowDays)

	day := func(offset int, hour int) *time.Time {
		d := time.Date(2026, 8, 27+offset, hour, 0, 0, 0, time.UTC)
		return &d
	}

	tests := []struct {
		name  string
		close *time.Time
		want  bool
	}{
		{"nil close date", nil, false},
		{"yesterday", day(-1, 12), false},
		{"today at midnight", day(0, 0), true},
		{"today late evening", day(0, 23), true},
		{"final day", day(7, 23), true},
		{"one past the final day", day(8, 0), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, win.Contains(tt.close), tt.name)
	}
}

func TestClosingWindowNormalizesZones(t *testing.T) {
	win := ClosingWindow(testNow, WeekWindowDays)

	// 01:00 UTC+4 on the day after the boundary is still 21:00 on the
	// boundary day in the window's own zone.
	gulf := time.FixedZone("GST", 4*60*60)
	late := time.Date(2026, 9, 4, 1, 0, 0, 0, gulf)
	assert.True(t, win.Contains(&late))
}

func addresses(deals []models.Deal) []string {
	out := make([]string, 0, len(deals))
	for _, d := range deals {
		out = append(out, d.PropertyAddress)
	}
	return out
}
