package pipeline

import (
	"sort"
	"time"

	"dealdesk/models"
)

// CommissionRate is the flat forecast rate applied to the weighted
// pipeline value when no explicit commission total exists.
const CommissionRate = 0.03

// defaultProbability is assumed for deals whose close probability has not
// been estimated yet. It only affects the weighted value; the probability
// average excludes such deals entirely.
const defaultProbability = 50

type StageBreakdown struct {
	StageID uint    `json:"stage_id"`
	Name    string  `json:"name"`
	Color   string  `json:"color"`
	Count   int     `json:"count"`
	Value   float64 `json:"value"`
}

type PriorityBreakdown struct {
	Priority string  `json:"priority"`
	Count    int     `json:"count"`
	Value    float64 `json:"value"`
}

type Summary struct {
	TotalDeals            int                 `json:"total_deals"`
	TotalPipelineValue    float64             `json:"total_pipeline_value"`
	WeightedPipelineValue float64             `json:"weighted_pipeline_value"`
	AvgDealSize           float64             `json:"avg_deal_size"`
	AvgProbability        float64             `json:"avg_probability"`
	DealsByStage          []StageBreakdown    `json:"deals_by_stage"`
	DealsByPriority       []PriorityBreakdown `json:"deals_by_priority"`
	ClosingThisWeek       []models.Deal       `json:"closing_this_week"`
	ClosingThisMonth      []models.Deal       `json:"closing_this_month"`
	CommissionForecast    float64             `json:"commission_forecast"`
}

// Closing-window lengths shared by the summary, the closing-deals
// endpoint and the reminder worker.
const (
	WeekWindowDays  = 7
	MonthWindowDays = 30
)

// Window is a day-granular closing window, inclusive on both bounds.
type Window struct {
	Start time.Time
	End   time.Time
}

// ClosingWindow returns the window of the given length starting today.
// This is the single definition of the boundary rule: a close stamped at
// 23:59 on the final day still falls inside.
func ClosingWindow(now time.Time, days int) Window {
	today := truncateToDay(now)
	return Window{Start: today, End: today.AddDate(0, 0, days)}
}

// Contains reports whether the nullable close date falls in the window.
func (w Window) Contains(t *time.Time) bool {
	if t == nil {
		return false
	}
	day := truncateToDay(t.In(w.Start.Location()))
	return !day.Before(w.Start) && !day.After(w.End)
}

// Summarize aggregates a deal collection into the pipeline dashboard
// summary. The reference time is an explicit parameter so the closing
// windows are deterministic under test; callers pass time.Now().
//
// Null handling is deliberate and asymmetric: a missing value counts as 0
// in the sums, a missing probability counts as 50% in the weighted value
// but is excluded from the probability average.
func Summarize(deals []models.Deal, stages []models.Stage, now time.Time) Summary {
	s := Summary{
		TotalDeals:       len(deals),
		DealsByStage:     []StageBreakdown{},
		DealsByPriority:  []PriorityBreakdown{},
		ClosingThisWeek:  []models.Deal{},
		ClosingThisMonth: []models.Deal{},
	}

	week := ClosingWindow(now, WeekWindowDays)
	month := ClosingWindow(now, MonthWindowDays)

	stageCounts := make(map[uint]int)
	stageValues := make(map[uint]float64)
	priorityCounts := make(map[string]int)
	priorityValues := make(map[string]float64)

	var probabilitySum, probabilityCount float64

	for _, d := range deals {
		value := floatOrZero(d.Value)
		s.TotalPipelineValue += value

		probability := defaultProbability
		if d.Probability != nil {
			probability = *d.Probability
			probabilitySum += float64(probability)
			probabilityCount++
		}
		s.WeightedPipelineValue += value * float64(probability) / 100

		stageCounts[d.StageID]++
		stageValues[d.StageID] += value

		priorityCounts[d.Priority]++
		priorityValues[d.Priority] += value

		if week.Contains(d.ExpectedClose) {
			s.ClosingThisWeek = append(s.ClosingThisWeek, d)
		}
		if month.Contains(d.ExpectedClose) {
			s.ClosingThisMonth = append(s.ClosingThisMonth, d)
		}
	}

	if s.TotalDeals > 0 {
		s.AvgDealSize = s.TotalPipelineValue / float64(s.TotalDeals)
	}
	if probabilityCount > 0 {
		s.AvgProbability = probabilitySum / probabilityCount
	}
	s.CommissionForecast = s.WeightedPipelineValue * CommissionRate

	// Stage breakdown follows pipeline display order; empty stages are
	// omitted.
	ordered := make([]models.Stage, len(stages))
	copy(ordered, stages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DisplayOrder < ordered[j].DisplayOrder
	})
	for _, st := range ordered {
		if stageCounts[st.ID] == 0 {
			continue
		}
		s.DealsByStage = append(s.DealsByStage, StageBreakdown{
			StageID: st.ID,
			Name:    st.Name,
			Color:   st.Color,
			Count:   stageCounts[st.ID],
			Value:   stageValues[st.ID],
		})
	}

	for _, p := range []string{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		if priorityCounts[p] == 0 {
			continue
		}
		s.DealsByPriority = append(s.DealsByPriority, PriorityBreakdown{
			Priority: p,
			Count:    priorityCounts[p],
			Value:    priorityValues[p],
		})
	}

	return s
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
