package pipeline

import (
	"testing"
	"time"

	"dealdesk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }
func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleDeals() []models.Deal {
	deals := []models.Deal{
		{
			PropertyAddress: "125 Court St, Brooklyn",
			StageID:         1,
			Value:           f64(4_500_000),
			Probability:     i(60),
			Priority:        models.PriorityHigh,
			ExpectedClose:   date(2026, 9, 15),
			DealType:        "sale",
			PropertyType:    "multifamily",
			Data: models.DivisionData{
				InvestmentSales: &models.InvestmentSalesData{CapRate: f64(5.25)},
			},
		},
		{
			PropertyAddress: "88 Pine St, Manhattan",
			StageID:         2,
			Value:           f64(12_000_000),
			Probability:     i(30),
			Priority:        models.PriorityMedium,
			ExpectedClose:   date(2026, 11, 1),
			DealType:        "sale",
			PropertyType:    "office",
			Data: models.DivisionData{
				InvestmentSales: &models.InvestmentSalesData{CapRate: f64(6.10)},
			},
		},
		{
			PropertyAddress: "350 Atlantic Ave, Brooklyn",
			StageID:         1,
			Value:           nil,
			Probability:     nil,
			Priority:        models.PriorityLow,
			DealType:        "lease",
			PropertyType:    "retail",
			Notes:           "owner wants a quiet process",
		},
	}
	for idx := range deals {
		deals[idx].ID = uint(idx + 1)
		deals[idx].CreatedAt = time.Date(2026, 8, 1+idx, 0, 0, 0, 0, time.UTC)
	}
	return deals
}

func TestApplyZeroSpecMatchesEverything(t *testing.T) {
	deals := sampleDeals()
	out := Apply(deals, FilterSpec{}, "", SortAsc)
	assert.Len(t, out, len(deals))
}

func TestApplyEmptyInput(t *testing.T) {
	out := Apply(nil, FilterSpec{Search: "brooklyn"}, "value", SortDesc)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestApplyFilters(t *testing.T) {
	deals := sampleDeals()

	tests := []struct {
		name      string
		spec      FilterSpec
		wantIDs   []uint
	}{
		{
			name:    "by stage",
			spec:    FilterSpec{StageIDs: []uint{2}},
			wantIDs: []uint{2},
		},
		{
			name:    "by priority",
			spec:    FilterSpec{Priorities: []string{models.PriorityHigh, models.PriorityLow}},
			wantIDs: []uint{1, 3},
		},
		{
			name:    "value range excludes nil values",
			spec:    FilterSpec{ValueMin: f64(1_000_000)},
			wantIDs: []uint{1, 2},
		},
		{
			name:    "value max",
			spec:    FilterSpec{ValueMax: f64(5_000_000)},
			wantIDs: []uint{1},
		},
		{
			name:    "cap rate window excludes deals without cap rate",
			spec:    FilterSpec{CapRateMin: f64(5.0), CapRateMax: f64(5.5)},
			wantIDs: []uint{1},
		},
		{
			name:    "close-before excludes missing close dates",
			spec:    FilterSpec{CloseBefore: date(2026, 10, 1)},
			wantIDs: []uint{1},
		},
		{
			name:    "property type",
			spec:    FilterSpec{PropertyTypes: []string{"office", "retail"}},
			wantIDs: []uint{2, 3},
		},
		{
			name:    "search matches address case-insensitively",
			spec:    FilterSpec{Search: "BROOKLYN"},
			wantIDs: []uint{1, 3},
		},
		{
			name:    "search matches notes",
			spec:    FilterSpec{Search: "quiet process"},
			wantIDs: []uint{3},
		},
		{
			name:    "predicates combine with AND",
			spec:    FilterSpec{StageIDs: []uint{1}, Priorities: []string{models.PriorityHigh}},
			wantIDs: []uint{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Apply(deals, tt.spec, "", SortAsc)
			gotIDs := make([]uint, 0, len(out))
			for _, d := range out {
				gotIDs = append(gotIDs, d.ID)
			}
			assert.Equal(t, tt.wantIDs, gotIDs)
		})
	}
}

func TestApplySortByValue(t *testing.T) {
	deals := sampleDeals()

	asc := Apply(deals, FilterSpec{}, "value", SortAsc)
	require.Len(t, asc, 3)
	// Nil value sorts as zero, first ascending.
	assert.Equal(t, uint(3), asc[0].ID)
	assert.Equal(t, uint(1), asc[1].ID)
	assert.Equal(t, uint(2), asc[2].ID)

	desc := Apply(deals, FilterSpec{}, "value", SortDesc)
	require.Len(t, desc, 3)
	assert.Equal(t, uint(2), desc[0].ID)
	assert.Equal(t, uint(3), desc[2].ID)
}

func TestApplySortByPriority(t *testing.T) {
	deals := sampleDeals()
	out := Apply(deals, FilterSpec{}, "priority", SortDesc)
	require.Len(t, out, 3)
	assert.Equal(t, models.PriorityHigh, out[0].Priority)
	assert.Equal(t, models.PriorityMedium, out[1].Priority)
	assert.Equal(t, models.PriorityLow, out[2].Priority)
}

func TestApplySortStableOnTies(t *testing.T) {
	deals := sampleDeals()
	// Stage 1 deals tie on stage; input order must survive the sort.
	deals[0].Value = f64(100)
	deals[2].Value = f64(100)

	out := Apply(deals, FilterSpec{StageIDs: []uint{1}}, "value", SortAsc)
	require.Len(t, out, 2)
	assert.Equal(t, uint(1), out[0].ID)
	assert.Equal(t, uint(3), out[1].ID)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	deals := sampleDeals()
	originalOrder := []uint{deals[0].ID, deals[1].ID, deals[2].ID}

	_ = Apply(deals, FilterSpec{}, "value", SortDesc)

	for idx, id := range originalOrder {
		assert.Equal(t, id, deals[idx].ID, "input slice order changed")
	}
}

func TestApplyIdempotent(t *testing.T) {
	deals := sampleDeals()
	spec := FilterSpec{Priorities: []string{models.PriorityHigh, models.PriorityMedium}}

	first := Apply(deals, spec, "expected_close", SortAsc)
	second := Apply(first, spec, "expected_close", SortAsc)
	assert.Equal(t, first, second)
}

func TestApplyUnknownSortKeyFallsBackToCreatedAt(t *testing.T) {
	deals := sampleDeals()
	out := Apply(deals, FilterSpec{}, "bogus", SortAsc)
	require.Len(t, out, 3)
	assert.True(t, out[0].CreatedAt.Before(out[1].CreatedAt))
	assert.True(t, out[1].CreatedAt.Before(out[2].CreatedAt))
}
