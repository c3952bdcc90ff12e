// Package pipeline holds the pure deal-pipeline logic: the filter/sort
// engine applied to in-memory deal collections and the analytics
// aggregator behind the dashboard. Nothing in this package touches the
// database or the wall clock.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"dealdesk/models"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// FilterSpec is a set of independent, AND-combined predicates. The zero
// value matches every deal.
type FilterSpec struct {
	StageIDs   []uint   `json:"stage_ids"`
	Priorities []string `json:"priorities"`

	ValueMin *float64 `json:"value_min"`
	ValueMax *float64 `json:"value_max"`

	CapRateMin *float64 `json:"cap_rate_min"`
	CapRateMax *float64 `json:"cap_rate_max"`

	CloseAfter  *time.Time `json:"close_after"`
	CloseBefore *time.Time `json:"close_before"`

	PropertyTypes []string `json:"property_types"`
	DealTypes     []string `json:"deal_types"`

	// Search is matched case-insensitively against address and notes.
	Search string `json:"search"`
}

// priorityOrdinal fixes the sort order of priorities. Unknown or empty
// priorities sort below low.
var priorityOrdinal = map[string]int{
	models.PriorityHigh:   3,
	models.PriorityMedium: 2,
	models.PriorityLow:    1,
}

// Apply filters and sorts deals without mutating the input slice. Ties
// under the sort key keep their input order.
func Apply(deals []models.Deal, spec FilterSpec, sortKey string, dir SortDirection) []models.Deal {
	out := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		if spec.matches(&d) {
			out = append(out, d)
		}
	}

	if sortKey != "" {
		less := comparator(sortKey)
		sort.SliceStable(out, func(i, j int) bool {
			if dir == SortDesc {
				return less(&out[j], &out[i])
			}
			return less(&out[i], &out[j])
		})
	}
	return out
}

func (f FilterSpec) matches(d *models.Deal) bool {
	if len(f.StageIDs) > 0 && !containsUint(f.StageIDs, d.StageID) {
		return false
	}
	if len(f.Priorities) > 0 && !containsString(f.Priorities, d.Priority) {
		return false
	}
	if f.ValueMin != nil && (d.Value == nil || *d.Value < *f.ValueMin) {
		return false
	}
	if f.ValueMax != nil && (d.Value == nil || *d.Value > *f.ValueMax) {
		return false
	}
	if f.CapRateMin != nil || f.CapRateMax != nil {
		cr := d.CapRate()
		if cr == nil {
			return false
		}
		if f.CapRateMin != nil && *cr < *f.CapRateMin {
			return false
		}
		if f.CapRateMax != nil && *cr > *f.CapRateMax {
			return false
		}
	}
	if f.CloseAfter != nil && (d.ExpectedClose == nil || d.ExpectedClose.Before(*f.CloseAfter)) {
		return false
	}
	if f.CloseBefore != nil && (d.ExpectedClose == nil || d.ExpectedClose.After(*f.CloseBefore)) {
		return false
	}
	if len(f.PropertyTypes) > 0 && !containsString(f.PropertyTypes, d.PropertyType) {
		return false
	}
	if len(f.DealTypes) > 0 && !containsString(f.DealTypes, d.DealType) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(d.PropertyAddress), needle) &&
			!strings.Contains(strings.ToLower(d.Notes), needle) {
			return false
		}
	}
	return true
}

// comparator returns an ascending less-func for the given sort key.
// Unknown keys fall back to creation time.
func comparator(key string) func(a, b *models.Deal) bool {
	switch key {
	case "value":
		return func(a, b *models.Deal) bool {
			return floatOrZero(a.Value) < floatOrZero(b.Value)
		}
	case "probability":
		return func(a, b *models.Deal) bool {
			return intOrZero(a.Probability) < intOrZero(b.Probability)
		}
	case "priority":
		return func(a, b *models.Deal) bool {
			return priorityOrdinal[a.Priority] < priorityOrdinal[b.Priority]
		}
	case "expected_close":
		return func(a, b *models.Deal) bool {
			return epochMillis(a.ExpectedClose) < epochMillis(b.ExpectedClose)
		}
	case "property_address":
		return func(a, b *models.Deal) bool {
			return strings.ToLower(a.PropertyAddress) < strings.ToLower(b.PropertyAddress)
		}
	case "deal_type":
		return func(a, b *models.Deal) bool {
			return strings.ToLower(a.DealType) < strings.ToLower(b.DealType)
		}
	case "property_type":
		return func(a, b *models.Deal) bool {
			return strings.ToLower(a.PropertyType) < strings.ToLower(b.PropertyType)
		}
	default:
		return func(a, b *models.Deal) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
}

// epochMillis converts a nullable date for comparison. Missing dates sort
// as epoch zero, so they group at the start of an ascending sort.
func epochMillis(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func containsUint(haystack []uint, needle uint) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
