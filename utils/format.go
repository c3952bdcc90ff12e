package utils

import (
	"fmt"
	"strings"
)

// Display formatters for listing and deal fields. All of them are total:
// nil and non-positive inputs produce the documented fallback instead of
// an error. Fallback policy, one per semantic field:
//
//	price       -> "Price Upon Request"
//	cap rate    -> "" (card hides the row)
//	rent / size -> "—"

// FormatPrice renders a sale price compactly: $950, $2.5K, $1.5M, $2B.
func FormatPrice(v *float64) string {
	if v == nil || *v <= 0 {
		return "Price Upon Request"
	}
	return "$" + compact(*v)
}

// FormatCapRate renders a cap rate with two decimals, e.g. "5.50%".
func FormatCapRate(v *float64) string {
	if v == nil || *v <= 0 {
		return ""
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// FormatRentPSF renders asking rent per square foot, e.g. "$48.50/SF".
func FormatRentPSF(v *float64) string {
	if v == nil || *v <= 0 {
		return "—"
	}
	return fmt.Sprintf("$%.2f/SF", *v)
}

// FormatMonthlyRent renders residential rent, e.g. "$3,200/mo".
func FormatMonthlyRent(v *float64) string {
	if v == nil || *v <= 0 {
		return "—"
	}
	return fmt.Sprintf("$%s/mo", groupThousands(int64(*v+0.5)))
}

// FormatSquareFeet renders building area, e.g. "12,500 SF".
func FormatSquareFeet(v *float64) string {
	if v == nil || *v <= 0 {
		return "—"
	}
	return groupThousands(int64(*v+0.5)) + " SF"
}

// FormatUnits renders a unit count, e.g. "24 Units".
func FormatUnits(v *int) string {
	if v == nil || *v <= 0 {
		return "—"
	}
	if *v == 1 {
		return "1 Unit"
	}
	return fmt.Sprintf("%s Units", groupThousands(int64(*v)))
}

// FormatPercent renders a 0-100 percentage with no decimals, e.g. "75%".
func FormatPercent(v *int) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%d%%", *v)
}

// FormatCompactNumber renders a bare number in compact notation.
func FormatCompactNumber(v float64) string {
	if v <= 0 {
		return "0"
	}
	return compact(v)
}

// compact renders 1500000 as "1.5M", 2000 as "2K", 950 as "950".
func compact(v float64) string {
	switch {
	case v >= 1e9:
		return trimZero(fmt.Sprintf("%.1f", v/1e9)) + "B"
	case v >= 1e6:
		return trimZero(fmt.Sprintf("%.1f", v/1e6)) + "M"
	case v >= 1e3:
		return trimZero(fmt.Sprintf("%.1f", v/1e3)) + "K"
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
