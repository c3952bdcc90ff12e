package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name string
		in   *float64
		want string
	}{
		{"nil falls back", nil, "Price Upon Request"},
		{"zero falls back", fp(0), "Price Upon Request"},
		{"negative falls back", fp(-5), "Price Upon Request"},
		{"under a thousand", fp(950), "$950"},
		{"thousands", fp(2000), "$2K"},
		{"thousands with fraction", fp(2500), "$2.5K"},
		{"millions", fp(1_500_000), "$1.5M"},
		{"whole millions trimmed", fp(4_000_000), "$4M"},
		{"billions", fp(2_000_000_000), "$2B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(tt.in))
		})
	}
}

func TestFormatCapRate(t *testing.T) {
	assert.Equal(t, "", FormatCapRate(nil))
	assert.Equal(t, "", FormatCapRate(fp(0)))
	assert.Equal(t, "5.50%", FormatCapRate(fp(5.5)))
	assert.Equal(t, "5.25%", FormatCapRate(fp(5.25)))
}

func TestFormatRentPSF(t *testing.T) {
	assert.Equal(t, "—", FormatRentPSF(nil))
	assert.Equal(t, "$48.50/SF", FormatRentPSF(fp(48.5)))
}

func TestFormatMonthlyRent(t *testing.T) {
	assert.Equal(t, "—", FormatMonthlyRent(nil))
	assert.Equal(t, "$3,200/mo", FormatMonthlyRent(fp(3200)))
	assert.Equal(t, "$950/mo", FormatMonthlyRent(fp(950)))
}

func TestFormatSquareFeet(t *testing.T) {
	assert.Equal(t, "—", FormatSquareFeet(nil))
	assert.Equal(t, "—", FormatSquareFeet(fp(-1)))
	assert.Equal(t, "850 SF", FormatSquareFeet(fp(850)))
	assert.Equal(t, "12,500 SF", FormatSquareFeet(fp(12500)))
	assert.Equal(t, "1,250,000 SF", FormatSquareFeet(fp(1_250_000)))
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "—", FormatUnits(nil))
	assert.Equal(t, "—", FormatUnits(ip(0)))
	assert.Equal(t, "1 Unit", FormatUnits(ip(1)))
	assert.Equal(t, "24 Units", FormatUnits(ip(24)))
	assert.Equal(t, "1,024 Units", FormatUnits(ip(1024)))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "—", FormatPercent(nil))
	assert.Equal(t, "0%", FormatPercent(ip(0)))
	assert.Equal(t, "75%", FormatPercent(ip(75)))
}

func TestFormatCompactNumber(t *testing.T) {
	assert.Equal(t, "0", FormatCompactNumber(0))
	assert.Equal(t, "950", FormatCompactNumber(950))
	assert.Equal(t, "1.5M", FormatCompactNumber(1_500_000))
}
