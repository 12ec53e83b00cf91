package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPeriodSingleMonth(t *testing.T) {
	assert.Equal(t, "januar 2025", FormatPeriod(1, 2025, 1))
	assert.Equal(t, "desember 2025", FormatPeriod(12, 2025, 1))
}

func TestFormatPeriodFullYear(t *testing.T) {
	assert.Equal(t, "2025 (helår)", FormatPeriod(1, 2025, 12))
	// A full year starting mid-year still renders as the start year
	assert.Equal(t, "2025 (helår)", FormatPeriod(6, 2025, 12))
}

func TestFormatPeriodSpan(t *testing.T) {
	assert.Equal(t, "januar – mars 2025", FormatPeriod(1, 2025, 3))
	assert.Equal(t, "april – september 2025", FormatPeriod(4, 2025, 6))
}

func TestFormatPeriodSpanAcrossYearBoundary(t *testing.T) {
	// November + 3 months ends in January of the next year
	assert.Equal(t, "november – januar 2026", FormatPeriod(11, 2025, 3))
	assert.Equal(t, "desember – mai 2026", FormatPeriod(12, 2025, 6))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "januar", MonthName(1))
	assert.Equal(t, "desember", MonthName(12))
	assert.Equal(t, "", MonthName(0))
	assert.Equal(t, "", MonthName(13))
}

func TestIsValidPeriodMonths(t *testing.T) {
	for _, months := range []int{1, 3, 6, 12} {
		assert.True(t, IsValidPeriodMonths(months), "months=%d", months)
	}
	for _, months := range []int{0, 2, 4, 5, 7, 24, -1} {
		assert.False(t, IsValidPeriodMonths(months), "months=%d", months)
	}
}

func TestFormatAmountNOK(t *testing.T) {
	// Norwegian digit grouping uses a non-breaking space; normalize before
	// comparing so the assertion is not sensitive to the exact space rune.
	normalize := func(s string) string {
		s = strings.ReplaceAll(s, " ", " ")
		return strings.ReplaceAll(s, " ", " ")
	}

	assert.Equal(t, "999 kr", normalize(FormatAmountNOK(999)))
	assert.Equal(t, "3 600 kr", normalize(FormatAmountNOK(3600)))
	assert.Equal(t, "1 200 000 kr", normalize(FormatAmountNOK(1200000)))
	assert.Equal(t, "0 kr", normalize(FormatAmountNOK(0)))
}
