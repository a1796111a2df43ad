package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRangePeriods(t *testing.T) {
	today := fixedNow

	week := ResolveRange(PeriodWeek, "", "", today)
	assert.Equal(t, "2025-03-15", week.StartDate())
	assert.Equal(t, "2025-03-22", week.EndDate())
	assert.Equal(t, 8, week.Days())

	month := ResolveRange("", "", "", today)
	assert.Equal(t, PeriodMonth, month.Period)
	assert.Equal(t, "2025-02-20", month.StartDate())
	assert.Equal(t, 31, month.Days())

	year := ResolveRange(PeriodYear, "", "", today)
	assert.Equal(t, "2024-03-22", year.StartDate())
	assert.True(t, year.Monthly)

	custom := ResolveRange(PeriodCustom, "2025-01-01", "2025-01-10", today)
	assert.Equal(t, "2025-01-01", custom.StartDate())
	assert.Equal(t, "2025-01-10", custom.EndDate())
	assert.Equal(t, 10, custom.Days())
}

func TestResolveRangeCustomFallsBackToLast30Days(t *testing.T) {
	for _, tc := range []struct{ start, end string }{
		{"", ""},
		{"2025-01-01", ""},
		{"garbage", "2025-01-10"},
		{"2025-02-10", "2025-02-01"},
	} {
		r := ResolveRange(PeriodCustom, tc.start, tc.end, fixedNow)
		assert.Equal(t, "2025-02-20", r.StartDate(), "start=%q end=%q", tc.start, tc.end)
		assert.Equal(t, "2025-03-22", r.EndDate())
	}

	unknown := ResolveRange("fortnight", "", "", fixedNow)
	assert.Equal(t, "2025-02-20", unknown.StartDate())
}

func TestDailySeriesIsZeroFilledAndComplete(t *testing.T) {
	r := ResolveRange(PeriodCustom, "2025-02-26", "2025-03-03", fixedNow)
	series := r.Series(map[string]int64{"2025-02-28": 3, "2025-03-02": 1, "2025-04-01": 9})

	require.Len(t, series, r.Days())
	keys := make([]string, len(series))
	for i, p := range series {
		keys[i] = p.Key
	}
	assert.Equal(t, []string{"2025-02-26", "2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02", "2025-03-03"}, keys)
	assert.Equal(t, int64(0), series[0].Count)
	assert.Equal(t, int64(3), series[2].Count)
	assert.Equal(t, int64(1), series[4].Count)
	assert.Equal(t, "28 Feb", series[2].Label)
}

func TestWeekSeriesUsesWeekdayLabels(t *testing.T) {
	r := ResolveRange(PeriodWeek, "", "", fixedNow)
	series := r.Series(nil)
	require.Len(t, series, 8)
	assert.Equal(t, "Sat", series[0].Label)
	assert.Equal(t, "Sat", series[7].Label)
}

func TestYearSeriesIsMonthly(t *testing.T) {
	r := ResolveRange(PeriodYear, "", "", fixedNow)
	series := r.Series(map[string]int64{"2025-03": 4})
	require.Len(t, series, 13)
	assert.Equal(t, "2024-03", series[0].Key)
	assert.Equal(t, "Mar 2025", series[12].Label)
	assert.Equal(t, int64(4), series[12].Count)
}

func TestSeriesSpansDaylightSavingChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	today := time.Date(2025, 3, 12, 9, 0, 0, 0, loc)
	r := ResolveRange(PeriodWeek, "", "", today)
	assert.Len(t, r.Series(nil), r.Days())
	assert.Equal(t, 8, r.Days())
}

func TestHourLabelsAndTopHours(t *testing.T) {
	assert.Equal(t, "12 AM", HourLabel(0))
	assert.Equal(t, "9 AM", HourLabel(9))
	assert.Equal(t, "12 PM", HourLabel(12))
	assert.Equal(t, "7 PM", HourLabel(19))

	top := TopHours(map[int]int64{12: 3, 19: 5, 18: 3, 9: 1, 20: 2, 13: 1}, 5)
	require.Len(t, top, 5)
	assert.Equal(t, []string{"7 PM", "12 PM", "6 PM", "8 PM", "9 AM"},
		[]string{top[0].Label, top[1].Label, top[2].Label, top[3].Label, top[4].Label})
}
