package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/yeremiapane/restaurant-booking/models"
)

const (
	PeriodWeek   = "week"
	PeriodMonth  = "month"
	PeriodYear   = "year"
	PeriodCustom = "custom"

	ReportBookings  = "bookings"
	ReportCustomers = "customers"

	monthKeyLayout = "2006-01"
)

// ReportRange is an inclusive span of whole days.
type ReportRange struct {
	Period  string    `json:"period"`
	Start   time.Time `json:"-"`
	End     time.Time `json:"-"`
	Monthly bool      `json:"monthly"`
}

// ResolveRange turns the report query into dates. Every period except a
// valid custom one ends today; a custom range that is missing, unparsable or
// reversed silently becomes the last 30 days.
func ResolveRange(period, startRaw, endRaw string, today time.Time) ReportRange {
	today = truncateDay(today)
	if period == "" {
		period = PeriodMonth
	}
	r := ReportRange{Period: period, End: today}

	switch period {
	case PeriodWeek:
		r.Start = today.AddDate(0, 0, -7)
	case PeriodMonth:
		r.Start = today.AddDate(0, 0, -30)
	case PeriodYear:
		r.Start = today.AddDate(0, 0, -365)
		r.Monthly = true
	default:
		start, errS := time.ParseInLocation(models.DateLayout, startRaw, today.Location())
		end, errE := time.ParseInLocation(models.DateLayout, endRaw, today.Location())
		if errS != nil || errE != nil || start.After(end) {
			r.Start = today.AddDate(0, 0, -30)
			return r
		}
		r.Start, r.End = start, end
	}
	return r
}

// Days is the number of calendar days in the range, both ends included.
func (r ReportRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24+0.5) + 1
}

func (r ReportRange) StartDate() string { return r.Start.Format(models.DateLayout) }
func (r ReportRange) EndDate() string   { return r.End.Format(models.DateLayout) }

// BucketKey maps a day to the series bucket it falls into.
func (r ReportRange) BucketKey(day time.Time) string {
	if r.Monthly {
		return day.Format(monthKeyLayout)
	}
	return day.Format(models.DateLayout)
}

func (r ReportRange) label(day time.Time) string {
	switch {
	case r.Monthly:
		return day.Format("Jan 2006")
	case r.Period == PeriodWeek:
		return day.Format("Mon")
	default:
		return day.Format("02 Jan")
	}
}

type SeriesPoint struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Series lays the counts over every bucket of the range, zero-filled, each
// bucket exactly once and in order.
func (r ReportRange) Series(counts map[string]int64) []SeriesPoint {
	var out []SeriesPoint
	if r.Monthly {
		cur := time.Date(r.Start.Year(), r.Start.Month(), 1, 0, 0, 0, 0, r.Start.Location())
		last := time.Date(r.End.Year(), r.End.Month(), 1, 0, 0, 0, 0, r.End.Location())
		for !cur.After(last) {
			key := r.BucketKey(cur)
			out = append(out, SeriesPoint{Key: key, Label: r.label(cur), Count: counts[key]})
			cur = cur.AddDate(0, 1, 0)
		}
		return out
	}
	for cur := r.Start; !cur.After(r.End); cur = cur.AddDate(0, 0, 1) {
		key := r.BucketKey(cur)
		out = append(out, SeriesPoint{Key: key, Label: r.label(cur), Count: counts[key]})
	}
	return out
}

// HourLabel renders 0-23 as "12 AM" .. "11 PM".
func HourLabel(hour int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d %s", display, suffix)
}

type HourCount struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// TopHours returns the n busiest hours, ties broken by the earlier hour.
func TopHours(byHour map[int]int64, n int) []HourCount {
	out := make([]HourCount, 0, len(byHour))
	for h, c := range byHour {
		out = append(out, HourCount{Hour: h, Label: HourLabel(h), Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
