package reporting

import (
	"fmt"
	"time"
)

const dateFormat = "2006-01-02"

// ParseMonth parses a "YYYY-MM" month string.
func ParseMonth(value string) (int, time.Month, error) {
	parsed, err := time.Parse("2006-01", value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", value)
	}
	return parsed.Year(), parsed.Month(), nil
}

// MonthRange returns the first and last day of a month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

// WeekRange returns the Monday-Friday range for a 1-based week of a month.
// When the month starts on a weekday, week 1 counts from the 1st and the
// start snaps back to that week's Monday, so it can reach into the previous
// month. When the month starts on a weekend, week 1 begins on the first
// Monday inside the month.
func WeekRange(year int, month time.Month, week int) (time.Time, time.Time) {
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	var start time.Time
	if wd := mondayIndexed(firstDay); wd <= 4 {
		start = firstDay.AddDate(0, 0, 7*(week-1))
		start = start.AddDate(0, 0, -mondayIndexed(start))
	} else {
		firstMonday := firstDay.AddDate(0, 0, 7-wd)
		start = firstMonday.AddDate(0, 0, 7*(week-1))
	}

	return start, start.AddDate(0, 0, 4)
}

// mondayIndexed returns the weekday with Monday as 0 and Sunday as 6.
func mondayIndexed(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// eachDay calls fn once per calendar day from start through end inclusive.
func eachDay(start, end time.Time, fn func(time.Time)) {
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}
