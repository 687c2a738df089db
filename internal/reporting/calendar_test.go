package reporting

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseMonth(t *testing.T) {
	year, month, err := ParseMonth("2025-03")
	if err != nil {
		t.Fatalf("ParseMonth returned error: %v", err)
	}
	if year != 2025 || month != time.March {
		t.Fatalf("ParseMonth = %d-%d", year, month)
	}

	if _, _, err := ParseMonth("March 2025"); err == nil {
		t.Fatalf("expected error for bad month string")
	}
}

func TestMonthRangeLeapFebruary(t *testing.T) {
	start, end := MonthRange(2024, time.February)
	if !start.Equal(day(2024, time.February, 1)) || !end.Equal(day(2024, time.February, 29)) {
		t.Fatalf("MonthRange = %v..%v", start, end)
	}
}

func TestWeekRangeMonthStartsOnMonday(t *testing.T) {
	start, end := WeekRange(2025, time.September, 1)
	if !start.Equal(day(2025, time.September, 1)) || !end.Equal(day(2025, time.September, 5)) {
		t.Fatalf("week 1 = %v..%v", start, end)
	}

	start, end = WeekRange(2025, time.September, 2)
	if !start.Equal(day(2025, time.September, 8)) || !end.Equal(day(2025, time.September, 12)) {
		t.Fatalf("week 2 = %v..%v", start, end)
	}
}

func TestWeekRangeMonthStartsOnWeekend(t *testing.T) {
	// March 2025 starts on a Saturday, so week 1 begins on the first Monday.
	start, end := WeekRange(2025, time.March, 1)
	if !start.Equal(day(2025, time.March, 3)) || !end.Equal(day(2025, time.March, 7)) {
		t.Fatalf("week 1 = %v..%v", start, end)
	}

	start, _ = WeekRange(2025, time.March, 2)
	if !start.Equal(day(2025, time.March, 10)) {
		t.Fatalf("week 2 start = %v", start)
	}
}

func TestWeekRangeMidweekStartReachesIntoPriorMonth(t *testing.T) {
	// May 2025 starts on a Thursday; week 1 snaps back to that week's Monday.
	start, end := WeekRange(2025, time.May, 1)
	if !start.Equal(day(2025, time.April, 28)) || !end.Equal(day(2025, time.May, 2)) {
		t.Fatalf("week 1 = %v..%v", start, end)
	}

	start, end = WeekRange(2025, time.May, 2)
	if !start.Equal(day(2025, time.May, 5)) || !end.Equal(day(2025, time.May, 9)) {
		t.Fatalf("week 2 = %v..%v", start, end)
	}
}

func TestEachDayInclusive(t *testing.T) {
	var got []time.Time
	eachDay(day(2025, time.March, 30), day(2025, time.April, 1), func(d time.Time) {
		got = append(got, d)
	})
	if len(got) != 3 || !got[2].Equal(day(2025, time.April, 1)) {
		t.Fatalf("eachDay = %v", got)
	}
}
