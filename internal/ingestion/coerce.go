package ingestion

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/medtrack/pointsapi/internal/domain"

	"github.com/shopspring/decimal"
)

// Spreadsheet exports are inconsistent about date and time rendering, so each
// parser walks a list of layouts. Excel additionally emits raw serial values
// for unformatted cells; those are handled as a fallback.
var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"1/2/06",
	"01-02-2006",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
}

var clockLayouts = []string{
	"3:04 PM",
	"3:04:05 PM",
	"3:04PM",
	"15:04",
	"15:04:05",
}

// missingSentinels are cell values treated as empty. Pandas-era exports of
// the same data render missing cells as literal NaN text.
var missingSentinels = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
	"n/a":  true,
	"-":    true,
}

// excelEpoch is day zero of the 1900 date system, adjusted for the
// well-known leap year bug (serial 1 is 1900-01-01, serial 60 never existed).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// cleanCell trims a cell and collapses missing-value sentinels to "".
func cleanCell(value string) string {
	trimmed := strings.TrimSpace(value)
	if missingSentinels[strings.ToLower(trimmed)] {
		return ""
	}
	return trimmed
}

// parseDate coerces a cell into a calendar date. Time-of-day components are
// discarded. Bare numbers are interpreted as Excel serial dates.
func parseDate(value string) (time.Time, error) {
	value = cleanCell(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		parsed := excelEpoch.AddDate(0, 0, int(serial))
		return parsed, nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// parseClock coerces a cell into a time of day. Full timestamps contribute
// their clock component; bare fractions are Excel day fractions.
func parseClock(value string) (domain.ClockTime, error) {
	value = cleanCell(value)
	if value == "" {
		return domain.ClockTime{}, fmt.Errorf("empty time")
	}

	for _, layout := range clockLayouts {
		if parsed, err := time.Parse(layout, strings.ToUpper(value)); err == nil {
			return domain.NewClockTime(parsed.Hour(), parsed.Minute(), parsed.Second()), nil
		}
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return domain.NewClockTime(parsed.Hour(), parsed.Minute(), parsed.Second()), nil
		}
	}

	if fraction, err := strconv.ParseFloat(value, 64); err == nil && fraction >= 0 && fraction < 1 {
		seconds := int(math.Round(fraction * 86400))
		return domain.NewClockTime(seconds/3600, (seconds/60)%60, seconds%60), nil
	}

	return domain.ClockTime{}, fmt.Errorf("unrecognized time %q", value)
}

// parseOptionalClock is parseClock for cells that are allowed to be empty.
// Unparseable non-empty cells are dropped rather than failing the row.
func parseOptionalClock(value string) *domain.ClockTime {
	clock, err := parseClock(value)
	if err != nil {
		return nil
	}
	return &clock
}

// parseDecimal coerces a cell into an exact decimal, tolerating currency-free
// numeric formatting (thousands separators, surrounding whitespace).
func parseDecimal(value string) (decimal.Decimal, error) {
	value = strings.ReplaceAll(cleanCell(value), ",", "")
	if value == "" {
		return decimal.Decimal{}, fmt.Errorf("empty number")
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unrecognized number %q", value)
	}
	return parsed, nil
}

// parseOptionalDecimal drops empty or unparseable cells.
func parseOptionalDecimal(value string) *decimal.Decimal {
	parsed, err := parseDecimal(value)
	if err != nil {
		return nil
	}
	return &parsed
}

// parseOptionalInt accepts integer cells rendered as floats ("2.0" becomes 2)
// and drops anything else.
func parseOptionalInt(value string) int {
	value = cleanCell(value)
	if value == "" {
		return 0
	}
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	if parsed, err := strconv.ParseFloat(value, 64); err == nil {
		return int(parsed)
	}
	return 0
}
