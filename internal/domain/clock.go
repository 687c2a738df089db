package domain

import (
	"fmt"
	"time"
)

// ClockTime is a time of day without a date or zone, matching the TIME
// columns the appointment fields persist to. It serializes as "HH:MM:SS".
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

// NewClockTime builds a clock time from its components.
func NewClockTime(hour, minute, second int) ClockTime {
	return ClockTime{Hour: hour, Minute: minute, Second: second}
}

// ClockTimeOf extracts the clock component of a timestamp.
func ClockTimeOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute(), t.Second())
}

// ClockTimeFromMicroseconds converts a microseconds-since-midnight value,
// the representation pgx uses for TIME columns.
func ClockTimeFromMicroseconds(us int64) ClockTime {
	seconds := int(us / 1e6)
	return NewClockTime(seconds/3600, (seconds/60)%60, seconds%60)
}

// Microseconds returns the time as microseconds since midnight.
func (c ClockTime) Microseconds() int64 {
	return int64(c.Hour*3600+c.Minute*60+c.Second) * 1e6
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// MarshalJSON renders the time as a quoted "HH:MM:SS" string.
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON accepts "HH:MM:SS" and "HH:MM".
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return fmt.Errorf("invalid clock time %s", raw)
	}
	raw = raw[1 : len(raw)-1]

	for _, layout := range []string{"15:04:05", "15:04"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*c = ClockTimeOf(parsed)
			return nil
		}
	}
	return fmt.Errorf("invalid clock time %q, want HH:MM:SS", raw)
}
