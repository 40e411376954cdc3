// Package calendar models rental days: UTC calendar dates without a time of day.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain/shared/apperr"
)

const Layout = "2006-01-02"

// ErrInvalidRange is returned when a day or range endpoint cannot be parsed.
var ErrInvalidRange = apperr.Validation("invalid date, expected YYYY-MM-DD")

// Day counts calendar days since 1970-01-01 in the UTC calendar.
type Day int32

var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// DayOf returns the UTC calendar day containing t.
func DayOf(t time.Time) Day {
	u := t.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return Day(floorDiv(midnight.Unix(), secondsPerDay))
}

const secondsPerDay = 24 * 60 * 60

// floorDiv rounds toward negative infinity so days before the epoch stay distinct.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ParseDay(s string) (Day, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidRange)
	}
	t, err := time.Parse(Layout, raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return DayOf(t), nil
}

// MustParseDay panics on malformed input; meant for fixtures and tests.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return epoch.AddDate(0, 0, int(d))
}

func (d Day) String() string {
	return d.Time().Format(Layout)
}

func (d Day) AddDays(n int) Day {
	return d + Day(n)
}

func (d Day) Before(other Day) bool { return d < other }
func (d Day) After(other Day) bool  { return d > other }

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsStrictlyPast reports whether day elapsed before today.
func IsStrictlyPast(day, today Day) bool {
	return day < today
}

// IsPastOrToday reports whether day is today or earlier.
func IsPastOrToday(day, today Day) bool {
	return day <= today
}
