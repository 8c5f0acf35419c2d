// Package dates normalizes calendar days. All comparisons between completion
// days happen on Day values, never on raw timestamps, so time of day and
// timezone offsets never leak into streak or period arithmetic.
package dates

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// KeyFormat is the canonical day key layout.
const KeyFormat = "2006-01-02"

// Day is a calendar day with no time component.
type Day struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Day, so New(2024, 1, 32) is 2024-02-01.
func New(year int, month time.Month, day int) Day {
	d := Day{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Day {
	return New(t.Date())
}

// Parse reads a canonical YYYY-MM-DD key. Anything else, including
// impossible dates such as 2023-02-29, is rejected.
func Parse(key string) (Day, error) {
	t, err := time.Parse(KeyFormat, key)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day key %q want format %q: %w", key, KeyFormat, err)
	}
	return FromTime(t), nil
}

// MustParse is like Parse but panics on error.
func MustParse(key string) Day {
	d, err := Parse(key)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// time is the canonical instant of the day: midnight UTC.
func (d Day) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Day) Year() int { return d.y }
func (d Day) Month() time.Month { return d.m }
func (d Day) Day() int { return d.d }
func (d Day) Weekday() time.Weekday { return d.time().Weekday() }
func (d Day) IsZero() bool { return d == Day{} }

// String returns the canonical day key.
func (d Day) String() string { return d.time().Format(KeyFormat) }

// Key is an alias of String that reads better at call sites building maps.
func (d Day) Key() string { return d.String() }

func (d Day) Before(x Day) bool { return d.time().Before(x.time()) }
func (d Day) After(x Day) bool { return d.time().After(x.time()) }

func (d Day) AddDays(n int) Day { return New(d.y, d.m, d.d+n) }
func (d Day) SubDays(n int) Day { return d.AddDays(-n) }
func (d Day) AddWeeks(n int) Day { return d.AddDays(7 * n) }

// AddMonths moves n calendar months, clamping to the last day of the target
// month: 2024-01-31 plus one month is 2024-02-29.
func (d Day) AddMonths(n int) Day {
	first := New(d.y, d.m+time.Month(n), 1)
	last := first.EndOfMonth().d
	return New(first.y, first.m, min(d.d, last))
}

// StartOfWeek returns the Monday of d's week.
func (d Day) StartOfWeek() Day {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// EndOfWeek returns the Sunday of d's week.
func (d Day) EndOfWeek() Day { return d.StartOfWeek().AddDays(6) }

func (d Day) StartOfMonth() Day { return New(d.y, d.m, 1) }

func (d Day) EndOfMonth() Day { return New(d.y, d.m+1, 0) }

// DayDifference returns the number of calendar days from b to a (a - b).
func DayDifference(a, b Day) int {
	return int(math.Round(a.time().Sub(b.time()).Hours() / 24))
}

// Compare returns -1, 0 or +1 for use with slices.SortFunc.
func Compare(a, b Day) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	v, err := Parse(str)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

var _ json.Marshaler = Day{}
var _ json.Unmarshaler = (*Day)(nil)
