package dates

import "time"

// Clock resolves "today". Everything that needs the current day takes a
// Clock so tests can pin the date.
type Clock interface {
	Today() Day
}

// SystemClock reads the wall clock in Location, or time.Local when nil.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() Day {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// FixedClock always reports the same day.
type FixedClock struct {
	Day Day
}

func (c FixedClock) Today() Day { return c.Day }

// Today returns the current local calendar day.
func Today() Day { return SystemClock{}.Today() }
