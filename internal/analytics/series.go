package analytics

import (
	"fmt"
	"math"
	"strings"

	"github.com/brk3/habitkit/internal/dates"
	"github.com/brk3/habitkit/pkg/habit"
)

// Window returns n consecutive buckets ending with the one containing end,
// oldest first.
func Window(b habit.Bucket, n int, end dates.Day) []Period {
	if n <= 0 {
		return nil
	}
	last := BucketPeriod(b, end)
	out := make([]Period, n)
	for i := range n {
		start := shift(last.Start, b, i-(n-1))
		out[i] = BucketPeriod(b, start)
	}
	return out
}

func shift(d dates.Day, b habit.Bucket, k int) dates.Day {
	switch b {
	case habit.BucketWeek:
		return d.AddWeeks(k)
	case habit.BucketMonth:
		return d.AddMonths(k)
	default:
		return d.AddDays(k)
	}
}

// HabitSeries reports, per bucket, 100 when h met its goal over the bucket
// and 0 otherwise.
func HabitSeries(h habit.Habit, logs []habit.CompletionLog, b habit.Bucket, n int, end dates.Day, skip SkipFunc) habit.Series {
	periods := Window(b, n, end)
	points := make([]habit.SeriesPoint, 0, len(periods))
	for _, p := range periods {
		pct := 0
		if Evaluate(h, logs, p, skip).IsCompleted {
			pct = 100
		}
		points = append(points, habit.SeriesPoint{BucketStart: p.Start.String(), CompletionPercentage: pct})
	}
	return newSeries(b, periods, points)
}

// OverallSeries reports, per bucket, the share of eligible habits that met
// their goal. A habit is eligible when it is not archived and its cadence
// matches the bucket granularity.
func OverallSeries(habits []habit.Habit, logs []habit.CompletionLog, b habit.Bucket, n int, end dates.Day, skip SkipFunc) habit.Series {
	var eligible []habit.Habit
	for _, h := range habits {
		if !h.Archived && h.GoalType == b.Cadence() {
			eligible = append(eligible, h)
		}
	}
	byHabit := make(map[string][]habit.CompletionLog, len(eligible))
	for _, l := range logs {
		byHabit[l.HabitID] = append(byHabit[l.HabitID], l)
	}

	periods := Window(b, n, end)
	points := make([]habit.SeriesPoint, 0, len(periods))
	for _, p := range periods {
		done := 0
		for _, h := range eligible {
			if Evaluate(h, byHabit[h.ID], p, skip).IsCompleted {
				done++
			}
		}
		points = append(points, habit.SeriesPoint{
			BucketStart:          p.Start.String(),
			CompletionPercentage: percentage(done, len(eligible)),
		})
	}
	return newSeries(b, periods, points)
}

func newSeries(b habit.Bucket, periods []Period, points []habit.SeriesPoint) habit.Series {
	s := habit.Series{Bucket: b, Points: points, Average: Average(points)}
	if len(periods) > 0 {
		s.Start = periods[0].Start.String()
		s.End = periods[len(periods)-1].End.String()
	}
	return s
}

func percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(part) / float64(total)))
	return min(max(pct, 0), 100)
}

// Average is the rounded mean of the points' percentages, 0 when empty.
func Average(points []habit.SeriesPoint) int {
	if len(points) == 0 {
		return 0
	}
	sum := 0
	for _, p := range points {
		sum += p.CompletionPercentage
	}
	return int(math.Round(float64(sum) / float64(len(points))))
}

type Direction int

const (
	Prev Direction = iota
	Next
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "prev", "previous", "back":
		return Prev, nil
	case "next", "forward":
		return Next, nil
	default:
		return Prev, fmt.Errorf("unknown direction %q", s)
	}
}

// Navigate pages a window of n buckets backward or forward from end. The
// result never lies after today.
func Navigate(b habit.Bucket, n int, end dates.Day, dir Direction, today dates.Day) dates.Day {
	if n <= 0 {
		return ClampEnd(end, today)
	}
	k := n
	if dir == Prev {
		k = -n
	}
	return ClampEnd(shift(end, b, k), today)
}

// ClampEnd keeps a window anchor from running past today.
func ClampEnd(end, today dates.Day) dates.Day {
	if end.IsZero() || end.After(today) {
		return today
	}
	return end
}
