package analytics

import (
	"github.com/brk3/habitkit/internal/dates"
	"github.com/brk3/habitkit/pkg/habit"
)

// Period is an inclusive range of days over which a goal is evaluated.
type Period struct {
	Start dates.Day
	End   dates.Day
}

func (p Period) Contains(d dates.Day) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// PeriodFor returns the goal period containing d: the day itself, its
// Monday-based week, or its calendar month.
func PeriodFor(goal habit.GoalType, d dates.Day) Period {
	switch goal {
	case habit.GoalWeekly:
		return Period{Start: d.StartOfWeek(), End: d.EndOfWeek()}
	case habit.GoalMonthly:
		return Period{Start: d.StartOfMonth(), End: d.EndOfMonth()}
	default:
		return Period{Start: d, End: d}
	}
}

// BucketPeriod returns the bucket of granularity b containing d.
func BucketPeriod(b habit.Bucket, d dates.Day) Period {
	return PeriodFor(b.Cadence(), d)
}

// Evaluate reports the count and completion of h's goal over p.
//
// Simple habits (daily, goal 1) count distinct completed days, so duplicate
// rows for one day never count twice. Every other habit sums the recorded
// values of its completed logs.
func Evaluate(h habit.Habit, logs []habit.CompletionLog, p Period, skip SkipFunc) habit.Progress {
	prog := habit.Progress{
		HabitID:     h.ID,
		PeriodStart: p.Start.String(),
		PeriodEnd:   p.End.String(),
		Goal:        h.GoalValue,
	}

	days := make(map[dates.Day]struct{})
	for _, l := range logs {
		if !l.IsCompleted || (h.ID != "" && l.HabitID != h.ID) {
			continue
		}
		d, err := dates.Parse(l.LogDate)
		if err != nil {
			if skip != nil {
				skip(l.LogDate, err)
			}
			continue
		}
		if !p.Contains(d) {
			continue
		}
		if h.IsSimple() {
			days[d] = struct{}{}
			continue
		}
		if l.ValueRecorded > 0 {
			prog.Count += l.ValueRecorded
		}
	}
	if h.IsSimple() {
		prog.Count = len(days)
	}

	goal := max(h.GoalValue, 1)
	prog.IsCompleted = prog.Count >= goal
	return prog
}

// CanDecrement reports whether one more unit can be removed from the period
// without the count going negative.
func CanDecrement(p habit.Progress) bool {
	return p.Count > 0
}
