// Package analytics turns completion logs into streaks, goal progress,
// percentage series and cross-habit statistics. Everything here is a pure
// function over a snapshot of logs: no I/O, no retained state, safe to
// re-run on every refresh.
package analytics

import (
	"slices"

	"github.com/brk3/habitkit/internal/dates"
	"github.com/brk3/habitkit/pkg/habit"
)

// SkipFunc is told about a log day that could not be parsed. The entry is
// dropped from the computation either way.
type SkipFunc func(key string, err error)

// CollapseToDaySet parses day keys, drops malformed entries and duplicates,
// and returns the remaining days in ascending calendar order.
func CollapseToDaySet(keys []string, skip SkipFunc) []dates.Day {
	seen := make(map[dates.Day]struct{}, len(keys))
	out := make([]dates.Day, 0, len(keys))
	for _, k := range keys {
		d, err := dates.Parse(k)
		if err != nil {
			if skip != nil {
				skip(k, err)
			}
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	slices.SortFunc(out, dates.Compare)
	return out
}

// CalculateStreaks returns the longest-ever and current streak for one
// habit's completion days. Input order and duplicates do not matter.
//
// The current streak is anchored at today, but a streak that ended yesterday
// is still reported: it only breaks once a whole day passes without a
// completion.
func CalculateStreaks(keys []string, clock dates.Clock, skip SkipFunc) habit.Streaks {
	days := CollapseToDaySet(keys, skip)
	return streaksOf(days, clock.Today())
}

func streaksOf(days []dates.Day, today dates.Day) habit.Streaks {
	return habit.Streaks{
		Longest: longestStreak(days),
		Current: currentStreak(days, today),
	}
}

// longestStreak expects days sorted ascending.
func longestStreak(days []dates.Day) int {
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		switch gap := dates.DayDifference(days[i], days[i-1]); {
		case gap == 1:
			run++
		case gap > 1:
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}

func currentStreak(days []dates.Day, today dates.Day) int {
	set := make(map[dates.Day]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	has := func(d dates.Day) bool {
		_, ok := set[d]
		return ok
	}

	anchor := today
	if !has(anchor) {
		anchor = today.SubDays(1)
		if !has(anchor) {
			return 0
		}
	}

	n := 0
	for d := anchor; has(d); d = d.SubDays(1) {
		n++
	}
	return n
}

// completedKeys returns the day keys of completed logs, restricted to
// habitID unless it is empty.
func completedKeys(logs []habit.CompletionLog, habitID string) []string {
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		if !l.IsCompleted {
			continue
		}
		if habitID != "" && l.HabitID != habitID {
			continue
		}
		out = append(out, l.LogDate)
	}
	return out
}
