package analytics

import (
	"time"

	"github.com/brk3/habitkit/internal/dates"
	"github.com/brk3/habitkit/pkg/habit"
)

type yearMonth struct {
	y int
	m time.Month
}

// Summarize builds the per-habit summary card: streaks, first and last
// completion, distinct days done, this month's days and the best month.
func Summarize(h habit.Habit, logs []habit.CompletionLog, clock dates.Clock, skip SkipFunc) habit.HabitSummary {
	days := CollapseToDaySet(completedKeys(logs, h.ID), skip)
	today := clock.Today()
	s := streaksOf(days, today)

	sum := habit.HabitSummary{
		HabitID:       h.ID,
		Name:          h.Name,
		CurrentStreak: s.Current,
		LongestStreak: s.Longest,
		TotalDaysDone: len(days),
	}
	if len(days) == 0 {
		return sum
	}
	sum.FirstLogged = days[0].String()
	sum.LastLogged = days[len(days)-1].String()

	perMonth := make(map[yearMonth]int)
	for _, d := range days {
		ym := yearMonth{d.Year(), d.Month()}
		perMonth[ym]++
		sum.BestMonth = max(sum.BestMonth, perMonth[ym])
	}
	sum.ThisMonth = perMonth[yearMonth{today.Year(), today.Month()}]
	return sum
}

// StreaksAtRisk lists active habits that were completed yesterday but not
// yet today: their streak is still counted, and breaks at midnight.
func StreaksAtRisk(habits []habit.Habit, logs []habit.CompletionLog, clock dates.Clock, skip SkipFunc) []habit.AtRisk {
	today := clock.Today()
	yesterday := today.SubDays(1)

	var out []habit.AtRisk
	for _, h := range habits {
		if h.Archived {
			continue
		}
		days := CollapseToDaySet(completedKeys(logs, h.ID), skip)
		var doneToday, doneYesterday bool
		for _, d := range days {
			doneToday = doneToday || d == today
			doneYesterday = doneYesterday || d == yesterday
		}
		if doneToday || !doneYesterday {
			continue
		}
		out = append(out, habit.AtRisk{
			HabitID:       h.ID,
			Name:          h.Name,
			CurrentStreak: currentStreak(days, today),
			LastCompleted: yesterday.String(),
		})
	}
	return out
}
