package analytics

import (
	"github.com/brk3/habitkit/internal/dates"
	"github.com/brk3/habitkit/pkg/habit"
)

// Overall rolls streaks and completion counts up across habits. Archived
// habits, and any logs that belong to them, are ignored entirely.
//
// Habits are visited in the order given; on a tie the first habit to reach a
// record keeps the attribution, so callers should pass a stable order such as
// ascending creation time.
func Overall(habits []habit.Habit, logs []habit.CompletionLog, clock dates.Clock, skip SkipFunc) habit.OverallStats {
	active := make(map[string]struct{}, len(habits))
	for _, h := range habits {
		if !h.Archived {
			active[h.ID] = struct{}{}
		}
	}

	var stats habit.OverallStats
	keys := make(map[string][]string, len(active))
	for _, l := range logs {
		if !l.IsCompleted {
			continue
		}
		if _, ok := active[l.HabitID]; !ok {
			continue
		}
		if _, err := dates.Parse(l.LogDate); err != nil {
			if skip != nil {
				skip(l.LogDate, err)
			}
			continue
		}
		stats.TotalCompletions++
		keys[l.HabitID] = append(keys[l.HabitID], l.LogDate)
	}

	today := clock.Today()
	visited := make(map[string]struct{}, len(active))
	for _, h := range habits {
		if h.Archived {
			continue
		}
		if _, ok := visited[h.ID]; ok {
			continue
		}
		visited[h.ID] = struct{}{}

		s := streaksOf(CollapseToDaySet(keys[h.ID], nil), today)
		if s.Longest > stats.LongestStreakEver {
			stats.LongestStreakEver = s.Longest
			stats.LongestStreakHabit = holder(h)
		}
		if s.Current > stats.CurrentLongestStreak {
			stats.CurrentLongestStreak = s.Current
			stats.CurrentLongestStreakHabit = holder(h)
		}
	}
	return stats
}

func holder(h habit.Habit) *habit.StreakHolder {
	return &habit.StreakHolder{HabitID: h.ID, Name: h.Name, Icon: h.Icon, Color: h.Color}
}
