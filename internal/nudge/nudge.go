// Package nudge reminds about streaks that break at midnight unless the
// habit is logged today.
package nudge

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/brk3/habitkit/internal/dates"
	"github.com/brk3/habitkit/internal/logger"
)

type Notifier interface {
	SendNudge(habits []string, hoursTillExpiry int) error
}

// ExpiringToday returns the names of active habits last completed
// yesterday. Their current streak is still counted today and ends at
// midnight.
func ExpiringToday(ctx context.Context, q Querier, today dates.Day) ([]string, error) {
	habits, err := q.ListHabits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	yesterday := today.SubDays(1).Key()

	var out []string
	for _, h := range habits {
		sum, err := q.GetHabitSummary(ctx, h.ID)
		if err != nil {
			return nil, fmt.Errorf("summary for %s: %w", h.Name, err)
		}
		if sum == nil {
			continue
		}
		if sum.CurrentStreak > 0 && sum.LastLogged == yesterday {
			out = append(out, h.Name)
		}
	}
	return out, nil
}

func hoursUntilMidnight(now time.Time) int {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return int(math.Ceil(midnight.Sub(now).Hours()))
}

// Nudge sends one notification listing every expiring streak, provided
// midnight is no more than within away. A zero within always sends. It
// returns the habits it nudged about.
func Nudge(ctx context.Context, q Querier, n Notifier, now time.Time, within time.Duration) ([]string, error) {
	hours := hoursUntilMidnight(now)
	if within > 0 && time.Duration(hours)*time.Hour > within {
		logger.Debug("Midnight is outside the nudge window", "hours_left", hours, "within", within)
		return nil, nil
	}

	names, err := ExpiringToday(ctx, q, dates.FromTime(now))
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		logger.Info("No streaks expiring today")
		return nil, nil
	}

	logger.Info("Sending nudge", "habits", names, "hours_left", hours)
	if err := n.SendNudge(names, hours); err != nil {
		return nil, fmt.Errorf("send nudge: %w", err)
	}
	return names, nil
}
