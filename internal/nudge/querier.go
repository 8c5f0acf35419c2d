package nudge

import (
	"context"

	"github.com/brk3/habitkit/pkg/habit"
)

// Querier is the read side of the habits API that nudging needs.
type Querier interface {
	ListHabits(ctx context.Context) ([]habit.Habit, error)
	GetHabitSummary(ctx context.Context, habitID string) (*habit.HabitSummary, error)
}
