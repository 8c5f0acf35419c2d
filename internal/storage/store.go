package storage

import (
	"errors"

	"github.com/brk3/habitkit/pkg/habit"
)

var ErrNotFound = errors.New("not found")

// LogQuery selects completion logs. Empty fields do not filter; From and To
// are inclusive day keys.
type LogQuery struct {
	HabitID       string
	From          string
	To            string
	CompletedOnly bool
}

// Match reports whether l satisfies the query.
func (q LogQuery) Match(l habit.CompletionLog) bool {
	if q.HabitID != "" && l.HabitID != q.HabitID {
		return false
	}
	if q.CompletedOnly && !l.IsCompleted {
		return false
	}
	// day keys order lexically
	if q.From != "" && l.LogDate < q.From {
		return false
	}
	if q.To != "" && l.LogDate > q.To {
		return false
	}
	return true
}

// Store persists habits, their completion logs and API keys. Habits come
// back in ascending creation order; logs for a day come back in insertion
// order, oldest first.
type Store interface {
	PutHabit(userID string, h habit.Habit) error
	GetHabit(userID, habitID string) (habit.Habit, error)
	ListHabits(userID string) ([]habit.Habit, error)
	// DeleteHabit removes the habit together with all of its logs.
	DeleteHabit(userID, habitID string) error

	AddLog(userID string, l habit.CompletionLog) error
	ListLogs(userID string, q LogQuery) ([]habit.CompletionLog, error)
	DeleteLog(userID, habitID, logID string) error

	PutAPIKey(keyHash, userID string) error
	GetAPIKey(keyHash string) (userID string, found bool, err error)
	ListAPIKeyHashes(userID string) ([]string, error)
	DeleteAPIKey(keyHash string) error

	Close() error
}
