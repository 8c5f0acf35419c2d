package habit

import (
	"fmt"
	"strings"
	"time"
)

type GoalType string

const (
	GoalDaily   GoalType = "daily"
	GoalWeekly  GoalType = "weekly"
	GoalMonthly GoalType = "monthly"
)

func ParseGoalType(s string) (GoalType, error) {
	switch GoalType(strings.ToLower(strings.TrimSpace(s))) {
	case GoalDaily:
		return GoalDaily, nil
	case GoalWeekly:
		return GoalWeekly, nil
	case GoalMonthly:
		return GoalMonthly, nil
	default:
		return "", fmt.Errorf("unknown goal type %q", s)
	}
}

// Bucket is the granularity of one point in a completion series.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

func ParseBucket(s string) (Bucket, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return BucketDay, nil
	case "week", "weekly":
		return BucketWeek, nil
	case "month", "monthly":
		return BucketMonth, nil
	default:
		return "", fmt.Errorf("unknown bucket %q", s)
	}
}

// Cadence returns the goal type whose period matches the bucket.
func (b Bucket) Cadence() GoalType {
	switch b {
	case BucketWeek:
		return GoalWeekly
	case BucketMonth:
		return GoalMonthly
	default:
		return GoalDaily
	}
}

type Habit struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	GoalType    GoalType  `json:"goal_type"`
	GoalValue   int       `json:"goal_value"`
	Reminders   []string  `json:"reminders"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsSimple reports whether the habit is a plain done/not-done daily habit.
func (h Habit) IsSimple() bool {
	return h.GoalType == GoalDaily && h.GoalValue == 1
}

func (h Habit) Validate() error {
	const maxNameLength = 50
	const maxDescriptionLength = 1024

	if n := len(strings.TrimSpace(h.Name)); n == 0 || n > maxNameLength {
		return fmt.Errorf("bad habit name: must be 1-%d characters", maxNameLength)
	}
	if len(h.Description) > maxDescriptionLength {
		return fmt.Errorf("bad habit description: must be 0-%d characters", maxDescriptionLength)
	}
	if _, err := ParseGoalType(string(h.GoalType)); err != nil {
		return err
	}
	if h.GoalValue < 1 {
		return fmt.Errorf("bad goal value: must be a positive integer")
	}
	return nil
}

// CompletionLog is one recorded unit of activity for a habit on a day.
type CompletionLog struct {
	ID            string    `json:"id"`
	HabitID       string    `json:"habit_id"`
	LogDate       string    `json:"log_date"` // YYYY-MM-DD
	IsCompleted   bool      `json:"is_completed"`
	ValueRecorded int       `json:"value_recorded"`
	CreatedAt     time.Time `json:"created_at"`
}

type Streaks struct {
	Longest int `json:"longest_streak"`
	Current int `json:"current_streak"`
}

type Progress struct {
	HabitID     string `json:"habit_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Count       int    `json:"count"`
	Goal        int    `json:"goal"`
	IsCompleted bool   `json:"is_completed"`
}

type SeriesPoint struct {
	BucketStart          string `json:"bucket_start"`
	CompletionPercentage int    `json:"completion_percentage"`
}

type Series struct {
	Bucket  Bucket        `json:"bucket"`
	Start   string        `json:"start"`
	End     string        `json:"end"`
	Points  []SeriesPoint `json:"points"`
	Average int           `json:"average_percentage"`
}

// StreakHolder attributes a streak record to the habit that set it.
type StreakHolder struct {
	HabitID string `json:"habit_id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
}

type OverallStats struct {
	TotalCompletions          int           `json:"total_completions"`
	LongestStreakEver         int           `json:"longest_streak_ever"`
	LongestStreakHabit        *StreakHolder `json:"longest_streak_habit,omitempty"`
	CurrentLongestStreak      int           `json:"current_longest_streak"`
	CurrentLongestStreakHabit *StreakHolder `json:"current_longest_streak_habit,omitempty"`
}

type HabitSummary struct {
	HabitID       string `json:"habit_id"`
	Name          string `json:"name"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	FirstLogged   string `json:"first_logged,omitempty"`
	LastLogged    string `json:"last_logged,omitempty"`
	TotalDaysDone int    `json:"total_days_done"`
	BestMonth     int    `json:"best_month"`
	ThisMonth     int    `json:"this_month"`
}

// AtRisk is a habit whose current streak survives only on the grace day.
type AtRisk struct {
	HabitID       string `json:"habit_id"`
	Name          string `json:"name"`
	CurrentStreak int    `json:"current_streak"`
	LastCompleted string `json:"last_completed"`
}

type ImportResult struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}
