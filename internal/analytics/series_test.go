package analytics

import (
	"testing"

	"github.com/brk3/habitkit/internal/dates"
	"github.com/brk3/habitkit/pkg/habit"
)

func starts(s habit.Series) []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.BucketStart
	}
	return out
}

func percentages(s habit.Series) []int {
	out := make([]int, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.CompletionPercentage
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWindow(t *testing.T) {
	end := dates.MustParse("2024-03-13") // Wednesday

	days := Window(habit.BucketDay, 3, end)
	if got := []string{days[0].Start.String(), days[1].Start.String(), days[2].Start.String()}; got[0] != "2024-03-11" || got[2] != "2024-03-13" {
		t.Fatalf("day window got %v", got)
	}

	weeks := Window(habit.BucketWeek, 2, end)
	if weeks[0].Start.String() != "2024-03-04" || weeks[1].Start.String() != "2024-03-11" || weeks[1].End.String() != "2024-03-17" {
		t.Fatalf("week window got %+v", weeks)
	}

	months := Window(habit.BucketMonth, 3, end)
	if months[0].Start.String() != "2024-01-01" || months[0].End.String() != "2024-01-31" || months[2].Start.String() != "2024-03-01" {
		t.Fatalf("month window got %+v", months)
	}

	if Window(habit.BucketDay, 0, end) != nil {
		t.Fatal("empty window should be nil")
	}
}

func TestHabitSeries(t *testing.T) {
	h := habit.Habit{ID: "read", GoalType: habit.GoalDaily, GoalValue: 1}
	logs := completed("read", 1, "2024-01-01", "2024-01-03", "2024-01-03", "2024-01-04")
	s := HabitSeries(h, logs, habit.BucketDay, 5, dates.MustParse("2024-01-05"), nil)

	if got, want := percentages(s), []int{100, 0, 100, 100, 0}; !equalInts(got, want) {
		t.Fatalf("percentages got %v want %v", got, want)
	}
	if starts(s)[0] != "2024-01-01" || s.Start != "2024-01-01" || s.End != "2024-01-05" {
		t.Fatalf("bounds got %s..%s points %v", s.Start, s.End, starts(s))
	}
	if s.Average != 60 {
		t.Fatalf("average got %d want 60", s.Average)
	}
}

func TestHabitSeries_WeeklyGoal(t *testing.T) {
	h := habit.Habit{ID: "gym", GoalType: habit.GoalWeekly, GoalValue: 2}
	logs := completed("gym", 1, "2024-01-01", "2024-01-07", "2024-01-09")
	s := HabitSeries(h, logs, habit.BucketWeek, 2, dates.MustParse("2024-01-10"), nil)
	if got, want := percentages(s), []int{100, 0}; !equalInts(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if s.Average != 50 {
		t.Fatalf("average got %d", s.Average)
	}
}

func TestOverallSeries(t *testing.T) {
	habits := []habit.Habit{
		{ID: "a", GoalType: habit.GoalDaily, GoalValue: 1},
		{ID: "b", GoalType: habit.GoalDaily, GoalValue: 1},
		{ID: "c", GoalType: habit.GoalDaily, GoalValue: 2},
		{ID: "weekly", GoalType: habit.GoalWeekly, GoalValue: 1},
		{ID: "gone", GoalType: habit.GoalDaily, GoalValue: 1, Archived: true},
	}
	var logs []habit.CompletionLog
	logs = append(logs, completed("a", 1, "2024-01-01", "2024-01-02")...)
	logs = append(logs, completed("b", 1, "2024-01-02")...)
	logs = append(logs, completed("c", 1, "2024-01-02")...)
	logs = append(logs, completed("weekly", 1, "2024-01-01", "2024-01-03")...)
	logs = append(logs, completed("gone", 1, "2024-01-01", "2024-01-02", "2024-01-03")...)

	s := OverallSeries(habits, logs, habit.BucketDay, 3, dates.MustParse("2024-01-03"), nil)
	// three eligible daily habits: 1/3, 2/3, 0/3
	if got, want := percentages(s), []int{33, 67, 0}; !equalInts(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if s.Average != 33 {
		t.Fatalf("average got %d want 33", s.Average)
	}
}

func TestOverallSeries_NoEligibleHabits(t *testing.T) {
	habits := []habit.Habit{{ID: "a", GoalType: habit.GoalDaily, GoalValue: 1}}
	s := OverallSeries(habits, completed("a", 1, "2024-01-01"), habit.BucketMonth, 2, dates.MustParse("2024-01-31"), nil)
	if got, want := percentages(s), []int{0, 0}; !equalInts(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSeriesPercentagesAreBounded(t *testing.T) {
	habits := []habit.Habit{
		{ID: "a", GoalType: habit.GoalDaily, GoalValue: 1},
		{ID: "b", GoalType: habit.GoalDaily, GoalValue: 3},
	}
	logs := append(completed("a", 1, "2024-01-01", "2024-01-01"), completed("b", 9, "2024-01-01", "2024-01-02")...)
	for _, b := range []habit.Bucket{habit.BucketDay, habit.BucketWeek, habit.BucketMonth} {
		series := []habit.Series{
			OverallSeries(habits, logs, b, 10, dates.MustParse("2024-01-10"), nil),
			HabitSeries(habits[1], logs, b, 10, dates.MustParse("2024-01-10"), nil),
		}
		for _, s := range series {
			for _, p := range s.Points {
				if p.CompletionPercentage < 0 || p.CompletionPercentage > 100 {
					t.Fatalf("%s bucket %s out of range: %d", b, p.BucketStart, p.CompletionPercentage)
				}
			}
		}
	}
}

func TestAverage(t *testing.T) {
	if Average(nil) != 0 {
		t.Fatal("empty average should be 0")
	}
	pts := []habit.SeriesPoint{{CompletionPercentage: 100}, {CompletionPercentage: 0}, {CompletionPercentage: 50}}
	if got := Average(pts); got != 50 {
		t.Fatalf("got %d", got)
	}
	pts = []habit.SeriesPoint{{CompletionPercentage: 100}, {CompletionPercentage: 0}, {CompletionPercentage: 0}}
	if got := Average(pts); got != 33 {
		t.Fatalf("got %d", got)
	}
}

func TestNavigate(t *testing.T) {
	today := dates.MustParse("2024-03-20")
	tests := []struct {
		name   string
		bucket habit.Bucket
		n      int
		end    string
		dir    Direction
		want   string
	}{
		{"days back", habit.BucketDay, 7, "2024-03-20", Prev, "2024-03-13"},
		{"days forward clamped", habit.BucketDay, 7, "2024-03-15", Next, "2024-03-20"},
		{"days forward", habit.BucketDay, 7, "2024-03-01", Next, "2024-03-08"},
		{"weeks back", habit.BucketWeek, 4, "2024-03-20", Prev, "2024-02-21"},
		{"months back", habit.BucketMonth, 2, "2024-03-20", Prev, "2024-01-20"},
		{"months forward clamped", habit.BucketMonth, 2, "2024-02-20", Next, "2024-03-20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Navigate(tt.bucket, tt.n, dates.MustParse(tt.end), tt.dir, today)
			if got.String() != tt.want {
				t.Fatalf("got %s want %s", got, tt.want)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("next"); err != nil || d != Next {
		t.Fatalf("got %v %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatal("expected error")
	}
}
