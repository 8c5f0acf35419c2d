// Package tracker applies the habit and completion policy on top of a
// storage.Store: who may read what, how toggles, increments and decrements
// turn into log inserts and deletes, and which snapshot the analytics run
// over. Every derived value is recomputed from a fresh read.
package tracker

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/brk3/habitkit/internal/analytics"
	"github.com/brk3/habitkit/internal/dates"
	"github.com/brk3/habitkit/internal/logger"
	"github.com/brk3/habitkit/internal/storage"
	"github.com/brk3/habitkit/pkg/habit"
	"github.com/google/uuid"
)

// ErrInvalidInput marks a request that can never succeed as given: a bad
// habit definition, a malformed day, an unknown bucket.
var ErrInvalidInput = errors.New("invalid input")

// AllHabits selects every habit of the user in ListLogs.
const AllHabits = "all"

// DefaultWindow is the number of buckets in a series when none is requested.
var DefaultWindow = map[habit.Bucket]int{
	habit.BucketDay:   7,
	habit.BucketWeek:  4,
	habit.BucketMonth: 6,
}

const maxWindow = 366

type Tracker struct {
	store storage.Store
	clock dates.Clock
	locks keyedMutex

	newID func() string
	now   func() time.Time
}

func New(store storage.Store, clock dates.Clock) *Tracker {
	if clock == nil {
		clock = dates.SystemClock{}
	}
	return &Tracker{
		store: store,
		clock: clock,
		locks: keyedMutex{locks: make(map[string]*keyLock)},
		newID: uuid.NewString,
		now:   time.Now,
	}
}

func (t *Tracker) Clock() dates.Clock {
	return t.clock
}

func (t *Tracker) skipFor(userID string) analytics.SkipFunc {
	return func(key string, err error) {
		logger.Warn("Skipping malformed log day", "user_id", userID, "day", key, "error", err)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// parseDay turns a request day into a Day, defaulting to today.
func (t *Tracker) parseDay(key string) (dates.Day, error) {
	if strings.TrimSpace(key) == "" {
		return t.clock.Today(), nil
	}
	d, err := dates.Parse(key)
	if err != nil {
		return dates.Day{}, invalid("%v", err)
	}
	return d, nil
}

// habitFor loads a habit for a mutation. Absence is an error here, unlike on
// the read paths.
func (t *Tracker) habitFor(userID, habitID string) (habit.Habit, error) {
	h, err := t.store.GetHabit(userID, habitID)
	if errors.Is(err, storage.ErrNotFound) {
		return habit.Habit{}, fmt.Errorf("habit %s: %w", habitID, storage.ErrNotFound)
	}
	if err != nil {
		return habit.Habit{}, fmt.Errorf("load habit %s: %w", habitID, err)
	}
	return h, nil
}

// lookup is the read path: a missing habit comes back as nil with no error.
func (t *Tracker) lookup(userID, habitID string) (*habit.Habit, error) {
	if userID == "" {
		return nil, nil
	}
	h, err := t.store.GetHabit(userID, habitID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load habit %s: %w", habitID, err)
	}
	return &h, nil
}

func (t *Tracker) listHabits(userID string, archived bool) ([]habit.Habit, error) {
	out := []habit.Habit{}
	if userID == "" {
		return out, nil
	}
	all, err := t.store.ListHabits(userID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	for _, h := range all {
		if h.Archived == archived {
			out = append(out, h)
		}
	}
	return out, nil
}

// ListActiveHabits returns the user's non-archived habits, oldest first.
func (t *Tracker) ListActiveHabits(userID string) ([]habit.Habit, error) {
	return t.listHabits(userID, false)
}

func (t *Tracker) ListArchivedHabits(userID string) ([]habit.Habit, error) {
	return t.listHabits(userID, true)
}

func (t *Tracker) GetHabit(userID, habitID string) (*habit.Habit, error) {
	return t.lookup(userID, habitID)
}

func normalize(h *habit.Habit) {
	h.Name = strings.TrimSpace(h.Name)
	h.GoalType, _ = habit.ParseGoalType(string(h.GoalType))
	if h.Reminders == nil {
		h.Reminders = []string{}
	}
}

func (t *Tracker) CreateHabit(userID string, h habit.Habit) (*habit.Habit, error) {
	if userID == "" {
		return nil, nil
	}
	if h.GoalType == "" {
		h.GoalType = habit.GoalDaily
	}
	if h.GoalValue == 0 {
		h.GoalValue = 1
	}
	if err := h.Validate(); err != nil {
		return nil, invalid("%v", err)
	}
	normalize(&h)

	now := t.now().UTC()
	h.ID = t.newID()
	h.CreatedAt = now
	h.UpdatedAt = now
	if err := t.store.PutHabit(userID, h); err != nil {
		return nil, fmt.Errorf("store habit: %w", err)
	}
	logger.Info("Created habit", "user_id", userID, "habit_id", h.ID, "name", h.Name)
	return &h, nil
}

// UpdateHabit replaces the editable fields of an existing habit. The id,
// creation time and archived flag are kept from the stored record.
func (t *Tracker) UpdateHabit(userID, habitID string, in habit.Habit) (*habit.Habit, error) {
	if userID == "" {
		return nil, nil
	}
	if err := in.Validate(); err != nil {
		return nil, invalid("%v", err)
	}
	normalize(&in)

	unlock := t.locks.lock(userID + "/" + habitID)
	defer unlock()

	cur, err := t.lookup(userID, habitID)
	if err != nil || cur == nil {
		return nil, err
	}
	in.ID = cur.ID
	in.CreatedAt = cur.CreatedAt
	in.Archived = cur.Archived
	in.UpdatedAt = t.now().UTC()
	if err := t.store.PutHabit(userID, in); err != nil {
		return nil, fmt.Errorf("store habit: %w", err)
	}
	return &in, nil
}

func (t *Tracker) SetArchived(userID, habitID string, archived bool) (*habit.Habit, error) {
	if userID == "" {
		return nil, nil
	}
	unlock := t.locks.lock(userID + "/" + habitID)
	defer unlock()

	h, err := t.lookup(userID, habitID)
	if err != nil || h == nil {
		return nil, err
	}
	if h.Archived == archived {
		return h, nil
	}
	h.Archived = archived
	h.UpdatedAt = t.now().UTC()
	if err := t.store.PutHabit(userID, *h); err != nil {
		return nil, fmt.Errorf("store habit: %w", err)
	}
	logger.Info("Changed habit archive state", "user_id", userID, "habit_id", habitID, "archived", archived)
	return h, nil
}

// DeleteHabit removes the habit and its logs. It reports false when there
// was nothing to delete.
func (t *Tracker) DeleteHabit(userID, habitID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	unlock := t.locks.lock(userID + "/" + habitID)
	defer unlock()

	err := t.store.DeleteHabit(userID, habitID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete habit %s: %w", habitID, err)
	}
	logger.Info("Deleted habit", "user_id", userID, "habit_id", habitID)
	return true, nil
}

// ListLogs returns completion logs for one habit, or for every habit when
// habitID is empty or AllHabits. from and to are optional inclusive days.
func (t *Tracker) ListLogs(userID, habitID, from, to string) ([]habit.CompletionLog, error) {
	if userID == "" {
		return []habit.CompletionLog{}, nil
	}
	q := storage.LogQuery{From: from, To: to}
	if habitID != AllHabits {
		q.HabitID = habitID
	}
	for _, k := range []string{from, to} {
		if k == "" {
			continue
		}
		if _, err := dates.Parse(k); err != nil {
			return nil, invalid("%v", err)
		}
	}
	logs, err := t.store.ListLogs(userID, q)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return logs, nil
}

func (t *Tracker) completedLogs(userID, habitID string) ([]habit.CompletionLog, error) {
	logs, err := t.store.ListLogs(userID, storage.LogQuery{HabitID: habitID, CompletedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return logs, nil
}

func (t *Tracker) insert(userID, habitID string, day dates.Day) (habit.CompletionLog, error) {
	l := habit.CompletionLog{
		ID:            t.newID(),
		HabitID:       habitID,
		LogDate:       day.Key(),
		IsCompleted:   true,
		ValueRecorded: 1,
		CreatedAt:     t.now().UTC(),
	}
	if err := t.store.AddLog(userID, l); err != nil {
		return habit.CompletionLog{}, fmt.Errorf("add log: %w", err)
	}
	completionMutations.WithLabelValues("insert").Inc()
	return l, nil
}

func (t *Tracker) remove(userID string, l habit.CompletionLog) error {
	if err := t.store.DeleteLog(userID, l.HabitID, l.ID); err != nil {
		return fmt.Errorf("delete log %s: %w", l.ID, err)
	}
	completionMutations.WithLabelValues("delete").Inc()
	return nil
}

// lockPeriod serializes writes to one habit's goal period containing day.
func (t *Tracker) lockPeriod(userID string, h habit.Habit, day dates.Day) func() {
	p := analytics.PeriodFor(h.GoalType, day)
	return t.locks.lock(userID + "/" + h.ID + "/" + p.Start.Key())
}

// MarkComplete inserts one completed log with value 1 for the day.
func (t *Tracker) MarkComplete(userID, habitID, day string) (*habit.CompletionLog, error) {
	if userID == "" {
		return nil, nil
	}
	d, err := t.parseDay(day)
	if err != nil {
		return nil, err
	}
	h, err := t.habitFor(userID, habitID)
	if err != nil {
		return nil, err
	}
	unlock := t.lockPeriod(userID, h, d)
	defer unlock()

	l, err := t.insert(userID, habitID, d)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UnmarkComplete deletes the most recently created completed log for the
// day. It reports false when the day has none.
func (t *Tracker) UnmarkComplete(userID, habitID, day string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	d, err := t.parseDay(day)
	if err != nil {
		return false, err
	}
	h, err := t.habitFor(userID, habitID)
	if err != nil {
		return false, err
	}
	unlock := t.lockPeriod(userID, h, d)
	defer unlock()

	logs, err := t.store.ListLogs(userID, storage.LogQuery{HabitID: habitID, From: d.Key(), To: d.Key(), CompletedOnly: true})
	if err != nil {
		return false, fmt.Errorf("list logs: %w", err)
	}
	last, ok := mostRecent(logs, func(habit.CompletionLog) bool { return true })
	if !ok {
		return false, nil
	}
	return true, t.remove(userID, last)
}

// Toggle flips a day between done and not done. Turning a day off removes
// every completed log for it, so duplicates left by earlier clients go too.
// The returned value is the new state.
func (t *Tracker) Toggle(userID, habitID, day string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	d, err := t.parseDay(day)
	if err != nil {
		return false, err
	}
	h, err := t.habitFor(userID, habitID)
	if err != nil {
		return false, err
	}
	unlock := t.lockPeriod(userID, h, d)
	defer unlock()

	logs, err := t.store.ListLogs(userID, storage.LogQuery{HabitID: habitID, From: d.Key(), To: d.Key(), CompletedOnly: true})
	if err != nil {
		return false, fmt.Errorf("list logs: %w", err)
	}
	if len(logs) == 0 {
		if _, err := t.insert(userID, habitID, d); err != nil {
			return false, err
		}
		return true, nil
	}
	for _, l := range logs {
		if err := t.remove(userID, l); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Increment adds one unit to the habit on the day and returns the progress
// of the goal period that contains it.
func (t *Tracker) Increment(userID, habitID, day string) (*habit.Progress, error) {
	if userID == "" {
		return nil, nil
	}
	d, err := t.parseDay(day)
	if err != nil {
		return nil, err
	}
	h, err := t.habitFor(userID, habitID)
	if err != nil {
		return nil, err
	}
	unlock := t.lockPeriod(userID, h, d)
	defer unlock()

	if _, err := t.insert(userID, habitID, d); err != nil {
		return nil, err
	}
	return t.progress(userID, h, d)
}

// Decrement removes the most recently created log that counts toward the
// goal period containing day. It reports false, changing nothing, when the
// period count is already zero.
func (t *Tracker) Decrement(userID, habitID, day string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	d, err := t.parseDay(day)
	if err != nil {
		return false, err
	}
	h, err := t.habitFor(userID, habitID)
	if err != nil {
		return false, err
	}
	unlock := t.lockPeriod(userID, h, d)
	defer unlock()

	p := analytics.PeriodFor(h.GoalType, d)
	logs, err := t.store.ListLogs(userID, storage.LogQuery{HabitID: habitID, From: p.Start.Key(), To: p.End.Key(), CompletedOnly: true})
	if err != nil {
		return false, fmt.Errorf("list logs: %w", err)
	}
	if !analytics.CanDecrement(analytics.Evaluate(h, logs, p, t.skipFor(userID))) {
		logger.Debug("Refusing decrement below zero", "user_id", userID, "habit_id", habitID, "period_start", p.Start.Key())
		return false, nil
	}
	last, ok := mostRecent(logs, func(l habit.CompletionLog) bool {
		return h.IsSimple() || l.ValueRecorded > 0
	})
	if !ok {
		return false, nil
	}
	return true, t.remove(userID, last)
}

// mostRecent picks the latest created log accepted by keep. Logs created at
// the same instant resolve to the one stored last.
func mostRecent(logs []habit.CompletionLog, keep func(habit.CompletionLog) bool) (habit.CompletionLog, bool) {
	var (
		best  habit.CompletionLog
		found bool
	)
	for _, l := range logs {
		if !keep(l) {
			continue
		}
		if !found || !l.CreatedAt.Before(best.CreatedAt) {
			best, found = l, true
		}
	}
	return best, found
}

func (t *Tracker) progress(userID string, h habit.Habit, d dates.Day) (*habit.Progress, error) {
	p := analytics.PeriodFor(h.GoalType, d)
	logs, err := t.store.ListLogs(userID, storage.LogQuery{HabitID: h.ID, From: p.Start.Key(), To: p.End.Key(), CompletedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	prog := analytics.Evaluate(h, logs, p, t.skipFor(userID))
	return &prog, nil
}

// Progress reports the habit's count against its goal for the period
// containing day (today when empty).
func (t *Tracker) Progress(userID, habitID, day string) (*habit.Progress, error) {
	d, err := t.parseDay(day)
	if err != nil {
		return nil, err
	}
	h, err := t.lookup(userID, habitID)
	if err != nil || h == nil {
		return nil, err
	}
	return t.progress(userID, *h, d)
}

// TodayProgress reports the current period progress of every active habit.
func (t *Tracker) TodayProgress(userID string) ([]habit.Progress, error) {
	habits, err := t.ListActiveHabits(userID)
	if err != nil {
		return nil, err
	}
	out := make([]habit.Progress, 0, len(habits))
	if len(habits) == 0 {
		return out, nil
	}
	logs, err := t.completedLogs(userID, "")
	if err != nil {
		return nil, err
	}
	today := t.clock.Today()
	skip := t.skipFor(userID)
	for _, h := range habits {
		out = append(out, analytics.Evaluate(h, logs, analytics.PeriodFor(h.GoalType, today), skip))
	}
	return out, nil
}

func (t *Tracker) Streaks(userID, habitID string) (*habit.Streaks, error) {
	h, err := t.lookup(userID, habitID)
	if err != nil || h == nil {
		return nil, err
	}
	logs, err := t.completedLogs(userID, habitID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(logs))
	for _, l := range logs {
		keys = append(keys, l.LogDate)
	}
	s := analytics.CalculateStreaks(keys, t.clock, t.skipFor(userID))
	return &s, nil
}

func (t *Tracker) Summary(userID, habitID string) (*habit.HabitSummary, error) {
	h, err := t.lookup(userID, habitID)
	if err != nil || h == nil {
		return nil, err
	}
	logs, err := t.completedLogs(userID, habitID)
	if err != nil {
		return nil, err
	}
	sum := analytics.Summarize(*h, logs, t.clock, t.skipFor(userID))
	return &sum, nil
}

// SeriesRequest describes a window of buckets. A zero N picks the bucket's
// default length and an empty End means today. Dir, when set, pages the
// window one full length backward or forward from End.
type SeriesRequest struct {
	Bucket string
	N      int
	End    string
	Dir    string
}

type window struct {
	bucket habit.Bucket
	n      int
	end    dates.Day
}

func (t *Tracker) resolve(req SeriesRequest) (window, error) {
	b := habit.BucketDay
	if req.Bucket != "" {
		var err error
		if b, err = habit.ParseBucket(req.Bucket); err != nil {
			return window{}, invalid("%v", err)
		}
	}
	n := req.N
	if n == 0 {
		n = DefaultWindow[b]
	}
	if n < 0 || n > maxWindow {
		return window{}, invalid("window length must be 1-%d", maxWindow)
	}

	today := t.clock.Today()
	var end dates.Day
	if req.End != "" {
		var err error
		if end, err = dates.Parse(req.End); err != nil {
			return window{}, invalid("%v", err)
		}
	}
	end = analytics.ClampEnd(end, today)
	if req.Dir != "" {
		dir, err := analytics.ParseDirection(req.Dir)
		if err != nil {
			return window{}, invalid("%v", err)
		}
		end = analytics.Navigate(b, n, end, dir, today)
	}
	return window{bucket: b, n: n, end: end}, nil
}

// HabitSeries reports goal completion per bucket for one habit.
func (t *Tracker) HabitSeries(userID, habitID string, req SeriesRequest) (*habit.Series, error) {
	w, err := t.resolve(req)
	if err != nil {
		return nil, err
	}
	h, err := t.lookup(userID, habitID)
	if err != nil || h == nil {
		return nil, err
	}
	logs, err := t.completedLogs(userID, habitID)
	if err != nil {
		return nil, err
	}
	s := analytics.HabitSeries(*h, logs, w.bucket, w.n, w.end, t.skipFor(userID))
	return &s, nil
}

// OverallSeries reports, per bucket, the share of active habits with a
// matching cadence that met their goal.
func (t *Tracker) OverallSeries(userID string, req SeriesRequest) (habit.Series, error) {
	w, err := t.resolve(req)
	if err != nil {
		return habit.Series{}, err
	}
	habits, err := t.ListActiveHabits(userID)
	if err != nil {
		return habit.Series{}, err
	}
	var logs []habit.CompletionLog
	if len(habits) > 0 {
		if logs, err = t.completedLogs(userID, ""); err != nil {
			return habit.Series{}, err
		}
	}
	return analytics.OverallSeries(habits, logs, w.bucket, w.n, w.end, t.skipFor(userID)), nil
}

// Stats computes the cross-habit totals and streak records over active
// habits in creation order.
func (t *Tracker) Stats(userID string) (habit.OverallStats, error) {
	habits, err := t.ListActiveHabits(userID)
	if err != nil || len(habits) == 0 {
		return habit.OverallStats{}, err
	}
	logs, err := t.completedLogs(userID, "")
	if err != nil {
		return habit.OverallStats{}, err
	}
	return analytics.Overall(habits, logs, t.clock, t.skipFor(userID)), nil
}

// AtRisk lists active habits whose streak ends tonight unless completed.
func (t *Tracker) AtRisk(userID string) ([]habit.AtRisk, error) {
	out := []habit.AtRisk{}
	habits, err := t.ListActiveHabits(userID)
	if err != nil || len(habits) == 0 {
		return out, err
	}
	logs, err := t.completedLogs(userID, "")
	if err != nil {
		return nil, err
	}
	if risky := analytics.StreaksAtRisk(habits, logs, t.clock, t.skipFor(userID)); risky != nil {
		out = risky
	}
	return out, nil
}

// Export returns every habit definition of the user, archived ones
// included. Completion logs are not part of the export.
func (t *Tracker) Export(userID string) ([]habit.Habit, error) {
	if userID == "" {
		return []habit.Habit{}, nil
	}
	habits, err := t.store.ListHabits(userID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Import stores each record as a new habit with a fresh id and timestamps.
// Records that fail validation are counted and skipped.
func (t *Tracker) Import(userID string, records []habit.Habit) (habit.ImportResult, error) {
	var res habit.ImportResult
	if userID == "" {
		return res, nil
	}
	// keep the exported creation order
	records = slices.Clone(records)
	slices.SortStableFunc(records, func(a, b habit.Habit) int { return a.CreatedAt.Compare(b.CreatedAt) })

	for i, h := range records {
		archived := h.Archived
		created, err := t.CreateHabit(userID, h)
		if errors.Is(err, ErrInvalidInput) {
			logger.Warn("Skipping invalid habit on import", "user_id", userID, "index", i, "name", h.Name, "error", err)
			res.Failed++
			continue
		}
		if err != nil {
			return res, err
		}
		if archived {
			if _, err := t.SetArchived(userID, created.ID, true); err != nil {
				return res, err
			}
		}
		res.Imported++
	}
	logger.Info("Imported habits", "user_id", userID, "imported", res.Imported, "failed", res.Failed)
	return res, nil
}
