package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brk3/habitkit/internal/storage"
	"github.com/brk3/habitkit/pkg/habit"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS habits (
	user_id     TEXT NOT NULL,
	id          TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	icon        TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '',
	goal_type   TEXT NOT NULL,
	goal_value  INTEGER NOT NULL,
	reminders   TEXT NOT NULL DEFAULT '[]',
	archived    INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS completion_logs (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id        TEXT NOT NULL,
	id             TEXT NOT NULL,
	habit_id       TEXT NOT NULL,
	log_date       TEXT NOT NULL,
	is_completed   INTEGER NOT NULL,
	value_recorded INTEGER NOT NULL,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_completion_logs_habit_day ON completion_logs(user_id, habit_id, log_date);

CREATE TABLE IF NOT EXISTS api_keys (
	key_hash TEXT PRIMARY KEY,
	user_id  TEXT NOT NULL
);
`

const habitColumns = `id, name, description, icon, color, goal_type, goal_value, reminders, archived, created_at, updated_at`

// Store is the sqlite backend. Log insertion order is kept by the seq
// column.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(timeLayout, v)
}

func (s *Store) PutHabit(userID string, h habit.Habit) error {
	reminders, err := json.Marshal(h.Reminders)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO habits (user_id, `+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			icon = excluded.icon,
			color = excluded.color,
			goal_type = excluded.goal_type,
			goal_value = excluded.goal_value,
			reminders = excluded.reminders,
			archived = excluded.archived,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		userID, h.ID, h.Name, h.Description, h.Icon, h.Color, string(h.GoalType), h.GoalValue,
		string(reminders), h.Archived, formatTime(h.CreatedAt), formatTime(h.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put habit: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (habit.Habit, error) {
	var (
		h                    habit.Habit
		goalType, reminders  string
		createdAt, updatedAt string
	)
	if err := row.Scan(&h.ID, &h.Name, &h.Description, &h.Icon, &h.Color, &goalType, &h.GoalValue,
		&reminders, &h.Archived, &createdAt, &updatedAt); err != nil {
		return habit.Habit{}, err
	}
	h.GoalType = habit.GoalType(goalType)
	if err := json.Unmarshal([]byte(reminders), &h.Reminders); err != nil {
		return habit.Habit{}, fmt.Errorf("decode reminders for habit %s: %w", h.ID, err)
	}
	var err error
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return habit.Habit{}, err
	}
	if h.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return habit.Habit{}, err
	}
	return h, nil
}

func (s *Store) GetHabit(userID, habitID string) (habit.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE user_id = ? AND id = ?`, userID, habitID)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return habit.Habit{}, storage.ErrNotFound
	}
	return h, err
}

func (s *Store) ListHabits(userID string) ([]habit.Habit, error) {
	rows, err := s.db.Query(`SELECT `+habitColumns+` FROM habits WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	out := []habit.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) DeleteHabit(userID, habitID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM habits WHERE user_id = ? AND id = ?`, userID, habitID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM completion_logs WHERE user_id = ? AND habit_id = ?`, userID, habitID); err != nil {
		return fmt.Errorf("delete habit logs: %w", err)
	}
	return tx.Commit()
}

func (s *Store) AddLog(userID string, l habit.CompletionLog) error {
	_, err := s.db.Exec(`
		INSERT INTO completion_logs (user_id, id, habit_id, log_date, is_completed, value_recorded, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, l.ID, l.HabitID, l.LogDate, l.IsCompleted, l.ValueRecorded, formatTime(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("add log: %w", err)
	}
	return nil
}

func (s *Store) ListLogs(userID string, q storage.LogQuery) ([]habit.CompletionLog, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if q.HabitID != "" {
		where = append(where, "habit_id = ?")
		args = append(args, q.HabitID)
	}
	if q.CompletedOnly {
		where = append(where, "is_completed = 1")
	}
	if q.From != "" {
		where = append(where, "log_date >= ?")
		args = append(args, q.From)
	}
	if q.To != "" {
		where = append(where, "log_date <= ?")
		args = append(args, q.To)
	}

	rows, err := s.db.Query(`
		SELECT id, habit_id, log_date, is_completed, value_recorded, created_at
		FROM completion_logs
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY habit_id, log_date, seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	out := []habit.CompletionLog{}
	for rows.Next() {
		var (
			l         habit.CompletionLog
			createdAt string
		)
		if err := rows.Scan(&l.ID, &l.HabitID, &l.LogDate, &l.IsCompleted, &l.ValueRecorded, &createdAt); err != nil {
			return nil, err
		}
		if l.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) DeleteLog(userID, habitID, logID string) error {
	res, err := s.db.Exec(`DELETE FROM completion_logs WHERE user_id = ? AND habit_id = ? AND id = ?`, userID, habitID, logID)
	if err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) PutAPIKey(keyHash, userID string) error {
	_, err := s.db.Exec(`INSERT INTO api_keys (key_hash, user_id) VALUES (?, ?)
		ON CONFLICT(key_hash) DO UPDATE SET user_id = excluded.user_id`, keyHash, userID)
	return err
}

func (s *Store) GetAPIKey(keyHash string) (string, bool, error) {
	var userID string
	err := s.db.QueryRow(`SELECT user_id FROM api_keys WHERE key_hash = ?`, keyHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

func (s *Store) ListAPIKeyHashes(userID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT key_hash FROM api_keys WHERE user_id = ? ORDER BY key_hash`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAPIKey(keyHash string) error {
	_, err := s.db.Exec(`DELETE FROM api_keys WHERE key_hash = ?`, keyHash)
	return err
}

var _ storage.Store = (*Store)(nil)
