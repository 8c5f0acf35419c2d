package bolt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/brk3/habitkit/internal/storage"
	"github.com/brk3/habitkit/pkg/habit"
	"go.etcd.io/bbolt"
)

const (
	rootBucket    = "users"
	apiKeysBucket = "apikeys"
	habitsBucket  = "habits"
	logsBucket    = "logs"
	defaultUserID = "default"
)

// Store keeps everything under users/<id>/habits and users/<id>/logs. Log
// keys are <habit>/<day>/<seq>, so a prefix scan yields one habit's logs in
// day order, and within a day in insertion order.
type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	// bbolt holds an exclusive file lock; fail instead of waiting forever
	// when a running server already has the file open.
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", path, err)
	}

	s := &Store{db: db}

	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(rootBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(apiKeysBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func userKey(userID string) []byte {
	if userID == "" {
		userID = defaultUserID
	}
	return []byte(userID)
}

// writableBucket returns users/<userID>/<name>, creating it as needed.
func writableBucket(tx *bbolt.Tx, userID, name string) (*bbolt.Bucket, error) {
	userBucket, err := tx.Bucket([]byte(rootBucket)).CreateBucketIfNotExists(userKey(userID))
	if err != nil {
		return nil, err
	}
	return userBucket.CreateBucketIfNotExists([]byte(name))
}

// readBucket returns users/<userID>/<name> or nil when the user has never
// written anything.
func readBucket(tx *bbolt.Tx, userID, name string) *bbolt.Bucket {
	userBucket := tx.Bucket([]byte(rootBucket)).Bucket(userKey(userID))
	if userBucket == nil {
		return nil
	}
	return userBucket.Bucket([]byte(name))
}

func logPrefix(habitID string) []byte {
	return []byte(habitID + "/")
}

func (s *Store) PutHabit(userID string, h habit.Habit) error {
	val, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := writableBucket(tx, userID, habitsBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(h.ID), val)
	})
}

func (s *Store) GetHabit(userID, habitID string) (habit.Habit, error) {
	var h habit.Habit
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := readBucket(tx, userID, habitsBucket)
		if bucket == nil {
			return storage.ErrNotFound
		}
		v := bucket.Get([]byte(habitID))
		if v == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(v, &h)
	})
	return h, err
}

func (s *Store) ListHabits(userID string) ([]habit.Habit, error) {
	out := []habit.Habit{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := readBucket(tx, userID, habitsBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var h habit.Habit
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			out = append(out, h)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteHabit(userID, habitID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		habits, err := writableBucket(tx, userID, habitsBucket)
		if err != nil {
			return err
		}
		if habits.Get([]byte(habitID)) == nil {
			return storage.ErrNotFound
		}
		if err := habits.Delete([]byte(habitID)); err != nil {
			return err
		}

		logs, err := writableBucket(tx, userID, logsBucket)
		if err != nil {
			return err
		}
		c := logs.Cursor()
		prefix := logPrefix(habitID)
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Seek(prefix) {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) AddLog(userID string, l habit.CompletionLog) error {
	val, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := writableBucket(tx, userID, logsBucket)
		if err != nil {
			return err
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		key := fmt.Appendf(nil, "%s/%s/%020d", l.HabitID, l.LogDate, seq)
		return bucket.Put(key, val)
	})
}

func (s *Store) ListLogs(userID string, q storage.LogQuery) ([]habit.CompletionLog, error) {
	out := []habit.CompletionLog{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := readBucket(tx, userID, logsBucket)
		if bucket == nil {
			return nil
		}
		c := bucket.Cursor()
		var prefix []byte
		if q.HabitID != "" {
			prefix = logPrefix(q.HabitID)
		}
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var l habit.CompletionLog
			if err := json.Unmarshal(v, &l); err != nil {
				return err
			}
			if q.Match(l) {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) DeleteLog(userID, habitID, logID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := writableBucket(tx, userID, logsBucket)
		if err != nil {
			return err
		}
		c := bucket.Cursor()
		prefix := logPrefix(habitID)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var l habit.CompletionLog
			if err := json.Unmarshal(v, &l); err != nil {
				return err
			}
			if l.ID == logID {
				return c.Delete()
			}
		}
		return storage.ErrNotFound
	})
}

func (s *Store) PutAPIKey(keyHash, userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).Put([]byte(keyHash), []byte(userID))
	})
}

func (s *Store) GetAPIKey(keyHash string) (string, bool, error) {
	var userID string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(apiKeysBucket)).Get([]byte(keyHash)); v != nil {
			userID = string(v)
		}
		return nil
	})
	return userID, userID != "", err
}

func (s *Store) ListAPIKeyHashes(userID string) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).ForEach(func(k, v []byte) error {
			if string(v) == userID {
				out = append(out, string(k))
			}
			return nil
		})
	})
	return out, err
}

func (s *Store) DeleteAPIKey(keyHash string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).Delete([]byte(keyHash))
	})
}

var _ storage.Store = (*Store)(nil)
