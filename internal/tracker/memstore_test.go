package tracker

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/brk3/habitkit/internal/storage"
	"github.com/brk3/habitkit/pkg/habit"
)

type memStore struct {
	mu      sync.RWMutex
	habits  map[string]map[string]habit.Habit
	logs    map[string][]habit.CompletionLog
	apiKeys map[string]string
	failLog error
}

func newMemStore() *memStore {
	return &memStore{
		habits:  map[string]map[string]habit.Habit{},
		logs:    map[string][]habit.CompletionLog{},
		apiKeys: map[string]string{},
	}
}

func (m *memStore) PutHabit(userID string, h habit.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.habits[userID] == nil {
		m.habits[userID] = map[string]habit.Habit{}
	}
	m.habits[userID][h.ID] = h
	return nil
}

func (m *memStore) GetHabit(userID, habitID string) (habit.Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.habits[userID][habitID]
	if !ok {
		return habit.Habit{}, storage.ErrNotFound
	}
	return h, nil
}

func (m *memStore) ListHabits(userID string) ([]habit.Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []habit.Habit{}
	for _, h := range m.habits[userID] {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b habit.Habit) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *memStore) DeleteHabit(userID, habitID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.habits[userID][habitID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.habits[userID], habitID)
	m.logs[userID] = slices.DeleteFunc(m.logs[userID], func(l habit.CompletionLog) bool { return l.HabitID == habitID })
	return nil
}

func (m *memStore) AddLog(userID string, l habit.CompletionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLog != nil {
		return m.failLog
	}
	m.logs[userID] = append(m.logs[userID], l)
	return nil
}

func (m *memStore) ListLogs(userID string, q storage.LogQuery) ([]habit.CompletionLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failLog != nil {
		return nil, m.failLog
	}
	out := []habit.CompletionLog{}
	for _, l := range m.logs[userID] {
		if q.Match(l) {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b habit.CompletionLog) int {
		if c := strings.Compare(a.HabitID, b.HabitID); c != 0 {
			return c
		}
		return strings.Compare(a.LogDate, b.LogDate)
	})
	return out, nil
}

func (m *memStore) DeleteLog(userID, habitID, logID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.logs[userID] {
		if l.HabitID == habitID && l.ID == logID {
			m.logs[userID] = slices.Delete(m.logs[userID], i, i+1)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) PutAPIKey(keyHash, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKeys[keyHash] = userID
	return nil
}

func (m *memStore) GetAPIKey(keyHash string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.apiKeys[keyHash]
	return u, ok, nil
}

func (m *memStore) ListAPIKeyHashes(userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k, u := range m.apiKeys {
		if u == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memStore) DeleteAPIKey(keyHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.apiKeys, keyHash)
	return nil
}

func (m *memStore) Close() error {
	return nil
}

var errStoreDown = errors.New("store unavailable")

var _ storage.Store = (*memStore)(nil)
