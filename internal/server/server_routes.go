package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brk3/habitkit/internal/logger"
	"github.com/brk3/habitkit/internal/storage"
	"github.com/brk3/habitkit/internal/tracker"
	"github.com/brk3/habitkit/pkg/habit"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// fail maps tracker errors onto status codes. Only unexpected errors are
// logged; msg and args describe the failed operation.
func fail(w http.ResponseWriter, err error, msg string, args ...any) {
	switch {
	case errors.Is(err, tracker.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "habit not found")
	default:
		logger.Error(msg, append(args, "error", err)...)
		writeError(w, http.StatusInternalServerError, "storage error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Warn("Invalid JSON in request", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func (s *Server) refreshActiveHabits(userID string) {
	habits, err := s.tracker.ListActiveHabits(userID)
	if err != nil {
		logger.Warn("Failed to update active habits metric", "user_id", userID, "error", err)
		return
	}
	UpdateActiveHabitsForUser(userID, len(habits))
}

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	logger.Debug("Listing habits", "user_id", userID)
	habits, err := s.tracker.ListActiveHabits(userID)
	if err != nil {
		fail(w, err, "Failed to list habits", "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, HabitListResponse{Habits: habits})
}

func (s *Server) listArchivedHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habits, err := s.tracker.ListArchivedHabits(userID)
	if err != nil {
		fail(w, err, "Failed to list archived habits", "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, HabitListResponse{Habits: habits})
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in habit.Habit
	if !decodeJSON(w, r, &in) {
		return
	}
	h, err := s.tracker.CreateHabit(userID, in)
	if err != nil {
		fail(w, err, "Failed to create habit", "user_id", userID, "name", in.Name)
		return
	}
	s.refreshActiveHabits(userID)
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) getHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	h, err := s.tracker.GetHabit(userID, habitID)
	if err != nil {
		fail(w, err, "Failed to get habit", "user_id", userID, "habit_id", habitID)
		return
	}
	if h == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) updateHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	var in habit.Habit
	if !decodeJSON(w, r, &in) {
		return
	}
	h, err := s.tracker.UpdateHabit(userID, habitID, in)
	if err != nil {
		fail(w, err, "Failed to update habit", "user_id", userID, "habit_id", habitID)
		return
	}
	if h == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	logger.Info("Deleting habit", "user_id", userID, "habit_id", habitID)
	deleted, err := s.tracker.DeleteHabit(userID, habitID)
	if err != nil {
		fail(w, err, "Failed to delete habit", "user_id", userID, "habit_id", habitID)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	s.refreshActiveHabits(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) archiveHabit(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, true)
}

func (s *Server) unarchiveHabit(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, false)
}

func (s *Server) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	h, err := s.tracker.SetArchived(userID, habitID, archived)
	if err != nil {
		fail(w, err, "Failed to change archive state", "user_id", userID, "habit_id", habitID)
		return
	}
	if h == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	s.refreshActiveHabits(userID)
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) listLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	q := r.URL.Query()
	if habitID != tracker.AllHabits {
		h, err := s.tracker.GetHabit(userID, habitID)
		if err != nil {
			fail(w, err, "Failed to get habit", "user_id", userID, "habit_id", habitID)
			return
		}
		if h == nil {
			writeError(w, http.StatusNotFound, "habit not found")
			return
		}
	}
	logs, err := s.tracker.ListLogs(userID, habitID, q.Get("from"), q.Get("to"))
	if err != nil {
		fail(w, err, "Failed to list logs", "user_id", userID, "habit_id", habitID)
		return
	}
	writeJSON(w, http.StatusOK, LogListResponse{HabitID: habitID, Logs: logs})
}

func (s *Server) toggleHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	day := r.URL.Query().Get("day")
	completed, err := s.tracker.Toggle(userID, habitID, day)
	if err != nil {
		fail(w, err, "Failed to toggle habit", "user_id", userID, "habit_id", habitID, "day", day)
		return
	}
	prog, err := s.tracker.Progress(userID, habitID, day)
	if err != nil {
		fail(w, err, "Failed to load progress", "user_id", userID, "habit_id", habitID)
		return
	}
	if prog == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	if day == "" {
		day = s.tracker.Clock().Today().Key()
	}
	writeJSON(w, http.StatusOK, ToggleResponse{HabitID: habitID, Day: day, Completed: completed, Progress: *prog})
}

func (s *Server) incrementHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	day := r.URL.Query().Get("day")
	prog, err := s.tracker.Increment(userID, habitID, day)
	if err != nil {
		fail(w, err, "Failed to increment habit", "user_id", userID, "habit_id", habitID, "day", day)
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

func (s *Server) decrementHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	day := r.URL.Query().Get("day")
	decremented, err := s.tracker.Decrement(userID, habitID, day)
	if err != nil {
		fail(w, err, "Failed to decrement habit", "user_id", userID, "habit_id", habitID, "day", day)
		return
	}
	prog, err := s.tracker.Progress(userID, habitID, day)
	if err != nil {
		fail(w, err, "Failed to load progress", "user_id", userID, "habit_id", habitID)
		return
	}
	if prog == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	code := http.StatusOK
	if !decremented {
		code = http.StatusConflict
	}
	writeJSON(w, code, DecrementResponse{Decremented: decremented, Progress: *prog})
}

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	prog, err := s.tracker.Progress(userID, habitID, r.URL.Query().Get("day"))
	if err != nil {
		fail(w, err, "Failed to load progress", "user_id", userID, "habit_id", habitID)
		return
	}
	if prog == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

func (s *Server) getTodayProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	progress, err := s.tracker.TodayProgress(userID)
	if err != nil {
		fail(w, err, "Failed to load today's progress", "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, ProgressListResponse{Day: s.tracker.Clock().Today().Key(), Progress: progress})
}

func (s *Server) getHabitSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	logger.Debug("Getting habit summary", "habit_id", habitID, "user_id", userID)
	sum, err := s.tracker.Summary(userID, habitID)
	if err != nil {
		fail(w, err, "Failed to compute summary", "user_id", userID, "habit_id", habitID)
		return
	}
	if sum == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) getHabitSeries(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	req, err := seriesRequest(r)
	if err != nil {
		fail(w, err, "Bad series request")
		return
	}
	series, err := s.tracker.HabitSeries(userID, habitID, req)
	if err != nil {
		fail(w, err, "Failed to compute series", "user_id", userID, "habit_id", habitID)
		return
	}
	if series == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	writeJSON(w, http.StatusOK, series)
}
