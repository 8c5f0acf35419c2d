package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/brk3/habitkit/internal/logger"
	"github.com/brk3/habitkit/internal/tracker"
	"github.com/brk3/habitkit/pkg/habit"
	"github.com/brk3/habitkit/pkg/versioninfo"
)

func seriesRequest(r *http.Request) (tracker.SeriesRequest, error) {
	q := r.URL.Query()
	req := tracker.SeriesRequest{
		Bucket: q.Get("bucket"),
		End:    q.Get("end"),
		Dir:    q.Get("dir"),
	}
	if v := q.Get("n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: bad window length %q", tracker.ErrInvalidInput, v)
		}
		req.N = n
	}
	return req, nil
}

func (s *Server) getVersionInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, versioninfo.VersionInfo{
		Version:   versioninfo.Version,
		BuildDate: versioninfo.BuildDate,
	})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	stats, err := s.tracker.Stats(userID)
	if err != nil {
		fail(w, err, "Failed to compute stats", "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) getOverallSeries(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	req, err := seriesRequest(r)
	if err != nil {
		fail(w, err, "Bad series request")
		return
	}
	series, err := s.tracker.OverallSeries(userID, req)
	if err != nil {
		fail(w, err, "Failed to compute overall series", "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) getAtRisk(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	risky, err := s.tracker.AtRisk(userID)
	if err != nil {
		fail(w, err, "Failed to list streaks at risk", "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, AtRiskResponse{Habits: risky})
}

func (s *Server) exportHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habits, err := s.tracker.Export(userID)
	if err != nil {
		fail(w, err, "Failed to export habits", "user_id", userID)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="habits-export.json"`)
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) importHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var records []habit.Habit
	if !decodeJSON(w, r, &records) {
		return
	}
	logger.Info("Importing habits", "user_id", userID, "count", len(records))
	res, err := s.tracker.Import(userID, records)
	if err != nil {
		fail(w, err, "Failed to import habits", "user_id", userID)
		return
	}
	s.refreshActiveHabits(userID)
	writeJSON(w, http.StatusOK, res)
}
