package server

import (
	"encoding/json"
	"net/http"

	"github.com/brk3/habitkit/internal/logger"
	"github.com/brk3/habitkit/pkg/habit"
)

type HabitListResponse struct {
	Habits []habit.Habit `json:"habits"`
}

type LogListResponse struct {
	HabitID string                `json:"habit_id"`
	Logs    []habit.CompletionLog `json:"logs"`
}

type ProgressListResponse struct {
	Day      string           `json:"day"`
	Progress []habit.Progress `json:"progress"`
}

type ToggleResponse struct {
	HabitID   string         `json:"habit_id"`
	Day       string         `json:"day"`
	Completed bool           `json:"completed"`
	Progress  habit.Progress `json:"progress"`
}

type DecrementResponse struct {
	Decremented bool           `json:"decremented"`
	Progress    habit.Progress `json:"progress"`
}

type AtRiskResponse struct {
	Habits []habit.AtRisk `json:"habits"`
}

type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}

type APIKeyInfo struct {
	KeyHash string `json:"key_hash"`
}

type APIKeyListResponse struct {
	Keys []APIKeyInfo `json:"keys"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to serialize response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}
