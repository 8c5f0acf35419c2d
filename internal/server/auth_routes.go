package server

import (
	"net/http"

	"github.com/brk3/habitkit/internal/logger"
	"github.com/brk3/habitkit/internal/storage"
)

// IssueAPIKey creates a key for userID and stores its hash.
func IssueAPIKey(store storage.Store, userID string) (string, error) {
	apiKey, err := GenerateAPIKey()
	if err != nil {
		return "", err
	}
	if err := store.PutAPIKey(HashAPIKey(apiKey), userID); err != nil {
		return "", err
	}
	return apiKey, nil
}

func (s *Server) generateAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	apiKey, err := IssueAPIKey(s.store, userID)
	if err != nil {
		logger.Error("Failed to issue API key", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create api key")
		return
	}
	logger.Info("Issued API key", "user_id", userID)
	writeJSON(w, http.StatusOK, APIKeyResponse{APIKey: apiKey})
}

func (s *Server) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	hashes, err := s.store.ListAPIKeyHashes(userID)
	if err != nil {
		logger.Error("Failed to list API keys", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	keys := make([]APIKeyInfo, 0, len(hashes))
	for _, h := range hashes {
		keys = append(keys, APIKeyInfo{KeyHash: truncateHash(h)})
	}
	writeJSON(w, http.StatusOK, APIKeyListResponse{Keys: keys})
}
