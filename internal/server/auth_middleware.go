package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/brk3/habitkit/internal/logger"
)

const anonymousUserID = "anonymous"

type userCtxKey struct{}

type User struct {
	UserID  string
	Subject string
}

func withUser(r *http.Request, u *User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userCtxKey{}, u))
}

// authMiddleware accepts "Authorization: Bearer hab_..." and resolves the key
// to its owner. Anything else is a 401.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Auth middleware processing request", "method", r.Method, "path", r.URL.Path)

		ah := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(ah, "Bearer ")
		if !ok || token == "" {
			RecordAuthEvent("verification", "missing_token")
			s.handleAuthFailure(w, r, false)
			return
		}
		if !strings.HasPrefix(token, apiKeyPrefix) {
			logger.Debug("Bearer token is not an API key")
			RecordAuthEvent("verification", "bad_format")
			s.handleAuthFailure(w, r, true)
			return
		}

		user, authenticated := s.authenticateAPIKey(token)
		if !authenticated {
			logger.Debug("API key authentication failed")
			RecordAuthEvent("verification", "failed")
			s.handleAuthFailure(w, r, true)
			return
		}
		logger.Debug("API key authentication successful", "user_id", user.UserID)
		RecordAuthEvent("verification", "success")
		next.ServeHTTP(w, withUser(r, user))
	})
}

// userIDFromContext extracts user ID from authenticated request context
func userIDFromContext(authEnabled bool, r *http.Request) string {
	if !authEnabled {
		return anonymousUserID
	}

	user, ok := r.Context().Value(userCtxKey{}).(*User)
	if !ok {
		logger.Error("No user in context")
		return ""
	}

	return user.UserID
}

func (s *Server) handleAuthFailure(w http.ResponseWriter, r *http.Request, invalidToken bool) {
	logger.Debug("Handling auth failure", "path", r.URL.Path, "method", r.Method, "invalid_token", invalidToken)
	if invalidToken {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer realm="habits"`)
	}
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

// authenticateAPIKey validates an API key and returns the associated User
func (s *Server) authenticateAPIKey(apiKey string) (*User, bool) {
	keyHash := HashAPIKey(apiKey)

	logger.Debug("Looking up API key", "key_hash", truncateHash(keyHash))
	userID, found, err := s.store.GetAPIKey(keyHash)
	if err != nil {
		logger.Error("Failed to lookup API key", "error", err)
		return nil, false
	}
	if !found {
		logger.Debug("API key not found in storage")
		return nil, false
	}

	return &User{
		UserID:  userID,
		Subject: "apikey:" + truncateHash(keyHash),
	}, true
}
