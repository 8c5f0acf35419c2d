package server

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brk3/habitkit/internal/config"
)

func withAuthenticatedUser(r *http.Request, userID string) *http.Request {
	return withUser(r, &User{UserID: userID, Subject: "test:" + userID})
}

func newAuthServer(t *testing.T, st *memStore) *Server {
	t.Helper()
	srv, err := New(&config.Config{AuthEnabled: true}, st, testClock)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

func TestAPIKeyGeneration(t *testing.T) {
	store := newMemStore()
	srv := newAuthServer(t, store)

	req := httptest.NewRequest(http.MethodPost, "/auth/api_keys", nil)
	req = withAuthenticatedUser(req, "test-user")

	rr := httptest.NewRecorder()
	srv.generateAPIKey(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body: %s", rr.Code, rr.Body.String())
	}

	var response APIKeyResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.HasPrefix(response.APIKey, "hab_live_") {
		t.Fatalf("API key has wrong prefix: %s", response.APIKey)
	}

	hash := sha256.Sum256([]byte(response.APIKey))
	keyHash := fmt.Sprintf("%x", hash)
	storedUserID, found, err := store.GetAPIKey(keyHash)
	if err != nil {
		t.Fatalf("failed to get API key from store: %v", err)
	}
	if !found {
		t.Fatal("API key not found in store")
	}
	if storedUserID != "test-user" {
		t.Fatalf("stored user ID %q, want test-user", storedUserID)
	}
}

func TestAPIKeyGeneration_Unauthenticated(t *testing.T) {
	srv := newAuthServer(t, newMemStore())

	rr := httptest.NewRecorder()
	srv.generateAPIKey(rr, httptest.NewRequest(http.MethodPost, "/auth/api_keys", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", rr.Code)
	}
}

func TestListAPIKeys(t *testing.T) {
	store := newMemStore()
	srv := newAuthServer(t, store)

	for range 2 {
		if _, err := IssueAPIKey(store, "test-user"); err != nil {
			t.Fatalf("IssueAPIKey failed: %v", err)
		}
	}
	if _, err := IssueAPIKey(store, "someone-else"); err != nil {
		t.Fatalf("IssueAPIKey failed: %v", err)
	}

	req := withAuthenticatedUser(httptest.NewRequest(http.MethodGet, "/auth/api_keys", nil), "test-user")
	rr := httptest.NewRecorder()
	srv.listAPIKeys(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}
	var resp APIKeyListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(resp.Keys))
	}
	for _, k := range resp.Keys {
		if !strings.HasSuffix(k.KeyHash, "...") {
			t.Errorf("key hash %q not truncated", k.KeyHash)
		}
	}
}

func TestAPIKeyAuthentication(t *testing.T) {
	store := newMemStore()
	srv := newAuthServer(t, store)
	h := srv.Router()

	apiKey, err := IssueAPIKey(store, "test-user")
	if err != nil {
		t.Fatalf("IssueAPIKey failed: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid key", "Bearer " + apiKey, http.StatusOK},
		{"unknown key", "Bearer hab_live_0000", http.StatusUnauthorized},
		{"wrong prefix", "Bearer sk_live_1234", http.StatusUnauthorized},
		{"no bearer", apiKey, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/habits/", nil)
			req.Header.Set("Authorization", tt.header)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("got %d want %d, body: %s", rr.Code, tt.want, rr.Body.String())
			}
			if tt.want == http.StatusUnauthorized && rr.Header().Get("WWW-Authenticate") == "" {
				t.Fatal("missing WWW-Authenticate header")
			}
		})
	}
}

func TestAPIKeyAuthentication_ScopesHabitsToOwner(t *testing.T) {
	store := newMemStore()
	h := newAuthServer(t, store).Router()

	aliceKey, _ := IssueAPIKey(store, "alice")
	bobKey, _ := IssueAPIKey(store, "bob")

	req := httptest.NewRequest(http.MethodPost, "/habits/", strings.NewReader(`{"name":"run"}`))
	req.Header.Set("Authorization", "Bearer "+aliceKey)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create got %d: %s", rr.Code, rr.Body.String())
	}

	for key, want := range map[string]int{aliceKey: 1, bobKey: 0} {
		req := httptest.NewRequest(http.MethodGet, "/habits/", nil)
		req.Header.Set("Authorization", "Bearer "+key)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		var resp HabitListResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(resp.Habits) != want {
			t.Fatalf("got %d habits want %d", len(resp.Habits), want)
		}
	}
}

func TestAuthenticateAPIKey(t *testing.T) {
	store := newMemStore()
	srv := newAuthServer(t, store)

	apiKey, _ := IssueAPIKey(store, "test-user")

	user, ok := srv.authenticateAPIKey(apiKey)
	if !ok {
		t.Fatal("expected key to authenticate")
	}
	if user.UserID != "test-user" || !strings.HasPrefix(user.Subject, "apikey:") {
		t.Fatalf("got %+v", user)
	}

	if _, ok := srv.authenticateAPIKey("hab_live_nope"); ok {
		t.Fatal("unknown key authenticated")
	}
}

func TestHashAPIKey(t *testing.T) {
	a := HashAPIKey("hab_live_abc")
	if len(a) != 64 {
		t.Fatalf("hash length %d, want 64", len(a))
	}
	if a != HashAPIKey("hab_live_abc") || a == HashAPIKey("hab_live_abd") {
		t.Fatal("hash not deterministic or collides")
	}
}
