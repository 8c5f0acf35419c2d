package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brk3/habitkit/internal/config"
	"github.com/brk3/habitkit/internal/storage"
)

func newTestServerWithAuth(t *testing.T, st storage.Store) http.Handler {
	t.Helper()
	s, err := New(&config.Config{AuthEnabled: true, ListenAddr: ":0"}, st, testClock)
	if err != nil {
		t.Fatalf("error creating server: %v", err)
	}
	return s.Router()
}

func TestAuthEnabled_NoToken_Unauthorized(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())

	for _, path := range []string{"/habits/", "/stats/", "/export", "/auth/api_keys/"} {
		rr := mockRequest(h, http.MethodGet, path, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s got %d want 401", path, rr.Code)
		}
		if got := rr.Header().Get("WWW-Authenticate"); got != `Bearer realm="habits"` {
			t.Errorf("%s WWW-Authenticate = %q", path, got)
		}
	}
}

func TestAuthEnabled_PublicRoutes(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())

	for _, path := range []string{"/version", "/metrics"} {
		if rr := mockRequest(h, http.MethodGet, path, nil); rr.Code != http.StatusOK {
			t.Errorf("%s got %d want 200", path, rr.Code)
		}
	}
}

func TestAuthDisabled_AnonymousUser(t *testing.T) {
	h := newTestServer(t, newMemStore())

	rr := mockRequest(h, http.MethodGet, "/habits/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d want 200", rr.Code)
	}
}

func TestGetUserID_WithValidUser(t *testing.T) {
	req := withAuthenticatedUser(httptest.NewRequest(http.MethodGet, "/", nil), "test-user")

	if got := userIDFromContext(true, req); got != "test-user" {
		t.Fatalf("got user ID %q, want test-user", got)
	}
}

func TestGetUserID_NoUserInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if got := userIDFromContext(true, req); got != "" {
		t.Fatalf("got user ID %q, want empty string", got)
	}
}

func TestGetUserID_AuthDisabled(t *testing.T) {
	req := withAuthenticatedUser(httptest.NewRequest(http.MethodGet, "/", nil), "test-user")

	if got := userIDFromContext(false, req); got != anonymousUserID {
		t.Fatalf("got user ID %q, want %q", got, anonymousUserID)
	}
}
